package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/inventory"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

// ReconciliationService aplica recepciones completadas al inventario (cantidad + costo promedio)
// y revierte recepciones ya aplicadas.
type ReconciliationService struct {
	txRunner ports.TxRunner
	ledger   *LedgerWriter
	log      *logger.Logger
	now      func() time.Time
}

// NewReconciliationService construye el servicio.
func NewReconciliationService(txRunner ports.TxRunner, ledger *LedgerWriter, log *logger.Logger) *ReconciliationService {
	return &ReconciliationService{
		txRunner: txRunner,
		ledger:   ledger,
		log:      log.Component("reconciliation"),
		now:      time.Now,
	}
}

// ApplyReceiptToInventory suma al stock cada línea en buen estado de la recepción, recalculando
// el costo promedio ponderado cuando el precio recibido difiere del costo vigente.
// Las líneas dañadas o defectuosas no entran al stock vendible. Corre dentro de la transacción
// del caller: cualquier error aborta la recepción completa.
func (s *ReconciliationService) ApplyReceiptToInventory(ctx context.Context, repos ports.Repositories, receipt *entity.Receipt, userID string) ([]*entity.StockMovement, error) {
	var movements []*entity.StockMovement
	for _, line := range receipt.Lines {
		if !line.AddsToStock() {
			continue
		}
		product, err := repos.Products.GetForUpdate(ctx, receipt.TenantID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NotFound("Product %s not found", line.ProductID)
		}

		price := line.EffectiveUnitPrice()
		if !price.Equal(product.CostPerUnit) {
			newCost := inventory.CostCalculator(product.CurrentStock, product.CostPerUnit, line.QuantityReceived, price)
			if !newCost.Equal(product.CostPerUnit) {
				if err := repos.Products.UpdateCost(ctx, receipt.TenantID, product.ID, newCost); err != nil {
					return nil, err
				}
			}
		}

		mov, err := s.ledger.Record(ctx, repos, MovementInput{
			TenantID:   receipt.TenantID,
			UserID:     userID,
			ProductID:  line.ProductID,
			Type:       entity.MovementTypeStockIn,
			Quantity:   line.QuantityReceived,
			Reason:     fmt.Sprintf("Goods receipt %s", receipt.ReceiptNumber),
			Notes:      batchNotes(line),
			Reference:  receipt.ReceiptNumber,
			ToLocation: line.Location,
		})
		if err != nil {
			return nil, err
		}
		movements = append(movements, mov)
	}
	return movements, nil
}

// RollbackReceiptFromInventory revierte una recepción completada con un ajuste negativo por
// cada línea en buen estado, devuelve a la orden de compra las cantidades que la recepción le
// acreditó y deja la recepción en RolledBack. Falla si algún producto quedaría con stock negativo
// (la mercancía ya se vendió) o si la orden ya está completada; en ese caso no se escribe nada.
func (s *ReconciliationService) RollbackReceiptFromInventory(ctx context.Context, tenantID, receiptID, userID string) ([]*entity.StockMovement, error) {
	var movements []*entity.StockMovement
	err := s.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		receipt, err := repos.Receipts.GetForUpdate(ctx, tenantID, receiptID)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.NotFound("Receipt %s not found", receiptID)
		}
		if receipt.Status != entity.ReceiptStatusCompleted {
			return domain.InvalidState("Only completed receipts can be rolled back")
		}
		po, err := repos.PurchaseOrders.GetForUpdate(ctx, tenantID, receipt.PurchaseOrderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.NotFound("Purchase order %s not found", receipt.PurchaseOrderID)
		}
		if err := po.CheckRollbackAllowed(); err != nil {
			return err
		}

		for _, line := range receipt.Lines {
			if !line.AddsToStock() {
				continue
			}
			mov, err := s.ledger.Record(ctx, repos, MovementInput{
				TenantID:  tenantID,
				UserID:    userID,
				ProductID: line.ProductID,
				Type:      entity.MovementTypeStockAdjustment,
				Quantity:  line.QuantityReceived.Neg(),
				Reason:    fmt.Sprintf("Rollback of goods receipt %s", receipt.ReceiptNumber),
				Reference: receipt.ReceiptNumber,
			})
			if err != nil {
				return err
			}
			movements = append(movements, mov)
		}

		now := s.now()
		if err := po.RevertReceipt(receipt, now); err != nil {
			return err
		}
		if err := receipt.MarkRolledBack(now); err != nil {
			return err
		}
		if err := repos.PurchaseOrders.Update(ctx, po); err != nil {
			return err
		}
		return repos.Receipts.Update(ctx, receipt)
	})
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Str("receipt_id", receiptID).Msg("reversión de recepción rechazada")
		return nil, err
	}
	s.ledger.Published(movements...)
	s.log.Info().
		Str("tenant_id", tenantID).
		Str("receipt_id", receiptID).
		Int("movements", len(movements)).
		Str("user_id", userID).
		Msg("recepción revertida del inventario")
	return movements, nil
}

func batchNotes(line *entity.ReceiptLine) string {
	if line.BatchNumber == "" {
		return ""
	}
	if line.ExpiryDate != nil {
		return fmt.Sprintf("batch %s, expires %s", line.BatchNumber, line.ExpiryDate.Format("2006-01-02"))
	}
	return "batch " + line.BatchNumber
}
