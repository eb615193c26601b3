package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/inventory"
	"github.com/seppevistik/stockmanager/internal/domain/repository"
	"github.com/seppevistik/stockmanager/pkg/logger"
	"github.com/shopspring/decimal"
)

const aggregateReceipt = "receipt"

// ReceiptUseCase registro y validación de recepciones de mercancía.
// La aplicación al inventario vive en CompleteReceiptUseCase.
type ReceiptUseCase struct {
	txRunner ports.TxRunner
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(txRunner ports.TxRunner, metrics ports.Metrics, log *logger.Logger) *ReceiptUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &ReceiptUseCase{
		txRunner: txRunner,
		metrics:  metrics,
		log:      log.Component("receipts"),
		now:      time.Now,
	}
}

// Create registra una recepción contra una orden de compra. Calcula las varianzas por línea y
// deja la recepción Validated o PendingValidation. La primera recepción pasa la orden a Receiving.
func (uc *ReceiptUseCase) Create(ctx context.Context, tenantID, userID string, in dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	if in.PurchaseOrderID == "" {
		return nil, domain.Validation("Purchase order is required")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Validation("Receipt must have at least one line")
	}
	now := uc.now()
	receipt := &entity.Receipt{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		PurchaseOrderID: in.PurchaseOrderID,
		Status:          entity.ReceiptStatusInProgress,
		ReceivedDate:    now,
		ReceivedBy:      userID,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.ReceivedDate != nil {
		receipt.ReceivedDate = *in.ReceivedDate
	}

	var po *entity.PurchaseOrder
	var poFrom entity.PurchaseOrderStatus
	poChanged := false
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		po, err = loadPurchaseOrder(ctx, repos, tenantID, in.PurchaseOrderID)
		if err != nil {
			return err
		}
		if !po.Status.CanReceive() {
			return domain.InvalidState("Cannot receive against a purchase order in status %s", po.Status)
		}
		lines, err := buildReceiptLines(receipt.ID, po, in.Lines)
		if err != nil {
			return err
		}
		receipt.Lines = lines
		inventory.EvaluateReceipt(receipt)

		number, err := repository.NextDocumentNumber(ctx, repos.Sequences, tenantID, repository.SequenceReceipt, now)
		if err != nil {
			return err
		}
		receipt.ReceiptNumber = number

		poFrom = po.Status
		if po.StartReceiving(now) {
			poChanged = true
			if err := repos.PurchaseOrders.Update(ctx, po); err != nil {
				return err
			}
		}
		return repos.Receipts.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	uc.logTransition(receipt, entity.ReceiptStatusInProgress, userID)
	if poChanged {
		uc.metrics.Transition(aggregatePurchaseOrder, po.Status.String())
		uc.log.Info().
			Str("tenant_id", tenantID).
			Str("purchase_order_id", po.ID).
			Str("from", poFrom.String()).
			Str("to", po.Status.String()).
			Str("user_id", userID).
			Msg("orden de compra en recepción")
	}
	return dto.FromReceipt(receipt), nil
}

// Approve PendingValidation -> Validated. Deja constancia del validador y las notas de varianza.
func (uc *ReceiptUseCase) Approve(ctx context.Context, tenantID, userID, id string, in dto.ApproveReceiptRequest) (*dto.ReceiptResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(r *entity.Receipt, now time.Time) error {
		return r.Approve(userID, in.VarianceNotes, now)
	})
}

// Reject PendingValidation -> Rejected. El motivo es obligatorio.
func (uc *ReceiptUseCase) Reject(ctx context.Context, tenantID, userID, id string, in dto.ReasonRequest) (*dto.ReceiptResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(r *entity.Receipt, now time.Time) error {
		return r.Reject(userID, in.Reason, now)
	})
}

// Delete elimina una recepción que todavía no afectó el inventario.
func (uc *ReceiptUseCase) Delete(ctx context.Context, tenantID, userID, id string) error {
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		r, err := loadReceipt(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := r.CanDelete(); err != nil {
			return err
		}
		return repos.Receipts.Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("receipt_id", id).Str("user_id", userID).Msg("recepción eliminada")
	return nil
}

// Get obtiene una recepción con sus líneas.
func (uc *ReceiptUseCase) Get(ctx context.Context, tenantID, id string) (*dto.ReceiptResponse, error) {
	var r *entity.Receipt
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		r, err = repos.Receipts.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NotFound("Receipt %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.FromReceipt(r), nil
}

// List lista recepciones del tenant, opcionalmente por estado.
func (uc *ReceiptUseCase) List(ctx context.Context, tenantID, status string, page dto.PageRequest) ([]*dto.ReceiptResponse, error) {
	page.DefaultPage()
	st := entity.ReceiptStatus(status)
	if status != "" && !st.IsValid() {
		return nil, domain.Validation("Unknown receipt status %q", status)
	}
	var list []*entity.Receipt
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		list, err = repos.Receipts.List(ctx, tenantID, st, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toReceiptResponses(list), nil
}

// ListByPurchaseOrder recepciones registradas contra una orden de compra.
func (uc *ReceiptUseCase) ListByPurchaseOrder(ctx context.Context, tenantID, purchaseOrderID string) ([]*dto.ReceiptResponse, error) {
	var list []*entity.Receipt
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		po, err := repos.PurchaseOrders.GetByID(ctx, tenantID, purchaseOrderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.NotFound("Purchase order %s not found", purchaseOrderID)
		}
		list, err = repos.Receipts.ListByPurchaseOrder(ctx, tenantID, purchaseOrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toReceiptResponses(list), nil
}

func (uc *ReceiptUseCase) transition(ctx context.Context, tenantID, userID, id string, apply func(*entity.Receipt, time.Time) error) (*dto.ReceiptResponse, error) {
	var r *entity.Receipt
	var from entity.ReceiptStatus
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		r, err = loadReceipt(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		from = r.Status
		if err := apply(r, uc.now()); err != nil {
			return err
		}
		return repos.Receipts.Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	uc.logTransition(r, from, userID)
	return dto.FromReceipt(r), nil
}

func (uc *ReceiptUseCase) logTransition(r *entity.Receipt, from entity.ReceiptStatus, userID string) {
	uc.metrics.Transition(aggregateReceipt, r.Status.String())
	uc.log.Info().
		Str("tenant_id", r.TenantID).
		Str("receipt_id", r.ID).
		Str("receipt_number", r.ReceiptNumber).
		Str("from", from.String()).
		Str("to", r.Status.String()).
		Bool("has_variances", r.HasVariances).
		Str("user_id", userID).
		Msg("recepción actualizada")
}

// buildReceiptLines valida cada línea contra la orden y toma los snapshots de cantidad y precio.
// La suma recibida por línea de la OC no puede superar su pendiente.
func buildReceiptLines(receiptID string, po *entity.PurchaseOrder, in []dto.ReceiptLineRequest) ([]*entity.ReceiptLine, error) {
	requested := make(map[string]decimal.Decimal, len(in))
	lines := make([]*entity.ReceiptLine, 0, len(in))
	for _, l := range in {
		poLine := po.Line(l.PurchaseOrderLineID)
		if poLine == nil {
			return nil, domain.NotFound("Purchase order line %s not found on order %s", l.PurchaseOrderLineID, po.OrderNumber)
		}
		condition := entity.ItemCondition(l.Condition)
		if l.Condition == "" {
			condition = entity.ItemConditionGood
		}
		if !condition.IsValid() {
			return nil, domain.Validation("Unknown item condition %q", l.Condition)
		}
		if l.QuantityReceived.IsNegative() {
			return nil, domain.Validation("Received quantity cannot be negative")
		}
		if l.UnitPriceReceived != nil && l.UnitPriceReceived.IsNegative() {
			return nil, domain.Validation("Received unit price cannot be negative")
		}
		total := requested[poLine.ID].Add(l.QuantityReceived)
		if total.GreaterThan(poLine.QuantityOutstanding) {
			return nil, domain.Invariant("Received quantity %s exceeds outstanding quantity %s for line %s", total, poLine.QuantityOutstanding, poLine.ID)
		}
		requested[poLine.ID] = total

		lines = append(lines, &entity.ReceiptLine{
			ID:                  uuid.New().String(),
			ReceiptID:           receiptID,
			PurchaseOrderLineID: poLine.ID,
			ProductID:           poLine.ProductID,
			QuantityOrdered:     poLine.QuantityOrdered,
			QuantityExpected:    poLine.QuantityOutstanding,
			QuantityReceived:    l.QuantityReceived,
			UnitPriceOrdered:    poLine.UnitPrice,
			UnitPriceReceived:   l.UnitPriceReceived,
			Condition:           condition,
			DamageNotes:         l.DamageNotes,
			Location:            l.Location,
			BatchNumber:         l.BatchNumber,
			ExpiryDate:          l.ExpiryDate,
		})
	}
	return lines, nil
}

func loadReceipt(ctx context.Context, repos ports.Repositories, tenantID, id string) (*entity.Receipt, error) {
	r, err := repos.Receipts.GetForUpdate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("Receipt %s not found", id)
	}
	return r, nil
}

func toReceiptResponses(list []*entity.Receipt) []*dto.ReceiptResponse {
	out := make([]*dto.ReceiptResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.FromReceipt(r))
	}
	return out
}
