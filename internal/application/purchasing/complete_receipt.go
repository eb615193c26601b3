package purchasing

import (
	"context"
	"time"

	"github.com/seppevistik/stockmanager/internal/application/dto"
	appinventory "github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

// CompleteReceiptUseCase completa una recepción validada en una sola unidad de trabajo:
// entrada al inventario, acreditación en las líneas de la OC, recálculo del estado de la OC
// y cierre de la recepción. Si algo falla no queda nada escrito.
type CompleteReceiptUseCase struct {
	txRunner       ports.TxRunner
	reconciliation *appinventory.ReconciliationService
	ledger         *appinventory.LedgerWriter
	metrics        ports.Metrics
	log            *logger.Logger
	now            func() time.Time
}

// NewCompleteReceiptUseCase construye el caso de uso.
func NewCompleteReceiptUseCase(txRunner ports.TxRunner, reconciliation *appinventory.ReconciliationService, ledger *appinventory.LedgerWriter, metrics ports.Metrics, log *logger.Logger) *CompleteReceiptUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CompleteReceiptUseCase{
		txRunner:       txRunner,
		reconciliation: reconciliation,
		ledger:         ledger,
		metrics:        metrics,
		log:            log.Component("receipts"),
		now:            time.Now,
	}
}

// Complete Validated -> Completed.
func (uc *CompleteReceiptUseCase) Complete(ctx context.Context, tenantID, userID, id string) (*dto.ReceiptResponse, error) {
	var (
		receipt   *entity.Receipt
		po        *entity.PurchaseOrder
		poFrom    entity.PurchaseOrderStatus
		movements []*entity.StockMovement
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		receipt, err = loadReceipt(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := receipt.CheckCompletable(); err != nil {
			return err
		}
		po, err = loadPurchaseOrder(ctx, repos, tenantID, receipt.PurchaseOrderID)
		if err != nil {
			return err
		}
		poFrom = po.Status

		movements, err = uc.reconciliation.ApplyReceiptToInventory(ctx, repos, receipt, userID)
		if err != nil {
			return err
		}

		// Las líneas dañadas también cuentan como recibidas contra la OC aunque no entren al stock
		for _, l := range receipt.Lines {
			poLine := po.Line(l.PurchaseOrderLineID)
			if poLine == nil {
				return domain.Invariant("Purchase order line %s no longer exists", l.PurchaseOrderLineID)
			}
			if err := poLine.Receive(l.QuantityReceived); err != nil {
				return err
			}
		}

		now := uc.now()
		if err := po.RecomputeReceiptStatus(now); err != nil {
			return err
		}
		if err := receipt.MarkCompleted(now); err != nil {
			return err
		}
		if err := repos.PurchaseOrders.Update(ctx, po); err != nil {
			return err
		}
		return repos.Receipts.Update(ctx, receipt)
	})
	if err != nil {
		uc.log.Warn().
			Err(err).
			Str("tenant_id", tenantID).
			Str("receipt_id", id).
			Str("user_id", userID).
			Msg("no se pudo aplicar la recepción al inventario")
		return nil, err
	}

	uc.ledger.Published(movements...)
	uc.metrics.Transition(aggregateReceipt, receipt.Status.String())
	uc.metrics.Transition(aggregatePurchaseOrder, po.Status.String())
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("receipt_id", receipt.ID).
		Str("receipt_number", receipt.ReceiptNumber).
		Str("purchase_order_id", po.ID).
		Str("from", poFrom.String()).
		Str("to", po.Status.String()).
		Int("movements", len(movements)).
		Str("user_id", userID).
		Msg("recepción completada")
	return dto.FromReceipt(receipt), nil
}
