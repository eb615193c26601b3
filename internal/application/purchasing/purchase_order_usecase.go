package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/repository"
	"github.com/seppevistik/stockmanager/pkg/logger"
	"github.com/shopspring/decimal"
)

const aggregatePurchaseOrder = "purchase_order"

// PurchaseOrderUseCase ciclo de vida de la orden de compra: borrador, envío, confirmación,
// cancelación. La recepción la gobiernan ReceiptUseCase y CompleteReceiptUseCase.
type PurchaseOrderUseCase struct {
	txRunner ports.TxRunner
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(txRunner ports.TxRunner, metrics ports.Metrics, log *logger.Logger) *PurchaseOrderUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &PurchaseOrderUseCase{
		txRunner: txRunner,
		metrics:  metrics,
		log:      log.Component("purchase_orders"),
		now:      time.Now,
	}
}

// Create crea una orden en borrador con número PO-<año>-<consecutivo>.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, tenantID, userID string, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	lines, err := buildPurchaseOrderLines(in.Lines)
	if err != nil {
		return nil, err
	}
	if err := validateCharges(in.Tax, in.Shipping); err != nil {
		return nil, err
	}
	now := uc.now()
	po := &entity.PurchaseOrder{
		ID:                   uuid.New().String(),
		TenantID:             tenantID,
		SupplierID:           in.SupplierID,
		Status:               entity.PurchaseOrderStatusDraft,
		OrderDate:            now,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Tax:                  in.Tax,
		Shipping:             in.Shipping,
		Notes:                in.Notes,
		CreatedBy:            userID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if in.OrderDate != nil {
		po.OrderDate = *in.OrderDate
	}
	if err := po.ReplaceLines(lines); err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := checkSupplier(ctx, repos, tenantID, in.SupplierID); err != nil {
			return err
		}
		if err := checkProducts(ctx, repos, tenantID, lines); err != nil {
			return err
		}
		number, err := repository.NextDocumentNumber(ctx, repos.Sequences, tenantID, repository.SequencePurchaseOrder, now)
		if err != nil {
			return err
		}
		po.OrderNumber = number
		return repos.PurchaseOrders.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	uc.logTransition(po, "", userID)
	return dto.FromPurchaseOrder(po), nil
}

// Update reemplaza cabecera y líneas de un borrador.
func (uc *PurchaseOrderUseCase) Update(ctx context.Context, tenantID, userID, id string, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	lines, err := buildPurchaseOrderLines(in.Lines)
	if err != nil {
		return nil, err
	}
	if err := validateCharges(in.Tax, in.Shipping); err != nil {
		return nil, err
	}
	var po *entity.PurchaseOrder
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		po, err = loadPurchaseOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := po.Edit(); err != nil {
			return err
		}
		if in.SupplierID != po.SupplierID {
			if err := checkSupplier(ctx, repos, tenantID, in.SupplierID); err != nil {
				return err
			}
			po.SupplierID = in.SupplierID
		}
		if err := checkProducts(ctx, repos, tenantID, lines); err != nil {
			return err
		}
		if in.OrderDate != nil {
			po.OrderDate = *in.OrderDate
		}
		po.ExpectedDeliveryDate = in.ExpectedDeliveryDate
		po.Tax = in.Tax
		po.Shipping = in.Shipping
		po.Notes = in.Notes
		po.UpdatedAt = uc.now()
		if err := po.ReplaceLines(lines); err != nil {
			return err
		}
		return repos.PurchaseOrders.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return dto.FromPurchaseOrder(po), nil
}

// Submit Draft -> Submitted.
func (uc *PurchaseOrderUseCase) Submit(ctx context.Context, tenantID, userID, id string) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(po *entity.PurchaseOrder, now time.Time) error {
		return po.Submit(now)
	})
}

// Confirm Submitted -> Confirmed con la fecha de entrega confirmada por el proveedor.
func (uc *PurchaseOrderUseCase) Confirm(ctx context.Context, tenantID, userID, id string, in dto.ConfirmPurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(po *entity.PurchaseOrder, now time.Time) error {
		return po.Confirm(in.ConfirmedDeliveryDate, now)
	})
}

// Cancel cancela la orden con motivo. Rechaza si ya hay mercancía recibida.
func (uc *PurchaseOrderUseCase) Cancel(ctx context.Context, tenantID, userID, id string, in dto.ReasonRequest) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(po *entity.PurchaseOrder, now time.Time) error {
		return po.Cancel(in.Reason, now)
	})
}

// Delete elimina un borrador.
func (uc *PurchaseOrderUseCase) Delete(ctx context.Context, tenantID, userID, id string) error {
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		po, err := loadPurchaseOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := po.CanDelete(); err != nil {
			return err
		}
		return repos.PurchaseOrders.Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("purchase_order_id", id).Str("user_id", userID).Msg("orden de compra eliminada")
	return nil
}

// Get obtiene una orden con sus líneas.
func (uc *PurchaseOrderUseCase) Get(ctx context.Context, tenantID, id string) (*dto.PurchaseOrderResponse, error) {
	var po *entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		po, err = repos.PurchaseOrders.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.NotFound("Purchase order %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.FromPurchaseOrder(po), nil
}

// List lista órdenes del tenant, opcionalmente filtradas por estado.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, tenantID, status string, page dto.PageRequest) ([]*dto.PurchaseOrderResponse, error) {
	page.DefaultPage()
	st := entity.PurchaseOrderStatus(status)
	if status != "" && !st.IsValid() {
		return nil, domain.Validation("Unknown purchase order status %q", status)
	}
	var list []*entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		list, err = repos.PurchaseOrders.List(ctx, tenantID, st, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		out = append(out, dto.FromPurchaseOrder(po))
	}
	return out, nil
}

func (uc *PurchaseOrderUseCase) transition(ctx context.Context, tenantID, userID, id string, apply func(*entity.PurchaseOrder, time.Time) error) (*dto.PurchaseOrderResponse, error) {
	var po *entity.PurchaseOrder
	var from entity.PurchaseOrderStatus
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		po, err = loadPurchaseOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		from = po.Status
		if err := apply(po, uc.now()); err != nil {
			return err
		}
		return repos.PurchaseOrders.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	uc.logTransition(po, from, userID)
	return dto.FromPurchaseOrder(po), nil
}

func (uc *PurchaseOrderUseCase) logTransition(po *entity.PurchaseOrder, from entity.PurchaseOrderStatus, userID string) {
	uc.metrics.Transition(aggregatePurchaseOrder, po.Status.String())
	uc.log.Info().
		Str("tenant_id", po.TenantID).
		Str("purchase_order_id", po.ID).
		Str("order_number", po.OrderNumber).
		Str("from", from.String()).
		Str("to", po.Status.String()).
		Str("user_id", userID).
		Msg("orden de compra actualizada")
}

func loadPurchaseOrder(ctx context.Context, repos ports.Repositories, tenantID, id string) (*entity.PurchaseOrder, error) {
	po, err := repos.PurchaseOrders.GetForUpdate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NotFound("Purchase order %s not found", id)
	}
	return po, nil
}

func buildPurchaseOrderLines(in []dto.PurchaseOrderLineRequest) ([]*entity.PurchaseOrderLine, error) {
	if len(in) == 0 {
		return nil, domain.Validation("Purchase order must have at least one line")
	}
	lines := make([]*entity.PurchaseOrderLine, 0, len(in))
	for _, l := range in {
		line, err := entity.NewPurchaseOrderLine(l.ProductID, l.Quantity, l.UnitPrice, l.Notes)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func checkSupplier(ctx context.Context, repos ports.Repositories, tenantID, supplierID string) error {
	if supplierID == "" {
		return domain.Validation("Supplier is required")
	}
	supplier, err := repos.Companies.GetByID(ctx, tenantID, supplierID)
	if err != nil {
		return err
	}
	if supplier == nil {
		return domain.NotFound("Supplier %s not found", supplierID)
	}
	if !supplier.IsSupplier {
		return domain.Validation("Company %s is not a supplier", supplier.Name)
	}
	return nil
}

func checkProducts(ctx context.Context, repos ports.Repositories, tenantID string, lines []*entity.PurchaseOrderLine) error {
	for _, l := range lines {
		p, err := repos.Products.GetByID(ctx, tenantID, l.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFound("Product %s not found", l.ProductID)
		}
	}
	return nil
}

func validateCharges(tax, shipping decimal.Decimal) error {
	if tax.IsNegative() || shipping.IsNegative() {
		return domain.Validation("Tax and shipping cannot be negative")
	}
	return nil
}
