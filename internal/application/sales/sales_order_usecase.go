package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/repository"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

const aggregateSalesOrder = "sales_order"

// SalesOrderUseCase flujo de preparación y despacho de órdenes de venta.
// El despacho es el único paso que toca el inventario.
type SalesOrderUseCase struct {
	txRunner ports.TxRunner
	ledger   *inventory.LedgerWriter
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewSalesOrderUseCase construye el caso de uso.
func NewSalesOrderUseCase(txRunner ports.TxRunner, ledger *inventory.LedgerWriter, metrics ports.Metrics, log *logger.Logger) *SalesOrderUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &SalesOrderUseCase{
		txRunner: txRunner,
		ledger:   ledger,
		metrics:  metrics,
		log:      log.Component("sales_orders"),
		now:      time.Now,
	}
}

// Create crea una orden en borrador con número SO-<año>-<consecutivo> y snapshot de producto por línea.
func (uc *SalesOrderUseCase) Create(ctx context.Context, tenantID, userID string, in dto.CreateSalesOrderRequest) (*dto.SalesOrderResponse, error) {
	if err := validateHeader(in); err != nil {
		return nil, err
	}
	now := uc.now()
	so := &entity.SalesOrder{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		CustomerID:    in.CustomerID,
		Status:        entity.SalesOrderStatusDraft,
		OrderDate:     now,
		RequiredDate:  in.RequiredDate,
		ShipToName:    in.ShipToName,
		ShipToAddress: in.ShipToAddress,
		Tax:           in.Tax,
		Shipping:      in.Shipping,
		Notes:         in.Notes,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.OrderDate != nil {
		so.OrderDate = *in.OrderDate
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := checkCustomer(ctx, repos, tenantID, in.CustomerID); err != nil {
			return err
		}
		lines, err := buildLines(ctx, repos, tenantID, in.Lines)
		if err != nil {
			return err
		}
		if err := so.ReplaceLines(lines); err != nil {
			return err
		}
		number, err := repository.NextDocumentNumber(ctx, repos.Sequences, tenantID, repository.SequenceSalesOrder, now)
		if err != nil {
			return err
		}
		so.OrderNumber = number
		return repos.SalesOrders.Create(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	uc.logTransition(so, "", userID)
	return dto.FromSalesOrder(so), nil
}

// Update reemplaza cabecera y líneas de un borrador.
func (uc *SalesOrderUseCase) Update(ctx context.Context, tenantID, userID, id string, in dto.CreateSalesOrderRequest) (*dto.SalesOrderResponse, error) {
	if err := validateHeader(in); err != nil {
		return nil, err
	}
	var so *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		so, err = loadSalesOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := so.Edit(); err != nil {
			return err
		}
		if in.CustomerID != so.CustomerID {
			if err := checkCustomer(ctx, repos, tenantID, in.CustomerID); err != nil {
				return err
			}
			so.CustomerID = in.CustomerID
		}
		lines, err := buildLines(ctx, repos, tenantID, in.Lines)
		if err != nil {
			return err
		}
		if in.OrderDate != nil {
			so.OrderDate = *in.OrderDate
		}
		so.RequiredDate = in.RequiredDate
		so.ShipToName = in.ShipToName
		so.ShipToAddress = in.ShipToAddress
		so.Tax = in.Tax
		so.Shipping = in.Shipping
		so.Notes = in.Notes
		so.UpdatedAt = uc.now()
		if err := so.ReplaceLines(lines); err != nil {
			return err
		}
		return repos.SalesOrders.Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	return dto.FromSalesOrder(so), nil
}

// Delete elimina un borrador.
func (uc *SalesOrderUseCase) Delete(ctx context.Context, tenantID, userID, id string) error {
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		so, err := loadSalesOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := so.CanDelete(); err != nil {
			return err
		}
		return repos.SalesOrders.Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("sales_order_id", id).Str("user_id", userID).Msg("orden de venta eliminada")
	return nil
}

// Submit Draft -> Submitted.
func (uc *SalesOrderUseCase) Submit(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.Submit(now)
	})
}

// Confirm Submitted -> Confirmed.
func (uc *SalesOrderUseCase) Confirm(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.Confirm(now)
	})
}

// QueueForPicking Confirmed -> AwaitingPickup.
func (uc *SalesOrderUseCase) QueueForPicking(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.QueueForPicking(now)
	})
}

// StartPicking Confirmed/AwaitingPickup -> Picking.
func (uc *SalesOrderUseCase) StartPicking(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.StartPicking(now)
	})
}

// CompletePicking registra las cantidades preparadas y pasa a Picked.
func (uc *SalesOrderUseCase) CompletePicking(ctx context.Context, tenantID, userID, id string, in dto.CompletePickingRequest) (*dto.SalesOrderResponse, error) {
	if len(in.Lines) == 0 {
		return nil, domain.Validation("At least one line must have a picked quantity")
	}
	picks := make(map[string]entity.PickInput, len(in.Lines))
	for _, l := range in.Lines {
		if _, dup := picks[l.LineID]; dup {
			return nil, domain.Validation("Line %s appears more than once", l.LineID)
		}
		picks[l.LineID] = entity.PickInput{Quantity: l.QuantityPicked, Location: l.Location}
	}
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.CompletePicking(picks, userID, now)
	})
}

// StartPacking Picked -> Packing.
func (uc *SalesOrderUseCase) StartPacking(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.StartPacking(now)
	})
}

// CompletePacking Packing -> Packed.
func (uc *SalesOrderUseCase) CompletePacking(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.CompletePacking(now)
	})
}

// Ship Packed -> Shipped. Registra una salida de stock por cada línea preparada; si alguna
// falla (p. ej. stock insuficiente) no se escribe ninguna y la orden sigue Packed.
func (uc *SalesOrderUseCase) Ship(ctx context.Context, tenantID, userID, id string, in dto.ShipOrderRequest) (*dto.SalesOrderResponse, error) {
	var (
		so        *entity.SalesOrder
		from      entity.SalesOrderStatus
		movements []*entity.StockMovement
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		so, err = loadSalesOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := so.CheckShippable(); err != nil {
			return err
		}
		from = so.Status
		movements = movements[:0]
		for _, l := range so.Lines {
			if !l.QuantityPicked.IsPositive() {
				continue
			}
			mov, err := uc.ledger.Record(ctx, repos, inventory.MovementInput{
				TenantID:     tenantID,
				UserID:       userID,
				ProductID:    l.ProductID,
				Type:         entity.MovementTypeStockOut,
				Quantity:     l.QuantityPicked,
				Reason:       fmt.Sprintf("Shipment of %s to %s", so.OrderNumber, so.ShipToName),
				Reference:    so.OrderNumber,
				FromLocation: l.Location,
			})
			if err != nil {
				return err
			}
			movements = append(movements, mov)
		}
		if err := so.MarkShipped(in.Carrier, in.TrackingNumber, uc.now()); err != nil {
			return err
		}
		return repos.SalesOrders.Update(ctx, so)
	})
	if err != nil {
		uc.log.Warn().
			Err(err).
			Str("tenant_id", tenantID).
			Str("sales_order_id", id).
			Str("user_id", userID).
			Msg("no se pudo despachar la orden de venta")
		return nil, err
	}
	uc.ledger.Published(movements...)
	uc.logTransition(so, from, userID)
	return dto.FromSalesOrder(so), nil
}

// MarkDelivered Shipped -> Delivered.
func (uc *SalesOrderUseCase) MarkDelivered(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.MarkDelivered(now)
	})
}

// Cancel cancela la orden con motivo obligatorio.
func (uc *SalesOrderUseCase) Cancel(ctx context.Context, tenantID, userID, id string, in dto.ReasonRequest) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.Cancel(in.Reason, now)
	})
}

// Hold retiene la orden con motivo obligatorio.
func (uc *SalesOrderUseCase) Hold(ctx context.Context, tenantID, userID, id string, in dto.ReasonRequest) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.Hold(in.Reason, now)
	})
}

// Release OnHold -> Confirmed.
func (uc *SalesOrderUseCase) Release(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error) {
	return uc.transition(ctx, tenantID, userID, id, func(so *entity.SalesOrder, now time.Time) error {
		return so.Release(now)
	})
}

// Get obtiene una orden con sus líneas.
func (uc *SalesOrderUseCase) Get(ctx context.Context, tenantID, id string) (*dto.SalesOrderResponse, error) {
	var so *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		so, err = repos.SalesOrders.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.NotFound("Sales order %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.FromSalesOrder(so), nil
}

// List lista órdenes del tenant, opcionalmente por estado.
func (uc *SalesOrderUseCase) List(ctx context.Context, tenantID, status string, page dto.PageRequest) ([]*dto.SalesOrderResponse, error) {
	page.DefaultPage()
	st := entity.SalesOrderStatus(status)
	if status != "" && !st.IsValid() {
		return nil, domain.Validation("Unknown sales order status %q", status)
	}
	var list []*entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		list, err = repos.SalesOrders.List(ctx, tenantID, st, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SalesOrderResponse, 0, len(list))
	for _, so := range list {
		out = append(out, dto.FromSalesOrder(so))
	}
	return out, nil
}

func (uc *SalesOrderUseCase) transition(ctx context.Context, tenantID, userID, id string, apply func(*entity.SalesOrder, time.Time) error) (*dto.SalesOrderResponse, error) {
	var so *entity.SalesOrder
	var from entity.SalesOrderStatus
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		so, err = loadSalesOrder(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		from = so.Status
		if err := apply(so, uc.now()); err != nil {
			return err
		}
		return repos.SalesOrders.Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	uc.logTransition(so, from, userID)
	return dto.FromSalesOrder(so), nil
}

func (uc *SalesOrderUseCase) logTransition(so *entity.SalesOrder, from entity.SalesOrderStatus, userID string) {
	uc.metrics.Transition(aggregateSalesOrder, so.Status.String())
	uc.log.Info().
		Str("tenant_id", so.TenantID).
		Str("sales_order_id", so.ID).
		Str("order_number", so.OrderNumber).
		Str("from", from.String()).
		Str("to", so.Status.String()).
		Str("user_id", userID).
		Msg("orden de venta actualizada")
}

func validateHeader(in dto.CreateSalesOrderRequest) error {
	if in.CustomerID == "" {
		return domain.Validation("Customer is required")
	}
	if len(in.Lines) == 0 {
		return domain.Validation("Sales order must have at least one line")
	}
	if in.Tax.IsNegative() || in.Shipping.IsNegative() {
		return domain.Validation("Tax and shipping cannot be negative")
	}
	return nil
}

func loadSalesOrder(ctx context.Context, repos ports.Repositories, tenantID, id string) (*entity.SalesOrder, error) {
	so, err := repos.SalesOrders.GetForUpdate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, domain.NotFound("Sales order %s not found", id)
	}
	return so, nil
}

func checkCustomer(ctx context.Context, repos ports.Repositories, tenantID, customerID string) error {
	customer, err := repos.Companies.GetByID(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.NotFound("Customer %s not found", customerID)
	}
	if !customer.IsCustomer {
		return domain.Validation("Company %s is not a customer", customer.Name)
	}
	return nil
}

func buildLines(ctx context.Context, repos ports.Repositories, tenantID string, in []dto.SalesOrderLineRequest) ([]*entity.SalesOrderLine, error) {
	lines := make([]*entity.SalesOrderLine, 0, len(in))
	for _, l := range in {
		if l.ProductID == "" {
			return nil, domain.Validation("Product is required on every line")
		}
		product, err := repos.Products.GetByID(ctx, tenantID, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NotFound("Product %s not found", l.ProductID)
		}
		line, err := entity.NewSalesOrderLine(product, l.Quantity, l.UnitPrice, l.DiscountPercent)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
