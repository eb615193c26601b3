package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus estado del flujo de preparación y despacho.
type SalesOrderStatus string

const (
	SalesOrderStatusDraft          SalesOrderStatus = "DRAFT"
	SalesOrderStatusSubmitted      SalesOrderStatus = "SUBMITTED"
	SalesOrderStatusConfirmed      SalesOrderStatus = "CONFIRMED"
	SalesOrderStatusAwaitingPickup SalesOrderStatus = "AWAITING_PICKUP"
	SalesOrderStatusPicking        SalesOrderStatus = "PICKING"
	SalesOrderStatusPicked         SalesOrderStatus = "PICKED"
	SalesOrderStatusPacking        SalesOrderStatus = "PACKING"
	SalesOrderStatusPacked         SalesOrderStatus = "PACKED"
	SalesOrderStatusShipped        SalesOrderStatus = "SHIPPED"
	SalesOrderStatusDelivered      SalesOrderStatus = "DELIVERED"
	SalesOrderStatusCancelled      SalesOrderStatus = "CANCELLED"
	SalesOrderStatusOnHold         SalesOrderStatus = "ON_HOLD"
)

// salesOrderTransitions tabla de aristas legales. Cancelled y OnHold son alcanzables desde
// cualquier estado no terminal salvo Shipped/Delivered; OnHold solo sale hacia Confirmed o Cancelled.
var salesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderStatusDraft:          {SalesOrderStatusSubmitted, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusSubmitted:      {SalesOrderStatusConfirmed, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusConfirmed:      {SalesOrderStatusAwaitingPickup, SalesOrderStatusPicking, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusAwaitingPickup: {SalesOrderStatusPicking, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusPicking:        {SalesOrderStatusPicked, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusPicked:         {SalesOrderStatusPacking, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusPacking:        {SalesOrderStatusPacked, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusPacked:         {SalesOrderStatusShipped, SalesOrderStatusCancelled, SalesOrderStatusOnHold},
	SalesOrderStatusShipped:        {SalesOrderStatusDelivered},
	SalesOrderStatusDelivered:      {},
	SalesOrderStatusCancelled:      {},
	SalesOrderStatusOnHold:         {SalesOrderStatusConfirmed, SalesOrderStatusCancelled},
}

// IsValid indica si el estado pertenece al conjunto cerrado.
func (s SalesOrderStatus) IsValid() bool {
	_, ok := salesOrderTransitions[s]
	return ok
}

func (s SalesOrderStatus) String() string { return string(s) }

// CanTransitionTo consulta la tabla de transiciones.
func (s SalesOrderStatus) CanTransitionTo(target SalesOrderStatus) bool {
	for _, t := range salesOrderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal Delivered y Cancelled no admiten más transiciones.
func (s SalesOrderStatus) IsTerminal() bool {
	return len(salesOrderTransitions[s]) == 0
}

// SalesOrderLine línea de venta con snapshot del producto.
// Outstanding = Ordered - Picked durante la preparación y Ordered - Shipped una vez despachada.
type SalesOrderLine struct {
	ID                  string
	SalesOrderID        string
	ProductID           string
	ProductName         string
	ProductSKU          string
	QuantityOrdered     decimal.Decimal
	QuantityPicked      decimal.Decimal
	QuantityShipped     decimal.Decimal
	QuantityOutstanding decimal.Decimal
	UnitPrice           decimal.Decimal
	DiscountPercent     decimal.Decimal
	LineTotal           decimal.Decimal
	Status              SalesOrderStatus
	PickedBy            string
	PickedAt            *time.Time
	Location            string
}

// NewSalesOrderLine valida y construye una línea en borrador.
func NewSalesOrderLine(product *Product, quantity, unitPrice, discountPercent decimal.Decimal) (*SalesOrderLine, error) {
	if product == nil {
		return nil, domain.Validation("Product is required on every line")
	}
	if !quantity.IsPositive() {
		return nil, domain.Validation("Quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return nil, domain.Validation("Unit price cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.Validation("Discount percent must be between 0 and 100")
	}
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
	return &SalesOrderLine{
		ID:                  uuid.New().String(),
		ProductID:           product.ID,
		ProductName:         product.Name,
		ProductSKU:          product.SKU,
		QuantityOrdered:     quantity,
		QuantityPicked:      decimal.Zero,
		QuantityShipped:     decimal.Zero,
		QuantityOutstanding: quantity,
		UnitPrice:           unitPrice,
		DiscountPercent:     discountPercent,
		LineTotal:           quantity.Mul(unitPrice).Mul(factor).Round(2),
		Status:              SalesOrderStatusDraft,
	}, nil
}

// PickInput cantidad preparada para una línea.
type PickInput struct {
	Quantity decimal.Decimal
	Location string
}

// SalesOrder agregado de venta, acotado por tenant.
type SalesOrder struct {
	ID                 string
	TenantID           string
	CustomerID         string
	OrderNumber        string
	Status             SalesOrderStatus
	OrderDate          time.Time
	RequiredDate       *time.Time
	ShipToName         string
	ShipToAddress      string
	Subtotal           decimal.Decimal
	Tax                decimal.Decimal
	Shipping           decimal.Decimal
	Total              decimal.Decimal
	Notes              string
	Carrier            string
	TrackingNumber     string
	HoldReason         string
	CancellationReason string
	SubmittedAt        *time.Time
	ConfirmedAt        *time.Time
	PickingStartedAt   *time.Time
	PickedAt           *time.Time
	PackedAt           *time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int
	Lines              []*SalesOrderLine
}

// ReplaceLines sustituye las líneas completas (solo en borrador) y recalcula totales.
func (so *SalesOrder) ReplaceLines(lines []*SalesOrderLine) error {
	if len(lines) == 0 {
		return domain.Validation("Sales order must have at least one line")
	}
	for _, l := range lines {
		l.SalesOrderID = so.ID
		l.Status = so.Status
	}
	so.Lines = lines
	so.RecalculateTotals()
	return nil
}

// RecalculateTotals Subtotal = Σ totales de línea (con descuento); Total = Subtotal + Tax + Shipping.
func (so *SalesOrder) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, l := range so.Lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	so.Subtotal = subtotal
	so.Total = subtotal.Add(so.Tax).Add(so.Shipping)
}

// Line devuelve la línea con el ID dado o nil.
func (so *SalesOrder) Line(lineID string) *SalesOrderLine {
	for _, l := range so.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// Edit valida que la orden siga en borrador.
func (so *SalesOrder) Edit() error {
	if so.Status != SalesOrderStatusDraft {
		return domain.InvalidState("Only draft orders can be edited")
	}
	return nil
}

// CanDelete solo los borradores se pueden eliminar.
func (so *SalesOrder) CanDelete() error {
	if so.Status != SalesOrderStatusDraft {
		return domain.InvalidState("Only draft orders can be deleted")
	}
	return nil
}

// Submit Draft -> Submitted.
func (so *SalesOrder) Submit(now time.Time) error {
	if err := so.transition(SalesOrderStatusSubmitted, now, "Only draft orders can be submitted"); err != nil {
		return err
	}
	so.SubmittedAt = &now
	return nil
}

// Confirm Submitted -> Confirmed.
func (so *SalesOrder) Confirm(now time.Time) error {
	if so.Status != SalesOrderStatusSubmitted {
		return domain.InvalidState("Only submitted orders can be confirmed")
	}
	so.setStatus(SalesOrderStatusConfirmed, now)
	so.ConfirmedAt = &now
	return nil
}

// QueueForPicking Confirmed -> AwaitingPickup.
func (so *SalesOrder) QueueForPicking(now time.Time) error {
	if so.Status != SalesOrderStatusConfirmed {
		return domain.InvalidState("Only confirmed orders can be queued for picking")
	}
	so.setStatus(SalesOrderStatusAwaitingPickup, now)
	return nil
}

// StartPicking Confirmed/AwaitingPickup -> Picking.
func (so *SalesOrder) StartPicking(now time.Time) error {
	if err := so.transition(SalesOrderStatusPicking, now, "Order must be confirmed before picking can start"); err != nil {
		return err
	}
	so.PickingStartedAt = &now
	return nil
}

// CompletePicking registra las cantidades preparadas por línea y pasa Picking -> Picked.
// Ninguna línea puede superar su cantidad ordenada. Cada llamada reemplaza el picking completo:
// las líneas no informadas quedan en cero aunque un picking anterior las hubiera preparado.
func (so *SalesOrder) CompletePicking(picks map[string]PickInput, userID string, now time.Time) error {
	if so.Status != SalesOrderStatusPicking {
		return domain.InvalidState("Order must be in picking before picking can be completed")
	}
	for lineID := range picks {
		if so.Line(lineID) == nil {
			return domain.NotFound("Sales order line %s not found", lineID)
		}
	}
	total := decimal.Zero
	for _, l := range so.Lines {
		p, ok := picks[l.ID]
		if !ok {
			continue
		}
		if p.Quantity.IsNegative() {
			return domain.Validation("Picked quantity cannot be negative")
		}
		if p.Quantity.GreaterThan(l.QuantityOrdered) {
			return domain.Validation("Picked quantity %s exceeds ordered quantity %s for product %s", p.Quantity, l.QuantityOrdered, l.ProductSKU)
		}
		total = total.Add(p.Quantity)
	}
	if !total.IsPositive() {
		return domain.Validation("At least one line must have a picked quantity")
	}
	for _, l := range so.Lines {
		p, ok := picks[l.ID]
		if !ok {
			// Un picking anterior (hold y release) no debe sobrevivir a este.
			l.QuantityPicked = decimal.Zero
			l.QuantityOutstanding = l.QuantityOrdered
			l.PickedBy = ""
			l.PickedAt = nil
			continue
		}
		l.QuantityPicked = p.Quantity
		l.QuantityOutstanding = l.QuantityOrdered.Sub(p.Quantity)
		l.PickedBy = userID
		l.PickedAt = &now
		if p.Location != "" {
			l.Location = p.Location
		}
	}
	so.setStatus(SalesOrderStatusPicked, now)
	so.PickedAt = &now
	return nil
}

// StartPacking Picked -> Packing.
func (so *SalesOrder) StartPacking(now time.Time) error {
	return so.transition(SalesOrderStatusPacking, now, "Order must be picked before packing")
}

// CompletePacking Packing -> Packed.
func (so *SalesOrder) CompletePacking(now time.Time) error {
	if err := so.transition(SalesOrderStatusPacked, now, "Order must be in packing before it can be packed"); err != nil {
		return err
	}
	so.PackedAt = &now
	return nil
}

// CheckShippable la orden debe estar empacada antes de despachar.
func (so *SalesOrder) CheckShippable() error {
	if so.Status != SalesOrderStatusPacked {
		return domain.InvalidState("Order must be packed before shipping")
	}
	return nil
}

// MarkShipped Packed -> Shipped. Llamar solo después de registrar las salidas de stock.
func (so *SalesOrder) MarkShipped(carrier, trackingNumber string, now time.Time) error {
	if err := so.CheckShippable(); err != nil {
		return err
	}
	for _, l := range so.Lines {
		l.QuantityShipped = l.QuantityPicked
		l.QuantityOutstanding = l.QuantityOrdered.Sub(l.QuantityShipped)
	}
	so.Carrier = carrier
	so.TrackingNumber = trackingNumber
	so.setStatus(SalesOrderStatusShipped, now)
	so.ShippedAt = &now
	return nil
}

// MarkDelivered Shipped -> Delivered.
func (so *SalesOrder) MarkDelivered(now time.Time) error {
	if err := so.transition(SalesOrderStatusDelivered, now, "Order must be shipped before it can be delivered"); err != nil {
		return err
	}
	so.DeliveredAt = &now
	return nil
}

// Cancel exige motivo; no aplica a órdenes despachadas o entregadas.
func (so *SalesOrder) Cancel(reason string, now time.Time) error {
	if reason == "" {
		return domain.Validation("Cancellation reason is required")
	}
	if so.Status == SalesOrderStatusShipped || so.Status == SalesOrderStatusDelivered {
		return domain.InvalidState("Shipped or delivered orders cannot be cancelled")
	}
	if err := so.transition(SalesOrderStatusCancelled, now, "Order cannot be cancelled from status "+so.Status.String()); err != nil {
		return err
	}
	so.CancellationReason = reason
	so.CancelledAt = &now
	return nil
}

// Hold pone la orden en espera con motivo obligatorio.
func (so *SalesOrder) Hold(reason string, now time.Time) error {
	if reason == "" {
		return domain.Validation("Hold reason is required")
	}
	if err := so.transition(SalesOrderStatusOnHold, now, "Order cannot be put on hold from status "+so.Status.String()); err != nil {
		return err
	}
	so.HoldReason = reason
	return nil
}

// Release OnHold -> Confirmed.
func (so *SalesOrder) Release(now time.Time) error {
	if so.Status != SalesOrderStatusOnHold {
		return domain.InvalidState("Only orders on hold can be released")
	}
	so.setStatus(SalesOrderStatusConfirmed, now)
	so.HoldReason = ""
	return nil
}

func (so *SalesOrder) transition(target SalesOrderStatus, now time.Time, msg string) error {
	if !so.Status.CanTransitionTo(target) {
		return domain.InvalidState("%s", msg)
	}
	so.setStatus(target, now)
	return nil
}

// setStatus cambia el estado del agregado y lo replica en cada línea.
func (so *SalesOrder) setStatus(s SalesOrderStatus, now time.Time) {
	so.Status = s
	so.UpdatedAt = now
	for _, l := range so.Lines {
		l.Status = s
	}
}
