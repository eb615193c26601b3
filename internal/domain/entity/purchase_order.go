package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus estado agregado de una orden de compra.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusSubmitted         PurchaseOrderStatus = "SUBMITTED"
	PurchaseOrderStatusConfirmed         PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusReceiving         PurchaseOrderStatus = "RECEIVING"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	PurchaseOrderStatusCompleted         PurchaseOrderStatus = "COMPLETED"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "CANCELLED"
)

// purchaseOrderTransitions tabla de transiciones legales. Completed y Cancelled son terminales.
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:             {PurchaseOrderStatusSubmitted, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusSubmitted:         {PurchaseOrderStatusConfirmed, PurchaseOrderStatusReceiving, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusConfirmed:         {PurchaseOrderStatusReceiving, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusReceiving:         {PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusCompleted},
	PurchaseOrderStatusPartiallyReceived: {PurchaseOrderStatusReceiving, PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusCompleted},
	PurchaseOrderStatusCompleted:         {},
	PurchaseOrderStatusCancelled:         {},
}

// IsValid indica si el estado pertenece al conjunto cerrado.
func (s PurchaseOrderStatus) IsValid() bool {
	_, ok := purchaseOrderTransitions[s]
	return ok
}

func (s PurchaseOrderStatus) String() string { return string(s) }

// CanTransitionTo consulta la tabla de transiciones.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, t := range purchaseOrderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CanReceive indica si se pueden crear recepciones contra la orden en este estado.
func (s PurchaseOrderStatus) CanReceive() bool {
	switch s {
	case PurchaseOrderStatusSubmitted, PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusReceiving, PurchaseOrderStatusPartiallyReceived:
		return true
	}
	return false
}

// PurchaseOrderLineStatus estado de recepción de una línea.
type PurchaseOrderLineStatus string

const (
	PurchaseOrderLineStatusPending           PurchaseOrderLineStatus = "PENDING"
	PurchaseOrderLineStatusPartiallyReceived PurchaseOrderLineStatus = "PARTIALLY_RECEIVED"
	PurchaseOrderLineStatusFullyReceived     PurchaseOrderLineStatus = "FULLY_RECEIVED"
	PurchaseOrderLineStatusCancelled         PurchaseOrderLineStatus = "CANCELLED"
	PurchaseOrderLineStatusShortShipped      PurchaseOrderLineStatus = "SHORT_SHIPPED"
)

// PurchaseOrderLine línea de la orden. Invariante: QuantityOutstanding = QuantityOrdered - QuantityReceived >= 0.
type PurchaseOrderLine struct {
	ID                  string
	PurchaseOrderID     string
	ProductID           string
	QuantityOrdered     decimal.Decimal
	UnitPrice           decimal.Decimal
	LineTotal           decimal.Decimal
	QuantityReceived    decimal.Decimal
	QuantityOutstanding decimal.Decimal
	Status              PurchaseOrderLineStatus
	Notes               string
}

// NewPurchaseOrderLine valida y construye una línea pendiente.
func NewPurchaseOrderLine(productID string, quantity, unitPrice decimal.Decimal, notes string) (*PurchaseOrderLine, error) {
	if productID == "" {
		return nil, domain.Validation("Product is required on every line")
	}
	if !quantity.IsPositive() {
		return nil, domain.Validation("Quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return nil, domain.Validation("Unit price cannot be negative")
	}
	return &PurchaseOrderLine{
		ID:                  uuid.New().String(),
		ProductID:           productID,
		QuantityOrdered:     quantity,
		UnitPrice:           unitPrice,
		LineTotal:           quantity.Mul(unitPrice).Round(2),
		QuantityReceived:    decimal.Zero,
		QuantityOutstanding: quantity,
		Status:              PurchaseOrderLineStatusPending,
		Notes:               notes,
	}, nil
}

// Receive acredita cantidad recibida. Rechaza sobre-recepción para mantener outstanding >= 0.
func (l *PurchaseOrderLine) Receive(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return domain.Validation("Received quantity cannot be negative")
	}
	if quantity.GreaterThan(l.QuantityOutstanding) {
		return domain.Invariant("Received quantity %s exceeds outstanding quantity %s", quantity, l.QuantityOutstanding)
	}
	l.QuantityReceived = l.QuantityReceived.Add(quantity)
	l.QuantityOutstanding = l.QuantityOrdered.Sub(l.QuantityReceived)
	switch {
	case !l.QuantityOutstanding.IsPositive():
		l.Status = PurchaseOrderLineStatusFullyReceived
	case l.QuantityReceived.IsPositive():
		l.Status = PurchaseOrderLineStatusPartiallyReceived
	}
	return nil
}

// Unreceive descuenta cantidad recibida al revertir una recepción y devuelve la línea a pendiente.
func (l *PurchaseOrderLine) Unreceive(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return domain.Validation("Reverted quantity cannot be negative")
	}
	if quantity.GreaterThan(l.QuantityReceived) {
		return domain.Invariant("Reverted quantity %s exceeds received quantity %s", quantity, l.QuantityReceived)
	}
	l.QuantityReceived = l.QuantityReceived.Sub(quantity)
	l.QuantityOutstanding = l.QuantityOrdered.Sub(l.QuantityReceived)
	if l.QuantityReceived.IsPositive() {
		l.Status = PurchaseOrderLineStatusPartiallyReceived
	} else {
		l.Status = PurchaseOrderLineStatusPending
	}
	return nil
}

// IsFullyReceived indica si no queda cantidad pendiente.
func (l *PurchaseOrderLine) IsFullyReceived() bool {
	return !l.QuantityOutstanding.IsPositive()
}

// PurchaseOrder agregado raíz de compras, acotado por tenant.
type PurchaseOrder struct {
	ID                    string
	TenantID              string
	SupplierID            string
	OrderNumber           string
	Status                PurchaseOrderStatus
	OrderDate             time.Time
	ExpectedDeliveryDate  *time.Time
	ConfirmedDeliveryDate *time.Time
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	Shipping              decimal.Decimal
	Total                 decimal.Decimal
	Notes                 string
	CancellationReason    string
	SubmittedAt           *time.Time
	ConfirmedAt           *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CreatedBy             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int
	Lines                 []*PurchaseOrderLine
}

// ReplaceLines sustituye las líneas completas (edición en borrador) y recalcula totales.
func (po *PurchaseOrder) ReplaceLines(lines []*PurchaseOrderLine) error {
	if len(lines) == 0 {
		return domain.Validation("Purchase order must have at least one line")
	}
	for _, l := range lines {
		l.PurchaseOrderID = po.ID
	}
	po.Lines = lines
	po.RecalculateTotals()
	return nil
}

// RecalculateTotals Subtotal = Σ(cantidad × precio); Total = Subtotal + Tax + Shipping.
func (po *PurchaseOrder) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, l := range po.Lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	po.Subtotal = subtotal
	po.Total = subtotal.Add(po.Tax).Add(po.Shipping)
}

// Line devuelve la línea con el ID dado o nil.
func (po *PurchaseOrder) Line(lineID string) *PurchaseOrderLine {
	for _, l := range po.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// HasReceivedItems indica si alguna línea ya tiene cantidad recibida.
func (po *PurchaseOrder) HasReceivedItems() bool {
	for _, l := range po.Lines {
		if l.QuantityReceived.IsPositive() {
			return true
		}
	}
	return false
}

// Edit valida que la orden siga en borrador antes de reemplazar cabecera o líneas.
func (po *PurchaseOrder) Edit() error {
	if po.Status != PurchaseOrderStatusDraft {
		return domain.InvalidState("Only draft purchase orders can be edited")
	}
	return nil
}

// CanDelete solo los borradores se pueden eliminar.
func (po *PurchaseOrder) CanDelete() error {
	if po.Status != PurchaseOrderStatusDraft {
		return domain.InvalidState("Only draft purchase orders can be deleted")
	}
	return nil
}

// Submit Draft -> Submitted.
func (po *PurchaseOrder) Submit(now time.Time) error {
	if po.Status != PurchaseOrderStatusDraft {
		return domain.InvalidState("Only draft purchase orders can be submitted")
	}
	po.setStatus(PurchaseOrderStatusSubmitted, now)
	po.SubmittedAt = &now
	return nil
}

// Confirm Submitted -> Confirmed, registra la fecha de entrega confirmada por el proveedor.
func (po *PurchaseOrder) Confirm(deliveryDate *time.Time, now time.Time) error {
	if po.Status != PurchaseOrderStatusSubmitted {
		return domain.InvalidState("Only submitted purchase orders can be confirmed")
	}
	po.setStatus(PurchaseOrderStatusConfirmed, now)
	po.ConfirmedAt = &now
	po.ConfirmedDeliveryDate = deliveryDate
	return nil
}

// Cancel exige motivo. Las cantidades recibidas bloquean la cancelación en cualquier estado.
func (po *PurchaseOrder) Cancel(reason string, now time.Time) error {
	if reason == "" {
		return domain.Validation("Cancellation reason is required")
	}
	if po.HasReceivedItems() {
		return domain.InvalidState("Cannot cancel purchase order with received items")
	}
	if po.Status == PurchaseOrderStatusCompleted {
		return domain.InvalidState("Completed purchase orders cannot be cancelled")
	}
	if !po.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return domain.InvalidState("Only draft, submitted or confirmed purchase orders can be cancelled")
	}
	po.setStatus(PurchaseOrderStatusCancelled, now)
	po.CancelledAt = &now
	po.CancellationReason = reason
	for _, l := range po.Lines {
		l.Status = PurchaseOrderLineStatusCancelled
	}
	return nil
}

// StartReceiving pasa Submitted/Confirmed -> Receiving al crear la primera recepción.
// Devuelve true si hubo cambio de estado.
func (po *PurchaseOrder) StartReceiving(now time.Time) bool {
	if po.Status != PurchaseOrderStatusSubmitted && po.Status != PurchaseOrderStatusConfirmed {
		return false
	}
	po.setStatus(PurchaseOrderStatusReceiving, now)
	return true
}

// RecomputeReceiptStatus recalcula el estado tras completar una recepción:
// Completed si todas las líneas están recibidas, PartiallyReceived si no.
func (po *PurchaseOrder) RecomputeReceiptStatus(now time.Time) error {
	target := PurchaseOrderStatusPartiallyReceived
	allReceived := true
	for _, l := range po.Lines {
		if !l.IsFullyReceived() {
			allReceived = false
			break
		}
	}
	if allReceived {
		target = PurchaseOrderStatusCompleted
	}
	if !po.Status.CanTransitionTo(target) {
		return domain.InvalidState("Purchase order in status %s cannot move to %s", po.Status, target)
	}
	po.setStatus(target, now)
	if target == PurchaseOrderStatusCompleted {
		po.CompletedAt = &now
	}
	return nil
}

// CheckRollbackAllowed una recepción solo se revierte mientras la orden sigue abierta a recepciones.
// Completed es terminal: revertir una de sus recepciones la obligaría a reabrirse.
func (po *PurchaseOrder) CheckRollbackAllowed() error {
	switch po.Status {
	case PurchaseOrderStatusReceiving, PurchaseOrderStatusPartiallyReceived:
		return nil
	case PurchaseOrderStatusCompleted:
		return domain.InvalidState("Cannot roll back a receipt of a completed purchase order")
	}
	return domain.InvalidState("Purchase order in status %s has no receipts to roll back", po.Status)
}

// RevertReceipt descuenta de cada línea lo que la recepción le acreditó y recalcula el estado:
// PartiallyReceived si queda algo recibido, Receiving si la orden vuelve a estar vacía.
func (po *PurchaseOrder) RevertReceipt(receipt *Receipt, now time.Time) error {
	if err := po.CheckRollbackAllowed(); err != nil {
		return err
	}
	for _, rl := range receipt.Lines {
		line := po.Line(rl.PurchaseOrderLineID)
		if line == nil {
			return domain.Invariant("Receipt line references unknown purchase order line %s", rl.PurchaseOrderLineID)
		}
		if err := line.Unreceive(rl.QuantityReceived); err != nil {
			return err
		}
	}
	target := PurchaseOrderStatusReceiving
	if po.HasReceivedItems() {
		target = PurchaseOrderStatusPartiallyReceived
	}
	if po.Status != target && !po.Status.CanTransitionTo(target) {
		return domain.InvalidState("Purchase order in status %s cannot move to %s", po.Status, target)
	}
	po.setStatus(target, now)
	return nil
}

func (po *PurchaseOrder) setStatus(s PurchaseOrderStatus, now time.Time) {
	po.Status = s
	po.UpdatedAt = now
}
