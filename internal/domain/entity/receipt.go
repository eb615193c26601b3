package entity

import (
	"time"

	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/shopspring/decimal"
)

// ReceiptStatus estado de una recepción de mercancía.
type ReceiptStatus string

const (
	ReceiptStatusInProgress        ReceiptStatus = "IN_PROGRESS"
	ReceiptStatusPendingValidation ReceiptStatus = "PENDING_VALIDATION"
	ReceiptStatusValidated         ReceiptStatus = "VALIDATED"
	ReceiptStatusCompleted         ReceiptStatus = "COMPLETED"
	ReceiptStatusRejected          ReceiptStatus = "REJECTED"
	ReceiptStatusRolledBack        ReceiptStatus = "ROLLED_BACK"
)

var receiptTransitions = map[ReceiptStatus][]ReceiptStatus{
	ReceiptStatusInProgress:        {ReceiptStatusPendingValidation, ReceiptStatusValidated},
	ReceiptStatusPendingValidation: {ReceiptStatusValidated, ReceiptStatusRejected},
	ReceiptStatusValidated:         {ReceiptStatusCompleted},
	ReceiptStatusCompleted:         {ReceiptStatusRolledBack},
	ReceiptStatusRejected:          {},
	ReceiptStatusRolledBack:        {},
}

// IsValid indica si el estado pertenece al conjunto cerrado.
func (s ReceiptStatus) IsValid() bool {
	_, ok := receiptTransitions[s]
	return ok
}

func (s ReceiptStatus) String() string { return string(s) }

// CanTransitionTo consulta la tabla de transiciones.
func (s ReceiptStatus) CanTransitionTo(target ReceiptStatus) bool {
	for _, t := range receiptTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ItemCondition condición física de la mercancía recibida.
type ItemCondition string

const (
	ItemConditionGood      ItemCondition = "GOOD"
	ItemConditionDamaged   ItemCondition = "DAMAGED"
	ItemConditionDefective ItemCondition = "DEFECTIVE"
)

// IsValid indica si la condición pertenece al conjunto cerrado.
func (c ItemCondition) IsValid() bool {
	switch c {
	case ItemConditionGood, ItemConditionDamaged, ItemConditionDefective:
		return true
	}
	return false
}

// ReceiptLine línea recibida contra una línea concreta de la orden de compra.
type ReceiptLine struct {
	ID                  string
	ReceiptID           string
	PurchaseOrderLineID string
	ProductID           string
	QuantityOrdered     decimal.Decimal // snapshot de la línea de la OC
	QuantityExpected    decimal.Decimal // pendiente de la línea de la OC al recibir
	QuantityReceived    decimal.Decimal
	QuantityVariance    decimal.Decimal // recibido - esperado
	UnitPriceOrdered    decimal.Decimal
	UnitPriceReceived   *decimal.Decimal
	PriceVariance       decimal.Decimal
	Condition           ItemCondition
	DamageNotes         string
	Location            string
	BatchNumber         string
	ExpiryDate          *time.Time
	HasVariance         bool
}

// EffectiveUnitPrice precio recibido si se informó, si no el ordenado.
func (l *ReceiptLine) EffectiveUnitPrice() decimal.Decimal {
	if l.UnitPriceReceived != nil {
		return *l.UnitPriceReceived
	}
	return l.UnitPriceOrdered
}

// AddsToStock solo la mercancía en buen estado entra al stock vendible.
func (l *ReceiptLine) AddsToStock() bool {
	return l.Condition == ItemConditionGood && l.QuantityReceived.IsPositive()
}

// Receipt recepción de mercancía contra exactamente una orden de compra.
type Receipt struct {
	ID              string
	TenantID        string
	PurchaseOrderID string
	ReceiptNumber   string
	Status          ReceiptStatus
	ReceivedDate    time.Time
	ReceivedBy      string
	HasVariances    bool
	VarianceNotes   string
	Notes           string
	ValidatedBy     string
	ValidatedAt     *time.Time
	RejectionReason string
	RejectedAt      *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
	Lines           []*ReceiptLine
}

// Approve PendingValidation -> Validated, sella validador, fecha y notas de varianza.
func (r *Receipt) Approve(userID, varianceNotes string, now time.Time) error {
	if r.Status != ReceiptStatusPendingValidation {
		return domain.InvalidState("Only receipts pending validation can be approved")
	}
	r.Status = ReceiptStatusValidated
	r.ValidatedBy = userID
	r.ValidatedAt = &now
	if varianceNotes != "" {
		r.VarianceNotes = varianceNotes
	}
	r.UpdatedAt = now
	return nil
}

// Reject PendingValidation -> Rejected. El motivo es obligatorio.
func (r *Receipt) Reject(userID, reason string, now time.Time) error {
	if reason == "" {
		return domain.Validation("Rejection reason is required")
	}
	if r.Status != ReceiptStatusPendingValidation {
		return domain.InvalidState("Only receipts pending validation can be rejected")
	}
	r.Status = ReceiptStatusRejected
	r.RejectionReason = reason
	r.ValidatedBy = userID
	r.RejectedAt = &now
	r.UpdatedAt = now
	return nil
}

// CheckCompletable solo las recepciones validadas pueden completarse.
func (r *Receipt) CheckCompletable() error {
	if r.Status != ReceiptStatusValidated {
		return domain.InvalidState("Only validated receipts can be completed")
	}
	return nil
}

// MarkCompleted Validated -> Completed. Llamar solo después de aplicar el inventario.
func (r *Receipt) MarkCompleted(now time.Time) error {
	if err := r.CheckCompletable(); err != nil {
		return err
	}
	r.Status = ReceiptStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// MarkRolledBack Completed -> RolledBack. Terminal: una recepción solo se revierte una vez.
func (r *Receipt) MarkRolledBack(now time.Time) error {
	if !r.Status.CanTransitionTo(ReceiptStatusRolledBack) {
		return domain.InvalidState("Only completed receipts can be rolled back")
	}
	r.Status = ReceiptStatusRolledBack
	r.UpdatedAt = now
	return nil
}

// CanDelete las recepciones completadas o revertidas forman parte del histórico y no se eliminan.
func (r *Receipt) CanDelete() error {
	switch r.Status {
	case ReceiptStatusCompleted:
		return domain.InvalidState("Completed receipts cannot be deleted")
	case ReceiptStatusRolledBack:
		return domain.InvalidState("Rolled back receipts cannot be deleted")
	}
	return nil
}
