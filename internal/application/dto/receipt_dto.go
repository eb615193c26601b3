package dto

import (
	"time"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReceiptLineRequest línea recibida contra una línea de la orden de compra.
type ReceiptLineRequest struct {
	PurchaseOrderLineID string           `json:"purchase_order_line_id"`
	QuantityReceived    decimal.Decimal  `json:"quantity_received"`
	UnitPriceReceived   *decimal.Decimal `json:"unit_price_received,omitempty"`
	Condition           string           `json:"condition,omitempty"` // GOOD por defecto
	DamageNotes         string           `json:"damage_notes,omitempty"`
	Location            string           `json:"location,omitempty"`
	BatchNumber         string           `json:"batch_number,omitempty"`
	ExpiryDate          *time.Time       `json:"expiry_date,omitempty"`
}

// CreateReceiptRequest body para POST /api/receipts.
type CreateReceiptRequest struct {
	PurchaseOrderID string               `json:"purchase_order_id"`
	ReceivedDate    *time.Time           `json:"received_date,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Lines           []ReceiptLineRequest `json:"lines"`
}

// ApproveReceiptRequest body para POST /api/receipts/:id/approve.
type ApproveReceiptRequest struct {
	VarianceNotes string `json:"variance_notes,omitempty"`
}

// ReceiptLineResponse read model de una línea recibida.
type ReceiptLineResponse struct {
	ID                  string           `json:"id"`
	PurchaseOrderLineID string           `json:"purchase_order_line_id"`
	ProductID           string           `json:"product_id"`
	QuantityOrdered     decimal.Decimal  `json:"quantity_ordered"`
	QuantityExpected    decimal.Decimal  `json:"quantity_expected"`
	QuantityReceived    decimal.Decimal  `json:"quantity_received"`
	QuantityVariance    decimal.Decimal  `json:"quantity_variance"`
	UnitPriceOrdered    decimal.Decimal  `json:"unit_price_ordered"`
	UnitPriceReceived   *decimal.Decimal `json:"unit_price_received,omitempty"`
	PriceVariance       decimal.Decimal  `json:"price_variance"`
	Condition           string           `json:"condition"`
	DamageNotes         string           `json:"damage_notes,omitempty"`
	Location            string           `json:"location,omitempty"`
	BatchNumber         string           `json:"batch_number,omitempty"`
	ExpiryDate          *time.Time       `json:"expiry_date,omitempty"`
	HasVariance         bool             `json:"has_variance"`
}

// ReceiptResponse read model de la recepción.
type ReceiptResponse struct {
	ID              string                `json:"id"`
	PurchaseOrderID string                `json:"purchase_order_id"`
	ReceiptNumber   string                `json:"receipt_number"`
	Status          string                `json:"status"`
	ReceivedDate    time.Time             `json:"received_date"`
	ReceivedBy      string                `json:"received_by"`
	HasVariances    bool                  `json:"has_variances"`
	VarianceNotes   string                `json:"variance_notes,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	ValidatedBy     string                `json:"validated_by,omitempty"`
	ValidatedAt     *time.Time            `json:"validated_at,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Lines           []ReceiptLineResponse `json:"lines"`
}

// FromReceipt mapea el agregado al read model.
func FromReceipt(r *entity.Receipt) *ReceiptResponse {
	out := &ReceiptResponse{
		ID:              r.ID,
		PurchaseOrderID: r.PurchaseOrderID,
		ReceiptNumber:   r.ReceiptNumber,
		Status:          r.Status.String(),
		ReceivedDate:    r.ReceivedDate,
		ReceivedBy:      r.ReceivedBy,
		HasVariances:    r.HasVariances,
		VarianceNotes:   r.VarianceNotes,
		Notes:           r.Notes,
		ValidatedBy:     r.ValidatedBy,
		ValidatedAt:     r.ValidatedAt,
		RejectionReason: r.RejectionReason,
		CompletedAt:     r.CompletedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Lines:           make([]ReceiptLineResponse, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, ReceiptLineResponse{
			ID:                  l.ID,
			PurchaseOrderLineID: l.PurchaseOrderLineID,
			ProductID:           l.ProductID,
			QuantityOrdered:     l.QuantityOrdered,
			QuantityExpected:    l.QuantityExpected,
			QuantityReceived:    l.QuantityReceived,
			QuantityVariance:    l.QuantityVariance,
			UnitPriceOrdered:    l.UnitPriceOrdered,
			UnitPriceReceived:   l.UnitPriceReceived,
			PriceVariance:       l.PriceVariance,
			Condition:           string(l.Condition),
			DamageNotes:         l.DamageNotes,
			Location:            l.Location,
			BatchNumber:         l.BatchNumber,
			ExpiryDate:          l.ExpiryDate,
			HasVariance:         l.HasVariance,
		})
	}
	return out
}
