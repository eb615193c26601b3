package dto

import (
	"time"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PurchaseOrderLineRequest línea en creación/edición de una orden de compra.
type PurchaseOrderLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes,omitempty"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders y PUT /api/purchase-orders/:id.
type CreatePurchaseOrderRequest struct {
	SupplierID           string                     `json:"supplier_id"`
	OrderDate            *time.Time                 `json:"order_date,omitempty"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date,omitempty"`
	Tax                  decimal.Decimal            `json:"tax"`
	Shipping             decimal.Decimal            `json:"shipping"`
	Notes                string                     `json:"notes,omitempty"`
	Lines                []PurchaseOrderLineRequest `json:"lines"`
}

// ConfirmPurchaseOrderRequest body para POST /api/purchase-orders/:id/confirm.
type ConfirmPurchaseOrderRequest struct {
	ConfirmedDeliveryDate *time.Time `json:"confirmed_delivery_date,omitempty"`
}

// ReasonRequest body genérico con motivo obligatorio (cancelar, rechazar, retener).
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// PurchaseOrderLineResponse read model de una línea.
type PurchaseOrderLineResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	QuantityOrdered     decimal.Decimal `json:"quantity_ordered"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
	QuantityReceived    decimal.Decimal `json:"quantity_received"`
	QuantityOutstanding decimal.Decimal `json:"quantity_outstanding"`
	Status              string          `json:"status"`
	Notes               string          `json:"notes,omitempty"`
}

// PurchaseOrderResponse read model de la orden de compra.
type PurchaseOrderResponse struct {
	ID                    string                      `json:"id"`
	SupplierID            string                      `json:"supplier_id"`
	OrderNumber           string                      `json:"order_number"`
	Status                string                      `json:"status"`
	OrderDate             time.Time                   `json:"order_date"`
	ExpectedDeliveryDate  *time.Time                  `json:"expected_delivery_date,omitempty"`
	ConfirmedDeliveryDate *time.Time                  `json:"confirmed_delivery_date,omitempty"`
	Subtotal              decimal.Decimal             `json:"subtotal"`
	Tax                   decimal.Decimal             `json:"tax"`
	Shipping              decimal.Decimal             `json:"shipping"`
	Total                 decimal.Decimal             `json:"total"`
	Notes                 string                      `json:"notes,omitempty"`
	CancellationReason    string                      `json:"cancellation_reason,omitempty"`
	SubmittedAt           *time.Time                  `json:"submitted_at,omitempty"`
	ConfirmedAt           *time.Time                  `json:"confirmed_at,omitempty"`
	CompletedAt           *time.Time                  `json:"completed_at,omitempty"`
	CancelledAt           *time.Time                  `json:"cancelled_at,omitempty"`
	CreatedBy             string                      `json:"created_by"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
	Lines                 []PurchaseOrderLineResponse `json:"lines"`
}

// FromPurchaseOrder mapea el agregado al read model.
func FromPurchaseOrder(po *entity.PurchaseOrder) *PurchaseOrderResponse {
	out := &PurchaseOrderResponse{
		ID:                    po.ID,
		SupplierID:            po.SupplierID,
		OrderNumber:           po.OrderNumber,
		Status:                po.Status.String(),
		OrderDate:             po.OrderDate,
		ExpectedDeliveryDate:  po.ExpectedDeliveryDate,
		ConfirmedDeliveryDate: po.ConfirmedDeliveryDate,
		Subtotal:              po.Subtotal,
		Tax:                   po.Tax,
		Shipping:              po.Shipping,
		Total:                 po.Total,
		Notes:                 po.Notes,
		CancellationReason:    po.CancellationReason,
		SubmittedAt:           po.SubmittedAt,
		ConfirmedAt:           po.ConfirmedAt,
		CompletedAt:           po.CompletedAt,
		CancelledAt:           po.CancelledAt,
		CreatedBy:             po.CreatedBy,
		CreatedAt:             po.CreatedAt,
		UpdatedAt:             po.UpdatedAt,
		Lines:                 make([]PurchaseOrderLineResponse, 0, len(po.Lines)),
	}
	for _, l := range po.Lines {
		out.Lines = append(out.Lines, PurchaseOrderLineResponse{
			ID:                  l.ID,
			ProductID:           l.ProductID,
			QuantityOrdered:     l.QuantityOrdered,
			UnitPrice:           l.UnitPrice,
			LineTotal:           l.LineTotal,
			QuantityReceived:    l.QuantityReceived,
			QuantityOutstanding: l.QuantityOutstanding,
			Status:              string(l.Status),
			Notes:               l.Notes,
		})
	}
	return out
}
