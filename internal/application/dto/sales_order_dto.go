package dto

import (
	"time"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SalesOrderLineRequest línea en creación/edición de una orden de venta.
type SalesOrderLineRequest struct {
	ProductID       string          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// CreateSalesOrderRequest body para POST /api/sales-orders y PUT /api/sales-orders/:id.
type CreateSalesOrderRequest struct {
	CustomerID    string                  `json:"customer_id"`
	OrderDate     *time.Time              `json:"order_date,omitempty"`
	RequiredDate  *time.Time              `json:"required_date,omitempty"`
	ShipToName    string                  `json:"ship_to_name"`
	ShipToAddress string                  `json:"ship_to_address,omitempty"`
	Tax           decimal.Decimal         `json:"tax"`
	Shipping      decimal.Decimal         `json:"shipping"`
	Notes         string                  `json:"notes,omitempty"`
	Lines         []SalesOrderLineRequest `json:"lines"`
}

// PickLineRequest cantidad preparada de una línea.
type PickLineRequest struct {
	LineID         string          `json:"line_id"`
	QuantityPicked decimal.Decimal `json:"quantity_picked"`
	Location       string          `json:"location,omitempty"`
}

// CompletePickingRequest body para POST /api/sales-orders/:id/complete-picking.
type CompletePickingRequest struct {
	Lines []PickLineRequest `json:"lines"`
}

// ShipOrderRequest body para POST /api/sales-orders/:id/ship.
type ShipOrderRequest struct {
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// SalesOrderLineResponse read model de una línea de venta.
type SalesOrderLineResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	ProductSKU          string          `json:"product_sku"`
	QuantityOrdered     decimal.Decimal `json:"quantity_ordered"`
	QuantityPicked      decimal.Decimal `json:"quantity_picked"`
	QuantityShipped     decimal.Decimal `json:"quantity_shipped"`
	QuantityOutstanding decimal.Decimal `json:"quantity_outstanding"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	LineTotal           decimal.Decimal `json:"line_total"`
	Status              string          `json:"status"`
	PickedBy            string          `json:"picked_by,omitempty"`
	PickedAt            *time.Time      `json:"picked_at,omitempty"`
	Location            string          `json:"location,omitempty"`
}

// SalesOrderResponse read model de la orden de venta.
type SalesOrderResponse struct {
	ID                 string                   `json:"id"`
	CustomerID         string                   `json:"customer_id"`
	OrderNumber        string                   `json:"order_number"`
	Status             string                   `json:"status"`
	OrderDate          time.Time                `json:"order_date"`
	RequiredDate       *time.Time               `json:"required_date,omitempty"`
	ShipToName         string                   `json:"ship_to_name"`
	ShipToAddress      string                   `json:"ship_to_address,omitempty"`
	Subtotal           decimal.Decimal          `json:"subtotal"`
	Tax                decimal.Decimal          `json:"tax"`
	Shipping           decimal.Decimal          `json:"shipping"`
	Total              decimal.Decimal          `json:"total"`
	Notes              string                   `json:"notes,omitempty"`
	Carrier            string                   `json:"carrier,omitempty"`
	TrackingNumber     string                   `json:"tracking_number,omitempty"`
	HoldReason         string                   `json:"hold_reason,omitempty"`
	CancellationReason string                   `json:"cancellation_reason,omitempty"`
	ShippedAt          *time.Time               `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time               `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	CreatedBy          string                   `json:"created_by"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
	Lines              []SalesOrderLineResponse `json:"lines"`
}

// FromSalesOrder mapea el agregado al read model.
func FromSalesOrder(so *entity.SalesOrder) *SalesOrderResponse {
	out := &SalesOrderResponse{
		ID:                 so.ID,
		CustomerID:         so.CustomerID,
		OrderNumber:        so.OrderNumber,
		Status:             so.Status.String(),
		OrderDate:          so.OrderDate,
		RequiredDate:       so.RequiredDate,
		ShipToName:         so.ShipToName,
		ShipToAddress:      so.ShipToAddress,
		Subtotal:           so.Subtotal,
		Tax:                so.Tax,
		Shipping:           so.Shipping,
		Total:              so.Total,
		Notes:              so.Notes,
		Carrier:            so.Carrier,
		TrackingNumber:     so.TrackingNumber,
		HoldReason:         so.HoldReason,
		CancellationReason: so.CancellationReason,
		ShippedAt:          so.ShippedAt,
		DeliveredAt:        so.DeliveredAt,
		CancelledAt:        so.CancelledAt,
		CreatedBy:          so.CreatedBy,
		CreatedAt:          so.CreatedAt,
		UpdatedAt:          so.UpdatedAt,
		Lines:              make([]SalesOrderLineResponse, 0, len(so.Lines)),
	}
	for _, l := range so.Lines {
		out.Lines = append(out.Lines, SalesOrderLineResponse{
			ID:                  l.ID,
			ProductID:           l.ProductID,
			ProductName:         l.ProductName,
			ProductSKU:          l.ProductSKU,
			QuantityOrdered:     l.QuantityOrdered,
			QuantityPicked:      l.QuantityPicked,
			QuantityShipped:     l.QuantityShipped,
			QuantityOutstanding: l.QuantityOutstanding,
			UnitPrice:           l.UnitPrice,
			DiscountPercent:     l.DiscountPercent,
			LineTotal:           l.LineTotal,
			Status:              l.Status.String(),
			PickedBy:            l.PickedBy,
			PickedAt:            l.PickedAt,
			Location:            l.Location,
		})
	}
	return out
}
