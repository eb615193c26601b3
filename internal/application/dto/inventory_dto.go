package dto

import (
	"time"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements (ajustes y movimientos manuales).
type RegisterMovementRequest struct {
	ProductID    string          `json:"product_id"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"` // con signo solo en STOCK_ADJUSTMENT
	Reason       string          `json:"reason"`
	Notes        string          `json:"notes,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	FromLocation string          `json:"from_location,omitempty"`
	ToLocation   string          `json:"to_location,omitempty"`
}

// StockMovementResponse entrada del libro de inventario.
type StockMovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reason        string          `json:"reason"`
	Notes         string          `json:"notes,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	FromLocation  string          `json:"from_location,omitempty"`
	ToLocation    string          `json:"to_location,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FromStockMovement mapea la entidad al read model.
func FromStockMovement(m *entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Type:          m.Type.String(),
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		Notes:         m.Notes,
		Reference:     m.Reference,
		FromLocation:  m.FromLocation,
		ToLocation:    m.ToLocation,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// FromStockMovements mapea una lista de movimientos.
func FromStockMovements(list []*entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromStockMovement(m))
	}
	return out
}
