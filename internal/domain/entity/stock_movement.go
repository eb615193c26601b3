package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

const (
	MovementTypeStockIn         MovementType = "STOCK_IN"
	MovementTypeStockOut        MovementType = "STOCK_OUT"
	MovementTypeStockAdjustment MovementType = "STOCK_ADJUSTMENT"
	// MovementTypeStockTransfer es un traslado en la misma ubicación: descuenta stock sin acreditar destino.
	MovementTypeStockTransfer MovementType = "STOCK_TRANSFER"
)

// IsValid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeStockIn, MovementTypeStockOut, MovementTypeStockAdjustment, MovementTypeStockTransfer:
		return true
	}
	return false
}

func (t MovementType) String() string { return string(t) }

// StockMovement es una entrada inmutable del libro de inventario.
// Quantity es magnitud positiva; solo STOCK_ADJUSTMENT admite signo.
// NewStock = PreviousStock ± Quantity según el tipo, y coincide con el stock del producto al escribirse.
type StockMovement struct {
	ID            string
	TenantID      string
	ProductID     string
	Type          MovementType
	Quantity      decimal.Decimal
	PreviousStock decimal.Decimal
	NewStock      decimal.Decimal
	Reason        string
	Notes         string
	Reference     string // número de recepción u orden que originó el movimiento
	FromLocation  string
	ToLocation    string
	CreatedBy     string
	CreatedAt     time.Time
}
