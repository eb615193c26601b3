package inventory

import (
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// NextStock calcula el stock resultante de aplicar un movimiento. Es determinista por tipo:
// IN suma, OUT y TRANSFER restan, ADJUSTMENT aplica la cantidad con signo.
// No escribe nada; devuelve error si el movimiento es inválido o dejaría stock negativo.
func NextStock(previous decimal.Decimal, movementType entity.MovementType, quantity decimal.Decimal) (decimal.Decimal, error) {
	var next decimal.Decimal
	switch movementType {
	case entity.MovementTypeStockIn:
		if !quantity.IsPositive() {
			return decimal.Zero, domain.Validation("Quantity must be greater than zero")
		}
		next = previous.Add(quantity)
	case entity.MovementTypeStockOut, entity.MovementTypeStockTransfer:
		if !quantity.IsPositive() {
			return decimal.Zero, domain.Validation("Quantity must be greater than zero")
		}
		next = previous.Sub(quantity)
	case entity.MovementTypeStockAdjustment:
		if quantity.IsZero() {
			return decimal.Zero, domain.Validation("Adjustment quantity cannot be zero")
		}
		next = previous.Add(quantity)
	default:
		return decimal.Zero, domain.Validation("Unknown movement type %q", movementType)
	}
	if next.IsNegative() {
		return decimal.Zero, domain.InsufficientStock("Insufficient stock: available %s, requested %s", previous, quantity.Abs())
	}
	return next, nil
}
