package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de un tenant.
// El catálogo vive fuera del motor de inventario: aquí solo se leen los campos que el motor usa.
// CurrentStock cambia únicamente a través del libro de movimientos (StockMovement);
// CostPerUnit es costo promedio ponderado recalculado al recibir mercancía.
type Product struct {
	ID           string
	TenantID     string
	SKU          string
	Name         string
	CurrentStock decimal.Decimal
	CostPerUnit  decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
