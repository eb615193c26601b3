package repository

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository puerto hacia el catálogo de productos (colaborador externo).
// Todas las consultas van acotadas por tenant; un producto de otro tenant no existe (nil, nil).
type ProductRepository interface {
	// Create alta en catálogo; SKU único por tenant (domain.ErrDuplicate).
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la unidad de trabajo.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error)
	// UpdateStock actualización condicional: solo aplica si el stock actual sigue siendo previous.
	UpdateStock(ctx context.Context, tenantID, id string, previous, next decimal.Decimal) error
	UpdateCost(ctx context.Context, tenantID, id string, cost decimal.Decimal) error
}
