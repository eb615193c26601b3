package repository

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

// StockMovementRepository libro de inventario de solo inserción: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, tenantID, productID string, limit, offset int) ([]*entity.StockMovement, error)
	ListByReference(ctx context.Context, tenantID, reference string) ([]*entity.StockMovement, error)
}
