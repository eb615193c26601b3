package repository

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

// SalesOrderRepository persiste el agregado de venta (cabecera + líneas).
type SalesOrderRepository interface {
	Create(ctx context.Context, so *entity.SalesOrder) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error)
	Update(ctx context.Context, so *entity.SalesOrder) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, status entity.SalesOrderStatus, limit, offset int) ([]*entity.SalesOrder, error)
}
