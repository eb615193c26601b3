package repository

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

// PurchaseOrderRepository persiste el agregado completo (cabecera + líneas).
// Update compara Version (token optimista) y la incrementa; si no coincide devuelve domain.ErrConflict.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error)
	Update(ctx context.Context, po *entity.PurchaseOrder) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, status entity.PurchaseOrderStatus, limit, offset int) ([]*entity.PurchaseOrder, error)
}
