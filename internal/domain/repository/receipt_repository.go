package repository

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

// ReceiptRepository persiste el agregado de recepción (cabecera + líneas).
type ReceiptRepository interface {
	Create(ctx context.Context, r *entity.Receipt) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Receipt, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Receipt, error)
	Update(ctx context.Context, r *entity.Receipt) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, status entity.ReceiptStatus, limit, offset int) ([]*entity.Receipt, error)
	ListByPurchaseOrder(ctx context.Context, tenantID, purchaseOrderID string) ([]*entity.Receipt, error)
}
