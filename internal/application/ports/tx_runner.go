package ports

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/repository"
)

// Repositories conjunto de repositorios atados a una misma unidad de trabajo.
type Repositories struct {
	Products       repository.ProductRepository
	Companies      repository.CompanyRepository
	Movements      repository.StockMovementRepository
	PurchaseOrders repository.PurchaseOrderRepository
	Receipts       repository.ReceiptRepository
	SalesOrders    repository.SalesOrderRepository
	Sequences      repository.SequenceRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio queda persistido; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
