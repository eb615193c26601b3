package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/inventory"
	"github.com/seppevistik/stockmanager/pkg/logger"
	"github.com/shopspring/decimal"
)

// LedgerWriter es el único punto por el que cambia el stock de un producto.
// Cada movimiento bloquea la fila del producto, calcula el nuevo stock según el tipo,
// persiste el movimiento y el stock en la misma unidad de trabajo.
type LedgerWriter struct {
	txRunner ports.TxRunner
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewLedgerWriter construye el escritor del libro de inventario.
func NewLedgerWriter(txRunner ports.TxRunner, metrics ports.Metrics, log *logger.Logger) *LedgerWriter {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &LedgerWriter{
		txRunner: txRunner,
		metrics:  metrics,
		log:      log.Component("ledger"),
		now:      time.Now,
	}
}

// MovementInput datos de un movimiento. Quantity es positiva salvo en STOCK_ADJUSTMENT.
type MovementInput struct {
	TenantID     string
	UserID       string
	ProductID    string
	Type         entity.MovementType
	Quantity     decimal.Decimal
	Reason       string
	Notes        string
	Reference    string
	FromLocation string
	ToLocation   string
}

// Record escribe un movimiento usando los repositorios del caller (misma transacción).
// Si devuelve error no se escribió nada y el caller debe abortar su unidad de trabajo.
func (w *LedgerWriter) Record(ctx context.Context, repos ports.Repositories, in MovementInput) (*entity.StockMovement, error) {
	if in.TenantID == "" || in.ProductID == "" {
		return nil, domain.Validation("Tenant and product are required")
	}
	if !in.Type.IsValid() {
		return nil, domain.Validation("Unknown movement type %q", in.Type)
	}
	if in.Reason == "" {
		return nil, domain.Validation("Movement reason is required")
	}

	// Bloquea la fila del producto para que el stock previo sea consistente
	product, err := repos.Products.GetForUpdate(ctx, in.TenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("Product %s not found", in.ProductID)
	}

	previous := product.CurrentStock
	next, err := inventory.NextStock(previous, in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}

	// Actualización condicional sobre el stock previo: si otro proceso lo cambió, conflicto
	if err := repos.Products.UpdateStock(ctx, in.TenantID, in.ProductID, previous, next); err != nil {
		return nil, err
	}
	product.CurrentStock = next

	now := w.now()
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		TenantID:      in.TenantID,
		ProductID:     in.ProductID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		PreviousStock: previous,
		NewStock:      next,
		Reason:        in.Reason,
		Notes:         in.Notes,
		Reference:     in.Reference,
		FromLocation:  in.FromLocation,
		ToLocation:    in.ToLocation,
		CreatedBy:     in.UserID,
		CreatedAt:     now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// Published informa métricas y log de movimientos ya confirmados (después del Commit).
func (w *LedgerWriter) Published(movements ...*entity.StockMovement) {
	for _, m := range movements {
		w.metrics.MovementRecorded(m.Type.String(), m.Quantity)
		w.log.Info().
			Str("tenant_id", m.TenantID).
			Str("product_id", m.ProductID).
			Str("type", m.Type.String()).
			Str("quantity", m.Quantity.String()).
			Str("previous_stock", m.PreviousStock.String()).
			Str("new_stock", m.NewStock.String()).
			Str("reference", m.Reference).
			Str("user_id", m.CreatedBy).
			Msg("movimiento de inventario registrado")
	}
}

// RegisterMovement registra un movimiento manual en su propia transacción.
func (w *LedgerWriter) RegisterMovement(ctx context.Context, tenantID, userID string, in dto.RegisterMovementRequest) (*dto.StockMovementResponse, error) {
	input := MovementInput{
		TenantID:     tenantID,
		UserID:       userID,
		ProductID:    in.ProductID,
		Type:         entity.MovementType(in.Type),
		Quantity:     in.Quantity,
		Reason:       in.Reason,
		Notes:        in.Notes,
		Reference:    in.Reference,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
	}
	var mov *entity.StockMovement
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		mov, err = w.Record(ctx, repos, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.Published(mov)
	out := dto.FromStockMovement(mov)
	return &out, nil
}

// ListMovements lista el libro de un producto, más recientes primero.
func (w *LedgerWriter) ListMovements(ctx context.Context, tenantID, productID string, page dto.PageRequest) ([]dto.StockMovementResponse, error) {
	page.DefaultPage()
	var list []*entity.StockMovement
	err := w.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		product, err := repos.Products.GetByID(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NotFound("Product %s not found", productID)
		}
		list, err = repos.Movements.ListByProduct(ctx, tenantID, productID, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.FromStockMovements(list), nil
}
