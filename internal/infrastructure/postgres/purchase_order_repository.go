package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo persiste cabecera y líneas de órdenes de compra.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador de órdenes de compra.
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const purchaseOrderColumns = `id, tenant_id, supplier_id, order_number, status, order_date, expected_delivery_date,
	confirmed_delivery_date, subtotal, tax, shipping, total, notes, cancellation_reason, submitted_at,
	confirmed_at, completed_at, cancelled_at, created_by, created_at, updated_at, version`

const purchaseOrderLineColumns = `id, purchase_order_id, position, product_id, quantity_ordered, unit_price,
	line_total, quantity_received, quantity_outstanding, status, notes`

// Create inserta la orden con Version = 1 y sus líneas.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `INSERT INTO purchase_orders (` + purchaseOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 1)`
	_, err := r.q.Exec(ctx, query,
		po.ID, po.TenantID, po.SupplierID, po.OrderNumber, string(po.Status), po.OrderDate,
		nullTime(po.ExpectedDeliveryDate), nullTime(po.ConfirmedDeliveryDate),
		po.Subtotal, po.Tax, po.Shipping, po.Total, nullIfEmpty(po.Notes), nullIfEmpty(po.CancellationReason),
		nullTime(po.SubmittedAt), nullTime(po.ConfirmedAt), nullTime(po.CompletedAt), nullTime(po.CancelledAt),
		po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	po.Version = 1
	return r.saveLines(ctx, po)
}

// saveLines upsert de las líneas actuales y borrado de las que ya no están.
func (r *PurchaseOrderRepo) saveLines(ctx context.Context, po *entity.PurchaseOrder) error {
	b := &pgx.Batch{}
	ids := make([]string, 0, len(po.Lines))
	for i, l := range po.Lines {
		ids = append(ids, l.ID)
		b.Queue(`INSERT INTO purchase_order_lines (`+purchaseOrderLineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position, product_id = EXCLUDED.product_id,
				quantity_ordered = EXCLUDED.quantity_ordered, unit_price = EXCLUDED.unit_price,
				line_total = EXCLUDED.line_total, quantity_received = EXCLUDED.quantity_received,
				quantity_outstanding = EXCLUDED.quantity_outstanding, status = EXCLUDED.status,
				notes = EXCLUDED.notes`,
			l.ID, po.ID, i, l.ProductID, l.QuantityOrdered, l.UnitPrice, l.LineTotal,
			l.QuantityReceived, l.QuantityOutstanding, string(l.Status), nullIfEmpty(l.Notes),
		)
	}
	b.Queue(`DELETE FROM purchase_order_lines WHERE purchase_order_id = $1 AND NOT (id = ANY($2))`, po.ID, ids)
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("save purchase order lines: %w", err)
	}
	return nil
}

// GetByID obtiene la orden con sus líneas; (nil, nil) si no existe en el tenant.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, tenantID, id, false)
}

// GetForUpdate bloquea la cabecera hasta el fin de la transacción.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, tenantID, id, true)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, tenantID, id string, lock bool) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE tenant_id = $1 AND id = $2` + forUpdate(lock)
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.PurchaseOrder{po}); err != nil {
		return nil, err
	}
	return po, nil
}

// Update guarda el agregado si Version coincide; incrementa Version en po.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders SET
			supplier_id = $4, status = $5, order_date = $6, expected_delivery_date = $7, confirmed_delivery_date = $8,
			subtotal = $9, tax = $10, shipping = $11, total = $12, notes = $13, cancellation_reason = $14,
			submitted_at = $15, confirmed_at = $16, completed_at = $17, cancelled_at = $18, updated_at = $19,
			version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND version = $3`
	tag, err := r.q.Exec(ctx, query,
		po.TenantID, po.ID, po.Version,
		po.SupplierID, string(po.Status), po.OrderDate, nullTime(po.ExpectedDeliveryDate), nullTime(po.ConfirmedDeliveryDate),
		po.Subtotal, po.Tax, po.Shipping, po.Total, nullIfEmpty(po.Notes), nullIfEmpty(po.CancellationReason),
		nullTime(po.SubmittedAt), nullTime(po.ConfirmedAt), nullTime(po.CompletedAt), nullTime(po.CancelledAt), po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("Purchase order %s was modified by another process", po.OrderNumber)
	}
	po.Version++
	return r.saveLines(ctx, po)
}

// Delete borra la orden; las líneas caen por ON DELETE CASCADE.
func (r *PurchaseOrderRepo) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_orders WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	return nil
}

// List órdenes del tenant, más recientes primero; status vacío = todas.
func (r *PurchaseOrderRepo) List(ctx context.Context, tenantID string, status entity.PurchaseOrderStatus, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, order_number DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, tenantID, string(status), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase orders: %w", err)
	}
	rows.Close()
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadLines carga las líneas de varias órdenes en una sola consulta.
func (r *PurchaseOrderRepo) loadLines(ctx context.Context, orders []*entity.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.PurchaseOrder, len(orders))
	ids := make([]string, 0, len(orders))
	for _, po := range orders {
		byID[po.ID] = po
		ids = append(ids, po.ID)
	}
	query := `SELECT ` + purchaseOrderLineColumns + ` FROM purchase_order_lines
		WHERE purchase_order_id = ANY($1) ORDER BY purchase_order_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l        entity.PurchaseOrderLine
			position int
			status   string
			notes    *string
		)
		if err := rows.Scan(
			&l.ID, &l.PurchaseOrderID, &position, &l.ProductID, &l.QuantityOrdered, &l.UnitPrice,
			&l.LineTotal, &l.QuantityReceived, &l.QuantityOutstanding, &status, &notes,
		); err != nil {
			return fmt.Errorf("scan purchase order line: %w", err)
		}
		l.Status = entity.PurchaseOrderLineStatus(status)
		l.Notes = deref(notes)
		po := byID[l.PurchaseOrderID]
		po.Lines = append(po.Lines, &l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate purchase order lines: %w", err)
	}
	return nil
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var (
		po                  entity.PurchaseOrder
		status              string
		notes, cancellation *string
	)
	err := row.Scan(
		&po.ID, &po.TenantID, &po.SupplierID, &po.OrderNumber, &status, &po.OrderDate,
		&po.ExpectedDeliveryDate, &po.ConfirmedDeliveryDate, &po.Subtotal, &po.Tax, &po.Shipping, &po.Total,
		&notes, &cancellation, &po.SubmittedAt, &po.ConfirmedAt, &po.CompletedAt, &po.CancelledAt,
		&po.CreatedBy, &po.CreatedAt, &po.UpdatedAt, &po.Version,
	)
	if err != nil {
		return nil, err
	}
	po.Status = entity.PurchaseOrderStatus(status)
	po.Notes, po.CancellationReason = deref(notes), deref(cancellation)
	return &po, nil
}
