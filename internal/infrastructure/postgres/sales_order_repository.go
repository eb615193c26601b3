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

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo persiste órdenes de venta y sus líneas.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador de órdenes de venta.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

const salesOrderColumns = `id, tenant_id, customer_id, order_number, status, order_date, required_date,
	ship_to_name, ship_to_address, subtotal, tax, shipping, total, notes, carrier, tracking_number,
	hold_reason, cancellation_reason, submitted_at, confirmed_at, picking_started_at, picked_at,
	packed_at, shipped_at, delivered_at, cancelled_at, created_by, created_at, updated_at, version`

const salesOrderLineColumns = `id, sales_order_id, position, product_id, product_name, product_sku,
	quantity_ordered, quantity_picked, quantity_shipped, quantity_outstanding, unit_price,
	discount_percent, line_total, status, picked_by, picked_at, location`

// Create inserta la orden con Version = 1 y sus líneas.
func (r *SalesOrderRepo) Create(ctx context.Context, so *entity.SalesOrder) error {
	query := `INSERT INTO sales_orders (` + salesOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, 1)`
	args := append([]any{so.ID, so.TenantID, so.CustomerID, so.OrderNumber}, salesOrderValues(so)...)
	args = append(args, so.CreatedBy, so.CreatedAt, so.UpdatedAt)
	_, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sales order: %w", err)
	}
	so.Version = 1
	return r.saveLines(ctx, so)
}

// salesOrderValues columnas mutables desde status hasta cancelled_at, en el orden de salesOrderColumns.
func salesOrderValues(so *entity.SalesOrder) []any {
	return []any{
		string(so.Status), so.OrderDate, nullTime(so.RequiredDate), nullIfEmpty(so.ShipToName), nullIfEmpty(so.ShipToAddress),
		so.Subtotal, so.Tax, so.Shipping, so.Total, nullIfEmpty(so.Notes), nullIfEmpty(so.Carrier),
		nullIfEmpty(so.TrackingNumber), nullIfEmpty(so.HoldReason), nullIfEmpty(so.CancellationReason),
		nullTime(so.SubmittedAt), nullTime(so.ConfirmedAt), nullTime(so.PickingStartedAt), nullTime(so.PickedAt),
		nullTime(so.PackedAt), nullTime(so.ShippedAt), nullTime(so.DeliveredAt), nullTime(so.CancelledAt),
	}
}

func (r *SalesOrderRepo) saveLines(ctx context.Context, so *entity.SalesOrder) error {
	b := &pgx.Batch{}
	ids := make([]string, 0, len(so.Lines))
	for i, l := range so.Lines {
		ids = append(ids, l.ID)
		b.Queue(`INSERT INTO sales_order_lines (`+salesOrderLineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position, quantity_ordered = EXCLUDED.quantity_ordered,
				quantity_picked = EXCLUDED.quantity_picked, quantity_shipped = EXCLUDED.quantity_shipped,
				quantity_outstanding = EXCLUDED.quantity_outstanding, unit_price = EXCLUDED.unit_price,
				discount_percent = EXCLUDED.discount_percent, line_total = EXCLUDED.line_total,
				status = EXCLUDED.status, picked_by = EXCLUDED.picked_by, picked_at = EXCLUDED.picked_at,
				location = EXCLUDED.location`,
			l.ID, so.ID, i, l.ProductID, l.ProductName, l.ProductSKU,
			l.QuantityOrdered, l.QuantityPicked, l.QuantityShipped, l.QuantityOutstanding, l.UnitPrice,
			l.DiscountPercent, l.LineTotal, string(l.Status), nullIfEmpty(l.PickedBy), nullTime(l.PickedAt),
			nullIfEmpty(l.Location),
		)
	}
	b.Queue(`DELETE FROM sales_order_lines WHERE sales_order_id = $1 AND NOT (id = ANY($2))`, so.ID, ids)
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("save sales order lines: %w", err)
	}
	return nil
}

// GetByID obtiene la orden con sus líneas; (nil, nil) si no existe en el tenant.
func (r *SalesOrderRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, tenantID, id, false)
}

// GetForUpdate bloquea la orden hasta el fin de la transacción.
func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, tenantID, id, true)
}

func (r *SalesOrderRepo) get(ctx context.Context, tenantID, id string, lock bool) (*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE tenant_id = $1 AND id = $2` + forUpdate(lock)
	so, err := scanSalesOrder(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.SalesOrder{so}); err != nil {
		return nil, err
	}
	return so, nil
}

// Update guarda el agregado si Version coincide; incrementa Version en so.
func (r *SalesOrderRepo) Update(ctx context.Context, so *entity.SalesOrder) error {
	query := `
		UPDATE sales_orders SET
			customer_id = $4, status = $5, order_date = $6, required_date = $7, ship_to_name = $8,
			ship_to_address = $9, subtotal = $10, tax = $11, shipping = $12, total = $13, notes = $14,
			carrier = $15, tracking_number = $16, hold_reason = $17, cancellation_reason = $18,
			submitted_at = $19, confirmed_at = $20, picking_started_at = $21, picked_at = $22,
			packed_at = $23, shipped_at = $24, delivered_at = $25, cancelled_at = $26,
			updated_at = $27, version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND version = $3`
	args := append([]any{so.TenantID, so.ID, so.Version, so.CustomerID}, salesOrderValues(so)...)
	args = append(args, so.UpdatedAt)
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update sales order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("Sales order %s was modified by another process", so.OrderNumber)
	}
	so.Version++
	return r.saveLines(ctx, so)
}

// Delete borra la orden y sus líneas.
func (r *SalesOrderRepo) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sales_orders WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("delete sales order: %w", err)
	}
	return nil
}

// List órdenes del tenant, más recientes primero; status vacío = todas.
func (r *SalesOrderRepo) List(ctx context.Context, tenantID string, status entity.SalesOrderStatus, limit, offset int) ([]*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, order_number DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, tenantID, string(status), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrder
	for rows.Next() {
		so, err := scanSalesOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		list = append(list, so)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales orders: %w", err)
	}
	rows.Close()
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *SalesOrderRepo) loadLines(ctx context.Context, orders []*entity.SalesOrder) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.SalesOrder, len(orders))
	ids := make([]string, 0, len(orders))
	for _, so := range orders {
		byID[so.ID] = so
		ids = append(ids, so.ID)
	}
	query := `SELECT ` + salesOrderLineColumns + ` FROM sales_order_lines
		WHERE sales_order_id = ANY($1) ORDER BY sales_order_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list sales order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l                  entity.SalesOrderLine
			position           int
			status             string
			pickedBy, location *string
		)
		if err := rows.Scan(
			&l.ID, &l.SalesOrderID, &position, &l.ProductID, &l.ProductName, &l.ProductSKU,
			&l.QuantityOrdered, &l.QuantityPicked, &l.QuantityShipped, &l.QuantityOutstanding, &l.UnitPrice,
			&l.DiscountPercent, &l.LineTotal, &status, &pickedBy, &l.PickedAt, &location,
		); err != nil {
			return fmt.Errorf("scan sales order line: %w", err)
		}
		l.Status = entity.SalesOrderStatus(status)
		l.PickedBy, l.Location = deref(pickedBy), deref(location)
		so := byID[l.SalesOrderID]
		so.Lines = append(so.Lines, &l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sales order lines: %w", err)
	}
	return nil
}

func scanSalesOrder(row pgx.Row) (*entity.SalesOrder, error) {
	var (
		so                                 entity.SalesOrder
		status                             string
		shipName, shipAddr, notes, carrier *string
		tracking, holdReason, cancellation *string
	)
	err := row.Scan(
		&so.ID, &so.TenantID, &so.CustomerID, &so.OrderNumber, &status, &so.OrderDate, &so.RequiredDate,
		&shipName, &shipAddr, &so.Subtotal, &so.Tax, &so.Shipping, &so.Total, &notes, &carrier, &tracking,
		&holdReason, &cancellation, &so.SubmittedAt, &so.ConfirmedAt, &so.PickingStartedAt, &so.PickedAt,
		&so.PackedAt, &so.ShippedAt, &so.DeliveredAt, &so.CancelledAt, &so.CreatedBy, &so.CreatedAt,
		&so.UpdatedAt, &so.Version,
	)
	if err != nil {
		return nil, err
	}
	so.Status = entity.SalesOrderStatus(status)
	so.ShipToName, so.ShipToAddress, so.Notes = deref(shipName), deref(shipAddr), deref(notes)
	so.Carrier, so.TrackingNumber = deref(carrier), deref(tracking)
	so.HoldReason, so.CancellationReason = deref(holdReason), deref(cancellation)
	return &so, nil
}
