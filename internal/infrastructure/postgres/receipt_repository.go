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

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo persiste recepciones de mercancía y sus líneas.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador de recepciones.
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

const receiptColumns = `id, tenant_id, purchase_order_id, receipt_number, status, received_date, received_by,
	has_variances, variance_notes, notes, validated_by, validated_at, rejection_reason, rejected_at,
	completed_at, created_at, updated_at, version`

const receiptLineColumns = `id, receipt_id, position, purchase_order_line_id, product_id, quantity_ordered,
	quantity_expected, quantity_received, quantity_variance, unit_price_ordered, unit_price_received,
	price_variance, condition, damage_notes, location, batch_number, expiry_date, has_variance`

// Create inserta la recepción con Version = 1 y sus líneas.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	query := `INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1)`
	_, err := r.q.Exec(ctx, query,
		rc.ID, rc.TenantID, rc.PurchaseOrderID, rc.ReceiptNumber, string(rc.Status), rc.ReceivedDate, rc.ReceivedBy,
		rc.HasVariances, nullIfEmpty(rc.VarianceNotes), nullIfEmpty(rc.Notes), nullIfEmpty(rc.ValidatedBy),
		nullTime(rc.ValidatedAt), nullIfEmpty(rc.RejectionReason), nullTime(rc.RejectedAt), nullTime(rc.CompletedAt),
		rc.CreatedAt, rc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt: %w", err)
	}
	rc.Version = 1
	return r.saveLines(ctx, rc)
}

func (r *ReceiptRepo) saveLines(ctx context.Context, rc *entity.Receipt) error {
	b := &pgx.Batch{}
	ids := make([]string, 0, len(rc.Lines))
	for i, l := range rc.Lines {
		ids = append(ids, l.ID)
		b.Queue(`INSERT INTO receipt_lines (`+receiptLineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position, quantity_received = EXCLUDED.quantity_received,
				quantity_variance = EXCLUDED.quantity_variance, unit_price_received = EXCLUDED.unit_price_received,
				price_variance = EXCLUDED.price_variance, condition = EXCLUDED.condition,
				damage_notes = EXCLUDED.damage_notes, location = EXCLUDED.location,
				batch_number = EXCLUDED.batch_number, expiry_date = EXCLUDED.expiry_date,
				has_variance = EXCLUDED.has_variance`,
			l.ID, rc.ID, i, l.PurchaseOrderLineID, l.ProductID, l.QuantityOrdered,
			l.QuantityExpected, l.QuantityReceived, l.QuantityVariance, l.UnitPriceOrdered, nullDecimal(l.UnitPriceReceived),
			l.PriceVariance, string(l.Condition), nullIfEmpty(l.DamageNotes), nullIfEmpty(l.Location),
			nullIfEmpty(l.BatchNumber), nullTime(l.ExpiryDate), l.HasVariance,
		)
	}
	b.Queue(`DELETE FROM receipt_lines WHERE receipt_id = $1 AND NOT (id = ANY($2))`, rc.ID, ids)
	if err := execBatch(ctx, r.q, b); err != nil {
		return fmt.Errorf("save receipt lines: %w", err)
	}
	return nil
}

// GetByID obtiene la recepción con sus líneas; (nil, nil) si no existe en el tenant.
func (r *ReceiptRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Receipt, error) {
	return r.get(ctx, tenantID, id, false)
}

// GetForUpdate bloquea la recepción hasta el fin de la transacción.
func (r *ReceiptRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Receipt, error) {
	return r.get(ctx, tenantID, id, true)
}

func (r *ReceiptRepo) get(ctx context.Context, tenantID, id string, lock bool) (*entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE tenant_id = $1 AND id = $2` + forUpdate(lock)
	rc, err := scanReceipt(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.Receipt{rc}); err != nil {
		return nil, err
	}
	return rc, nil
}

// Update guarda el agregado si Version coincide; incrementa Version en rc.
func (r *ReceiptRepo) Update(ctx context.Context, rc *entity.Receipt) error {
	query := `
		UPDATE receipts SET
			status = $4, received_date = $5, has_variances = $6, variance_notes = $7, notes = $8,
			validated_by = $9, validated_at = $10, rejection_reason = $11, rejected_at = $12,
			completed_at = $13, updated_at = $14, version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND version = $3`
	tag, err := r.q.Exec(ctx, query,
		rc.TenantID, rc.ID, rc.Version,
		string(rc.Status), rc.ReceivedDate, rc.HasVariances, nullIfEmpty(rc.VarianceNotes), nullIfEmpty(rc.Notes),
		nullIfEmpty(rc.ValidatedBy), nullTime(rc.ValidatedAt), nullIfEmpty(rc.RejectionReason), nullTime(rc.RejectedAt),
		nullTime(rc.CompletedAt), rc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("Receipt %s was modified by another process", rc.ReceiptNumber)
	}
	rc.Version++
	return r.saveLines(ctx, rc)
}

// Delete borra la recepción y sus líneas.
func (r *ReceiptRepo) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM receipts WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

// List recepciones del tenant, más recientes primero; status vacío = todas.
func (r *ReceiptRepo) List(ctx context.Context, tenantID string, status entity.ReceiptStatus, limit, offset int) ([]*entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, receipt_number DESC
		LIMIT $3 OFFSET $4`
	return r.list(ctx, query, tenantID, string(status), limitArg(limit), offset)
}

// ListByPurchaseOrder todas las recepciones de una orden, más recientes primero.
func (r *ReceiptRepo) ListByPurchaseOrder(ctx context.Context, tenantID, purchaseOrderID string) ([]*entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts
		WHERE tenant_id = $1 AND purchase_order_id = $2
		ORDER BY created_at DESC, receipt_number DESC`
	return r.list(ctx, query, tenantID, purchaseOrderID)
}

func (r *ReceiptRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Receipt, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	rows.Close()
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReceiptRepo) loadLines(ctx context.Context, receipts []*entity.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Receipt, len(receipts))
	ids := make([]string, 0, len(receipts))
	for _, rc := range receipts {
		byID[rc.ID] = rc
		ids = append(ids, rc.ID)
	}
	query := `SELECT ` + receiptLineColumns + ` FROM receipt_lines
		WHERE receipt_id = ANY($1) ORDER BY receipt_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list receipt lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l                            entity.ReceiptLine
			position                     int
			condition                    string
			damageNotes, location, batch *string
		)
		if err := rows.Scan(
			&l.ID, &l.ReceiptID, &position, &l.PurchaseOrderLineID, &l.ProductID, &l.QuantityOrdered,
			&l.QuantityExpected, &l.QuantityReceived, &l.QuantityVariance, &l.UnitPriceOrdered, &l.UnitPriceReceived,
			&l.PriceVariance, &condition, &damageNotes, &location, &batch, &l.ExpiryDate, &l.HasVariance,
		); err != nil {
			return fmt.Errorf("scan receipt line: %w", err)
		}
		l.Condition = entity.ItemCondition(condition)
		l.DamageNotes, l.Location, l.BatchNumber = deref(damageNotes), deref(location), deref(batch)
		rc := byID[l.ReceiptID]
		rc.Lines = append(rc.Lines, &l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate receipt lines: %w", err)
	}
	return nil
}

func scanReceipt(row pgx.Row) (*entity.Receipt, error) {
	var (
		rc                                     entity.Receipt
		status                                 string
		varianceNotes, notes, validatedBy, rej *string
	)
	err := row.Scan(
		&rc.ID, &rc.TenantID, &rc.PurchaseOrderID, &rc.ReceiptNumber, &status, &rc.ReceivedDate, &rc.ReceivedBy,
		&rc.HasVariances, &varianceNotes, &notes, &validatedBy, &rc.ValidatedAt, &rej, &rc.RejectedAt,
		&rc.CompletedAt, &rc.CreatedAt, &rc.UpdatedAt, &rc.Version,
	)
	if err != nil {
		return nil, err
	}
	rc.Status = entity.ReceiptStatus(status)
	rc.VarianceNotes, rc.Notes = deref(varianceNotes), deref(notes)
	rc.ValidatedBy, rc.RejectionReason = deref(validatedBy), deref(rej)
	return &rc, nil
}
