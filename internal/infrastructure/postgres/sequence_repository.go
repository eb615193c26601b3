package postgres

import (
	"context"
	"fmt"

	"github.com/seppevistik/stockmanager/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo consecutivos por (tenant, documento, año). El upsert bloquea la fila hasta el fin de la tx.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador de consecutivos.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next reserva el siguiente valor (empieza en 1).
func (r *SequenceRepo) Next(ctx context.Context, tenantID, document string, year int) (int64, error) {
	query := `
		INSERT INTO document_sequences (tenant_id, document, year, last_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, document, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, tenantID, document, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", document, err)
	}
	return n, nil
}
