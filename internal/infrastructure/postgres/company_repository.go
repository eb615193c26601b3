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

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo terceros (proveedores y clientes) por tenant.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de terceros. Pasar pool o tx.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste un tercero.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO companies (id, tenant_id, name, tax_id, email, is_supplier, is_customer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.TenantID, c.Name, nullIfEmpty(c.TaxID), nullIfEmpty(c.Email),
		c.IsSupplier, c.IsCustomer, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene un tercero del tenant; (nil, nil) si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Company, error) {
	query := `
		SELECT id, tenant_id, name, tax_id, email, is_supplier, is_customer, created_at, updated_at
		FROM companies WHERE tenant_id = $1 AND id = $2`
	var (
		c            entity.Company
		taxID, email *string
	)
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.Name, &taxID, &email, &c.IsSupplier, &c.IsCustomer, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c.TaxID, c.Email = deref(taxID), deref(email)
	return &c, nil
}
