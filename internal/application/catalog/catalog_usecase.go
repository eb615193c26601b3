// Package catalog alta y consulta de productos y terceros por tenant.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

// CatalogUseCase CRUD mínimo del catálogo. Stock y costo solo cambian después vía libro de inventario.
type CatalogUseCase struct {
	txRunner ports.TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(txRunner ports.TxRunner, log *logger.Logger) *CatalogUseCase {
	return &CatalogUseCase{txRunner: txRunner, log: log.Component("catalog"), now: time.Now}
}

// CreateProduct da de alta un producto; el SKU es único por tenant.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, tenantID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.Validation("SKU and name are required")
	}
	if in.InitialStock.IsNegative() || in.CostPerUnit.IsNegative() {
		return nil, domain.Validation("Initial stock and cost cannot be negative")
	}
	now := uc.now()
	p := &entity.Product{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		SKU:          in.SKU,
		Name:         in.Name,
		CurrentStock: in.InitialStock,
		CostPerUnit:  in.CostPerUnit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Products.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("product_id", p.ID).Str("sku", p.SKU).Msg("producto creado")
	return dto.FromProduct(p), nil
}

// GetProduct devuelve el producto del tenant.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, tenantID, id string) (*dto.ProductResponse, error) {
	var p *entity.Product
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		p, err = repos.Products.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFound("Product %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.FromProduct(p), nil
}

// CreateCompany da de alta un proveedor y/o cliente.
func (uc *CatalogUseCase) CreateCompany(ctx context.Context, tenantID string, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Validation("Company name is required")
	}
	if !in.IsSupplier && !in.IsCustomer {
		return nil, domain.Validation("Company must be a supplier, a customer or both")
	}
	now := uc.now()
	c := &entity.Company{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Name:       in.Name,
		TaxID:      in.TaxID,
		Email:      in.Email,
		IsSupplier: in.IsSupplier,
		IsCustomer: in.IsCustomer,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return repos.Companies.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("company_id", c.ID).Msg("tercero creado")
	return dto.FromCompany(c), nil
}

// GetCompany devuelve el tercero del tenant.
func (uc *CatalogUseCase) GetCompany(ctx context.Context, tenantID, id string) (*dto.CompanyResponse, error) {
	var c *entity.Company
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		var err error
		c, err = repos.Companies.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.NotFound("Company %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.FromCompany(c), nil
}
