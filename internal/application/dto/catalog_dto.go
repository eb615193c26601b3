package dto

import (
	"time"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
// Stock y costo iniciales solo se aceptan en el alta; después cambian vía movimientos.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	InitialStock decimal.Decimal `json:"initial_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
}

// ProductResponse read model de producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromProduct mapea la entidad al read model.
func FromProduct(p *entity.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		CurrentStock: p.CurrentStock,
		CostPerUnit:  p.CostPerUnit,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// CreateCompanyRequest body para POST /api/companies (proveedor y/o cliente).
type CreateCompanyRequest struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id,omitempty"`
	Email      string `json:"email,omitempty"`
	IsSupplier bool   `json:"is_supplier"`
	IsCustomer bool   `json:"is_customer"`
}

// CompanyResponse read model de tercero.
type CompanyResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TaxID      string    `json:"tax_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	IsSupplier bool      `json:"is_supplier"`
	IsCustomer bool      `json:"is_customer"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromCompany mapea la entidad al read model.
func FromCompany(c *entity.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:         c.ID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		Email:      c.Email,
		IsSupplier: c.IsSupplier,
		IsCustomer: c.IsCustomer,
		CreatedAt:  c.CreatedAt,
	}
}
