package entity

import "time"

// Company representa un tercero del tenant: proveedor, cliente o ambos.
type Company struct {
	ID         string
	TenantID   string
	Name       string
	TaxID      string
	Email      string
	IsSupplier bool
	IsCustomer bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
