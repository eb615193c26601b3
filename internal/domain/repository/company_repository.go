package repository

import (
	"context"

	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

// CompanyRepository puerto de lectura de terceros (proveedores/clientes).
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Company, error)
}
