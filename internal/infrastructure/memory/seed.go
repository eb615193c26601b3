package memory

import (
	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

// PutProduct registra o reemplaza un producto fuera de cualquier unidad de trabajo
// (el catálogo es un colaborador externo; aquí se siembra para desarrollo y tests).
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[key(p.TenantID, p.ID)] = cloneProduct(p)
}

// PutCompany registra o reemplaza un proveedor/cliente.
func (s *Store) PutCompany(c *entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.companies[key(c.TenantID, c.ID)] = cloneCompany(c)
}

// Product lee el estado confirmado de un producto.
func (s *Store) Product(tenantID, id string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProduct(s.state.products[key(tenantID, id)])
}

// Movements copia del libro confirmado, en orden de inserción.
func (s *Store) Movements() []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, 0, len(s.state.movements))
	for _, m := range s.state.movements {
		cp := *m
		out = append(out, &cp)
	}
	return out
}
