package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

// Store almacenamiento en memoria para desarrollo y tests. Cada unidad de trabajo toma el mutex,
// trabaja sobre una copia del estado y solo la publica si fn termina sin error.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	products       map[string]*entity.Product
	companies      map[string]*entity.Company
	movements      []*entity.StockMovement
	purchaseOrders map[string]*entity.PurchaseOrder
	receipts       map[string]*entity.Receipt
	salesOrders    map[string]*entity.SalesOrder
	sequences      map[string]int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: &state{
		products:       map[string]*entity.Product{},
		companies:      map[string]*entity.Company{},
		purchaseOrders: map[string]*entity.PurchaseOrder{},
		receipts:       map[string]*entity.Receipt{},
		salesOrders:    map[string]*entity.SalesOrder{},
		sequences:      map[string]int64{},
	}}
}

// Run ejecuta fn sobre una copia del estado; Commit = reemplazar el estado, Rollback = descartarla.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, work.repositories()); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (st *state) repositories() ports.Repositories {
	return ports.Repositories{
		Products:       &productRepo{st: st},
		Companies:      &companyRepo{st: st},
		Movements:      &movementRepo{st: st},
		PurchaseOrders: &purchaseOrderRepo{st: st},
		Receipts:       &receiptRepo{st: st},
		SalesOrders:    &salesOrderRepo{st: st},
		Sequences:      &sequenceRepo{st: st},
	}
}

// clone copia los mapas; los agregados se copian en escritura (los repos nunca mutan in situ).
func (st *state) clone() *state {
	return &state{
		products:       maps.Clone(st.products),
		companies:      maps.Clone(st.companies),
		movements:      append([]*entity.StockMovement(nil), st.movements...),
		purchaseOrders: maps.Clone(st.purchaseOrders),
		receipts:       maps.Clone(st.receipts),
		salesOrders:    maps.Clone(st.salesOrders),
		sequences:      maps.Clone(st.sequences),
	}
}

func key(tenantID, id string) string {
	return tenantID + "/" + id
}

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func cloneCompany(c *entity.Company) *entity.Company {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func clonePurchaseOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	if po == nil {
		return nil
	}
	cp := *po
	cp.Lines = make([]*entity.PurchaseOrderLine, 0, len(po.Lines))
	for _, l := range po.Lines {
		lc := *l
		cp.Lines = append(cp.Lines, &lc)
	}
	return &cp
}

func cloneReceipt(r *entity.Receipt) *entity.Receipt {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Lines = make([]*entity.ReceiptLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lc := *l
		cp.Lines = append(cp.Lines, &lc)
	}
	return &cp
}

func cloneSalesOrder(so *entity.SalesOrder) *entity.SalesOrder {
	if so == nil {
		return nil
	}
	cp := *so
	cp.Lines = make([]*entity.SalesOrderLine, 0, len(so.Lines))
	for _, l := range so.Lines {
		lc := *l
		cp.Lines = append(cp.Lines, &lc)
	}
	return &cp
}
