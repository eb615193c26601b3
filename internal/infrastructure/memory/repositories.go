package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.CompanyRepository       = (*companyRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.PurchaseOrderRepository = (*purchaseOrderRepo)(nil)
	_ repository.ReceiptRepository       = (*receiptRepo)(nil)
	_ repository.SalesOrderRepository    = (*salesOrderRepo)(nil)
	_ repository.SequenceRepository      = (*sequenceRepo)(nil)
)

type productRepo struct{ st *state }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	for _, existing := range r.st.products {
		if existing.TenantID == p.TenantID && (existing.ID == p.ID || existing.SKU == p.SKU) {
			return domain.ErrDuplicate
		}
	}
	r.st.products[key(p.TenantID, p.ID)] = cloneProduct(p)
	return nil
}

func (r *productRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Product, error) {
	return cloneProduct(r.st.products[key(tenantID, id)]), nil
}

// GetForUpdate el mutex del Store ya serializa la unidad de trabajo completa.
func (r *productRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *productRepo) UpdateStock(_ context.Context, tenantID, id string, previous, next decimal.Decimal) error {
	p, ok := r.st.products[key(tenantID, id)]
	if !ok {
		return domain.NotFound("Product %s not found", id)
	}
	if !p.CurrentStock.Equal(previous) {
		return domain.Conflict("Stock of product %s changed concurrently", p.SKU)
	}
	cp := cloneProduct(p)
	cp.CurrentStock = next
	r.st.products[key(tenantID, id)] = cp
	return nil
}

func (r *productRepo) UpdateCost(_ context.Context, tenantID, id string, cost decimal.Decimal) error {
	p, ok := r.st.products[key(tenantID, id)]
	if !ok {
		return domain.NotFound("Product %s not found", id)
	}
	cp := cloneProduct(p)
	cp.CostPerUnit = cost
	r.st.products[key(tenantID, id)] = cp
	return nil
}

type companyRepo struct{ st *state }

func (r *companyRepo) Create(_ context.Context, c *entity.Company) error {
	k := key(c.TenantID, c.ID)
	if _, exists := r.st.companies[k]; exists {
		return domain.ErrDuplicate
	}
	r.st.companies[k] = cloneCompany(c)
	return nil
}

func (r *companyRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Company, error) {
	return cloneCompany(r.st.companies[key(tenantID, id)]), nil
}

type movementRepo struct{ st *state }

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	cp := *m
	r.st.movements = append(r.st.movements, &cp)
	return nil
}

// ListByProduct más recientes primero (orden inverso de inserción).
func (r *movementRepo) ListByProduct(_ context.Context, tenantID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		if m.TenantID == tenantID && m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *movementRepo) ListByReference(_ context.Context, tenantID, reference string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.st.movements {
		if m.TenantID == tenantID && m.Reference == reference {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type purchaseOrderRepo struct{ st *state }

func (r *purchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	k := key(po.TenantID, po.ID)
	if _, exists := r.st.purchaseOrders[k]; exists {
		return domain.ErrDuplicate
	}
	po.Version = 1
	r.st.purchaseOrders[k] = clonePurchaseOrder(po)
	return nil
}

func (r *purchaseOrderRepo) GetByID(_ context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	return clonePurchaseOrder(r.st.purchaseOrders[key(tenantID, id)]), nil
}

func (r *purchaseOrderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *purchaseOrderRepo) Update(_ context.Context, po *entity.PurchaseOrder) error {
	k := key(po.TenantID, po.ID)
	stored, ok := r.st.purchaseOrders[k]
	if !ok {
		return domain.NotFound("Purchase order %s not found", po.ID)
	}
	if stored.Version != po.Version {
		return domain.Conflict("Purchase order %s was modified by another process", po.OrderNumber)
	}
	po.Version++
	r.st.purchaseOrders[k] = clonePurchaseOrder(po)
	return nil
}

func (r *purchaseOrderRepo) Delete(_ context.Context, tenantID, id string) error {
	delete(r.st.purchaseOrders, key(tenantID, id))
	return nil
}

func (r *purchaseOrderRepo) List(_ context.Context, tenantID string, status entity.PurchaseOrderStatus, limit, offset int) ([]*entity.PurchaseOrder, error) {
	var out []*entity.PurchaseOrder
	for _, po := range r.st.purchaseOrders {
		if po.TenantID != tenantID || (status != "" && po.Status != status) {
			continue
		}
		out = append(out, clonePurchaseOrder(po))
	}
	slices.SortFunc(out, func(a, b *entity.PurchaseOrder) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.OrderNumber, a.OrderNumber))
	})
	return paginate(out, limit, offset), nil
}

type receiptRepo struct{ st *state }

func (r *receiptRepo) Create(_ context.Context, rc *entity.Receipt) error {
	k := key(rc.TenantID, rc.ID)
	if _, exists := r.st.receipts[k]; exists {
		return domain.ErrDuplicate
	}
	rc.Version = 1
	r.st.receipts[k] = cloneReceipt(rc)
	return nil
}

func (r *receiptRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Receipt, error) {
	return cloneReceipt(r.st.receipts[key(tenantID, id)]), nil
}

func (r *receiptRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Receipt, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *receiptRepo) Update(_ context.Context, rc *entity.Receipt) error {
	k := key(rc.TenantID, rc.ID)
	stored, ok := r.st.receipts[k]
	if !ok {
		return domain.NotFound("Receipt %s not found", rc.ID)
	}
	if stored.Version != rc.Version {
		return domain.Conflict("Receipt %s was modified by another process", rc.ReceiptNumber)
	}
	rc.Version++
	r.st.receipts[k] = cloneReceipt(rc)
	return nil
}

func (r *receiptRepo) Delete(_ context.Context, tenantID, id string) error {
	delete(r.st.receipts, key(tenantID, id))
	return nil
}

func (r *receiptRepo) List(_ context.Context, tenantID string, status entity.ReceiptStatus, limit, offset int) ([]*entity.Receipt, error) {
	out := r.filter(func(rc *entity.Receipt) bool {
		return rc.TenantID == tenantID && (status == "" || rc.Status == status)
	})
	return paginate(out, limit, offset), nil
}

func (r *receiptRepo) ListByPurchaseOrder(_ context.Context, tenantID, purchaseOrderID string) ([]*entity.Receipt, error) {
	return r.filter(func(rc *entity.Receipt) bool {
		return rc.TenantID == tenantID && rc.PurchaseOrderID == purchaseOrderID
	}), nil
}

func (r *receiptRepo) filter(keep func(*entity.Receipt) bool) []*entity.Receipt {
	var out []*entity.Receipt
	for _, rc := range r.st.receipts {
		if keep(rc) {
			out = append(out, cloneReceipt(rc))
		}
	}
	slices.SortFunc(out, func(a, b *entity.Receipt) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ReceiptNumber, a.ReceiptNumber))
	})
	return out
}

type salesOrderRepo struct{ st *state }

func (r *salesOrderRepo) Create(_ context.Context, so *entity.SalesOrder) error {
	k := key(so.TenantID, so.ID)
	if _, exists := r.st.salesOrders[k]; exists {
		return domain.ErrDuplicate
	}
	so.Version = 1
	r.st.salesOrders[k] = cloneSalesOrder(so)
	return nil
}

func (r *salesOrderRepo) GetByID(_ context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return cloneSalesOrder(r.st.salesOrders[key(tenantID, id)]), nil
}

func (r *salesOrderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *salesOrderRepo) Update(_ context.Context, so *entity.SalesOrder) error {
	k := key(so.TenantID, so.ID)
	stored, ok := r.st.salesOrders[k]
	if !ok {
		return domain.NotFound("Sales order %s not found", so.ID)
	}
	if stored.Version != so.Version {
		return domain.Conflict("Sales order %s was modified by another process", so.OrderNumber)
	}
	so.Version++
	r.st.salesOrders[k] = cloneSalesOrder(so)
	return nil
}

func (r *salesOrderRepo) Delete(_ context.Context, tenantID, id string) error {
	delete(r.st.salesOrders, key(tenantID, id))
	return nil
}

func (r *salesOrderRepo) List(_ context.Context, tenantID string, status entity.SalesOrderStatus, limit, offset int) ([]*entity.SalesOrder, error) {
	var out []*entity.SalesOrder
	for _, so := range r.st.salesOrders {
		if so.TenantID != tenantID || (status != "" && so.Status != status) {
			continue
		}
		out = append(out, cloneSalesOrder(so))
	}
	slices.SortFunc(out, func(a, b *entity.SalesOrder) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.OrderNumber, a.OrderNumber))
	})
	return paginate(out, limit, offset), nil
}

type sequenceRepo struct{ st *state }

func (r *sequenceRepo) Next(_ context.Context, tenantID, document string, year int) (int64, error) {
	k := tenantID + "/" + document + "/" + strconv.Itoa(year)
	r.st.sequences[k]++
	return r.st.sequences[k], nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
