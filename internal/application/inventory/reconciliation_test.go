package inventory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/infrastructure/memory"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

func newReconciliation(t *testing.T, stock, cost string) (*inventory.ReconciliationService, *memory.Store) {
	t.Helper()
	store := newStore(stock, cost)
	ledger := inventory.NewLedgerWriter(store, nil, logger.Nop())
	return inventory.NewReconciliationService(store, ledger, logger.Nop()), store
}

func completedReceipt(lines ...*entity.ReceiptLine) *entity.Receipt {
	return &entity.Receipt{
		ID: "rec-1", TenantID: tenantA, PurchaseOrderID: "po-1", ReceiptNumber: "REC-2025-0001",
		Status: entity.ReceiptStatusCompleted, Lines: lines,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyReceiptToInventory
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyReceipt_CostoPromedioYEntrada(t *testing.T) {
	svc, store := newReconciliation(t, "100", "10")
	price := d("12")
	receipt := completedReceipt(&entity.ReceiptLine{
		ProductID: "prod-1", QuantityReceived: d("50"), UnitPriceOrdered: d("10"),
		UnitPriceReceived: &price, Condition: entity.ItemConditionGood, BatchNumber: "L-7",
	})

	var movements []*entity.StockMovement
	err := store.Run(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		var err error
		movements, err = svc.ApplyReceiptToInventory(ctx, repos, receipt, userID)
		return err
	})
	require.NoError(t, err)
	require.Len(t, movements, 1)

	p := store.Product(tenantA, "prod-1")
	assert.True(t, d("150").Equal(p.CurrentStock))
	assert.True(t, d("10.67").Equal(p.CostPerUnit))
	assert.Equal(t, entity.MovementTypeStockIn, movements[0].Type)
	assert.Equal(t, "REC-2025-0001", movements[0].Reference)
	assert.Equal(t, "batch L-7", movements[0].Notes)
}

func TestApplyReceipt_LineasDaniadasNoEntran(t *testing.T) {
	svc, store := newReconciliation(t, "10", "5")
	receipt := completedReceipt(
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("4"), UnitPriceOrdered: d("5"), Condition: entity.ItemConditionDamaged},
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("2"), UnitPriceOrdered: d("5"), Condition: entity.ItemConditionDefective},
	)
	err := store.Run(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		movements, err := svc.ApplyReceiptToInventory(ctx, repos, receipt, userID)
		assert.Empty(t, movements)
		return err
	})
	require.NoError(t, err)
	assert.True(t, d("10").Equal(store.Product(tenantA, "prod-1").CurrentStock))
	assert.Empty(t, store.Movements())
}

func TestApplyReceipt_ProductoInexistenteAbortaTodo(t *testing.T) {
	svc, store := newReconciliation(t, "10", "5")
	receipt := completedReceipt(
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("4"), UnitPriceOrdered: d("5"), Condition: entity.ItemConditionGood},
		&entity.ReceiptLine{ProductID: "ghost", QuantityReceived: d("1"), UnitPriceOrdered: d("5"), Condition: entity.ItemConditionGood},
	)
	err := store.Run(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		_, err := svc.ApplyReceiptToInventory(ctx, repos, receipt, userID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, d("10").Equal(store.Product(tenantA, "prod-1").CurrentStock))
	assert.Empty(t, store.Movements())
}

// ──────────────────────────────────────────────────────────────────────────────
// RollbackReceiptFromInventory
// ──────────────────────────────────────────────────────────────────────────────

// seedReceipt guarda la recepción junto con su orden de compra en el estado indicado. Cada línea
// de la recepción acredita su cantidad a una línea propia de la orden, que quedó con 10 pendientes.
func seedReceipt(t *testing.T, store *memory.Store, r *entity.Receipt, poStatus entity.PurchaseOrderStatus) {
	t.Helper()
	po := &entity.PurchaseOrder{
		ID: r.PurchaseOrderID, TenantID: r.TenantID, OrderNumber: "PO-2025-0001", Status: poStatus,
	}
	for i, rl := range r.Lines {
		rl.PurchaseOrderLineID = fmt.Sprintf("pol-%d", i+1)
		po.Lines = append(po.Lines, &entity.PurchaseOrderLine{
			ID: rl.PurchaseOrderLineID, PurchaseOrderID: po.ID, ProductID: rl.ProductID,
			QuantityOrdered:     rl.QuantityReceived.Add(d("10")),
			QuantityReceived:    rl.QuantityReceived,
			QuantityOutstanding: d("10"),
			Status:              entity.PurchaseOrderLineStatusPartiallyReceived,
		})
	}
	require.NoError(t, store.Run(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}
		return repos.Receipts.Create(ctx, r)
	}))
}

func loadReceiptAndOrder(t *testing.T, store *memory.Store) (*entity.Receipt, *entity.PurchaseOrder) {
	t.Helper()
	var (
		receipt *entity.Receipt
		po      *entity.PurchaseOrder
	)
	require.NoError(t, store.Run(context.Background(), func(ctx context.Context, repos ports.Repositories) error {
		var err error
		if receipt, err = repos.Receipts.GetByID(ctx, tenantA, "rec-1"); err != nil {
			return err
		}
		po, err = repos.PurchaseOrders.GetByID(ctx, tenantA, "po-1")
		return err
	}))
	require.NotNil(t, receipt)
	require.NotNil(t, po)
	return receipt, po
}

func TestRollbackReceipt_AjusteNegativo(t *testing.T) {
	svc, store := newReconciliation(t, "30", "5")
	seedReceipt(t, store, completedReceipt(
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("20"), Condition: entity.ItemConditionGood},
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("3"), Condition: entity.ItemConditionDamaged},
	), entity.PurchaseOrderStatusPartiallyReceived)

	movements, err := svc.RollbackReceiptFromInventory(context.Background(), tenantA, "rec-1", userID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeStockAdjustment, movements[0].Type)
	assert.True(t, d("-20").Equal(movements[0].Quantity))
	assert.True(t, d("10").Equal(store.Product(tenantA, "prod-1").CurrentStock))

	// La recepción queda cerrada y la orden recupera lo pendiente, incluidas las líneas dañadas.
	receipt, po := loadReceiptAndOrder(t, store)
	assert.Equal(t, entity.ReceiptStatusRolledBack, receipt.Status)
	assert.Equal(t, entity.PurchaseOrderStatusReceiving, po.Status)
	for _, l := range po.Lines {
		assert.True(t, l.QuantityReceived.IsZero(), l.ID)
		assert.True(t, l.QuantityOrdered.Equal(l.QuantityOutstanding), l.ID)
		assert.Equal(t, entity.PurchaseOrderLineStatusPending, l.Status)
	}
}

func TestRollbackReceipt_SegundaReversionRechazada(t *testing.T) {
	svc, store := newReconciliation(t, "30", "5")
	seedReceipt(t, store, completedReceipt(
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("20"), Condition: entity.ItemConditionGood},
	), entity.PurchaseOrderStatusPartiallyReceived)
	ctx := context.Background()

	_, err := svc.RollbackReceiptFromInventory(ctx, tenantA, "rec-1", userID)
	require.NoError(t, err)

	_, err = svc.RollbackReceiptFromInventory(ctx, tenantA, "rec-1", userID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.True(t, d("10").Equal(store.Product(tenantA, "prod-1").CurrentStock))
	assert.Len(t, store.Movements(), 1)
}

func TestRollbackReceipt_OrdenCompletadaNoSeReabre(t *testing.T) {
	svc, store := newReconciliation(t, "30", "5")
	seedReceipt(t, store, completedReceipt(
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("20"), Condition: entity.ItemConditionGood},
	), entity.PurchaseOrderStatusCompleted)

	_, err := svc.RollbackReceiptFromInventory(context.Background(), tenantA, "rec-1", userID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.True(t, d("30").Equal(store.Product(tenantA, "prod-1").CurrentStock))
	assert.Empty(t, store.Movements())

	receipt, po := loadReceiptAndOrder(t, store)
	assert.Equal(t, entity.ReceiptStatusCompleted, receipt.Status)
	assert.Equal(t, entity.PurchaseOrderStatusCompleted, po.Status)
}

func TestRollbackReceipt_StockNegativoFalla(t *testing.T) {
	svc, store := newReconciliation(t, "5", "5")
	seedReceipt(t, store, completedReceipt(
		&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("20"), Condition: entity.ItemConditionGood},
	), entity.PurchaseOrderStatusPartiallyReceived)

	_, err := svc.RollbackReceiptFromInventory(context.Background(), tenantA, "rec-1", userID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, d("5").Equal(store.Product(tenantA, "prod-1").CurrentStock))

	receipt, po := loadReceiptAndOrder(t, store)
	assert.Equal(t, entity.ReceiptStatusCompleted, receipt.Status)
	assert.True(t, d("20").Equal(po.Lines[0].QuantityReceived))
}

func TestRollbackReceipt_SoloCompletadasYMismoTenant(t *testing.T) {
	svc, store := newReconciliation(t, "30", "5")
	r := completedReceipt(&entity.ReceiptLine{ProductID: "prod-1", QuantityReceived: d("1"), Condition: entity.ItemConditionGood})
	r.Status = entity.ReceiptStatusValidated
	seedReceipt(t, store, r, entity.PurchaseOrderStatusReceiving)

	_, err := svc.RollbackReceiptFromInventory(context.Background(), tenantA, "rec-1", userID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.RollbackReceiptFromInventory(context.Background(), tenantB, "rec-1", userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
