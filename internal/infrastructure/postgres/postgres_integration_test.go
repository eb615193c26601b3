//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/application/purchasing"
	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/infrastructure/migration"
	"github.com/seppevistik/stockmanager/internal/infrastructure/postgres"
	"github.com/seppevistik/stockmanager/pkg/config"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

const (
	tenantID   = "tenant-int"
	userID     = "user-int"
	supplierID = "sup-int"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newDatabase levanta PostgreSQL en un contenedor, aplica migraciones y devuelve el pool.
func newDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.New(dsn, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	now := time.Now()
	require.NoError(t, postgres.NewCompanyRepository(pool).Create(ctx, &entity.Company{
		ID: supplierID, TenantID: tenantID, Name: "Aceros SA", IsSupplier: true, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, postgres.NewProductRepository(pool).Create(ctx, &entity.Product{
		ID: "prod-int", TenantID: tenantID, SKU: "SKU-INT", Name: "Tornillo",
		CurrentStock: d("100"), CostPerUnit: d("10"), CreatedAt: now, UpdatedAt: now,
	}))
	return pool
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo de compra sobre PostgreSQL
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_FlujoDeCompraCompleto(t *testing.T) {
	pool := newDatabase(t)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)
	log := logger.Nop()
	ledger := inventory.NewLedgerWriter(runner, nil, log)
	orders := purchasing.NewPurchaseOrderUseCase(runner, nil, log)
	receipts := purchasing.NewReceiptUseCase(runner, nil, log)
	complete := purchasing.NewCompleteReceiptUseCase(runner, inventory.NewReconciliationService(runner, ledger, log), ledger, nil, log)

	po, err := orders.Create(ctx, tenantID, userID, dto.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Lines:      []dto.PurchaseOrderLineRequest{{ProductID: "prod-int", Quantity: d("50"), UnitPrice: d("12")}},
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PO-%d-0001", time.Now().Year()), po.OrderNumber)
	_, err = orders.Submit(ctx, tenantID, userID, po.ID)
	require.NoError(t, err)

	r, err := receipts.Create(ctx, tenantID, userID, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		Lines:           []dto.ReceiptLineRequest{{PurchaseOrderLineID: po.Lines[0].ID, QuantityReceived: d("50"), BatchNumber: "L-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "VALIDATED", r.Status)

	done, err := complete.Complete(ctx, tenantID, userID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)

	poNow, err := orders.Get(ctx, tenantID, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", poNow.Status)
	assert.True(t, poNow.Lines[0].QuantityOutstanding.IsZero())

	p, err := postgres.NewProductRepository(pool).GetByID(ctx, tenantID, "prod-int")
	require.NoError(t, err)
	assert.True(t, d("150").Equal(p.CurrentStock))
	assert.True(t, d("10.67").Equal(p.CostPerUnit))

	movs, err := postgres.NewStockMovementRepository(pool).ListByReference(ctx, tenantID, r.ReceiptNumber)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "batch L-1", movs[0].Notes)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_UpdateStockCondicional(t *testing.T) {
	pool := newDatabase(t)
	ctx := context.Background()
	repo := postgres.NewProductRepository(pool)

	require.NoError(t, repo.UpdateStock(ctx, tenantID, "prod-int", d("100"), d("90")))
	err := repo.UpdateStock(ctx, tenantID, "prod-int", d("100"), d("80"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPostgres_VersionOptimista(t *testing.T) {
	pool := newDatabase(t)
	ctx := context.Background()
	orders := purchasing.NewPurchaseOrderUseCase(postgres.NewTxRunner(pool), nil, logger.Nop())
	po, err := orders.Create(ctx, tenantID, userID, dto.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Lines:      []dto.PurchaseOrderLineRequest{{ProductID: "prod-int", Quantity: d("1"), UnitPrice: d("1")}},
	})
	require.NoError(t, err)

	repo := postgres.NewPurchaseOrderRepository(pool)
	stale, err := repo.GetByID(ctx, tenantID, po.ID)
	require.NoError(t, err)
	fresh, err := repo.GetByID(ctx, tenantID, po.ID)
	require.NoError(t, err)

	fresh.Notes = "primero"
	require.NoError(t, repo.Update(ctx, fresh))
	assert.Equal(t, 2, fresh.Version)

	stale.Notes = "segundo"
	assert.ErrorIs(t, repo.Update(ctx, stale), domain.ErrConflict)
}

func TestPostgres_SalidasConcurrentesNoDejanStockNegativo(t *testing.T) {
	pool := newDatabase(t)
	ledger := inventory.NewLedgerWriter(postgres.NewTxRunner(pool), nil, logger.Nop())

	var g errgroup.Group
	results := make([]error, 15)
	for i := range results {
		g.Go(func() error {
			_, results[i] = ledger.RegisterMovement(context.Background(), tenantID, userID, dto.RegisterMovementRequest{
				ProductID: "prod-int", Type: "STOCK_OUT", Quantity: d("10"), Reason: "venta",
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 10, ok)

	p, err := postgres.NewProductRepository(pool).GetByID(context.Background(), tenantID, "prod-int")
	require.NoError(t, err)
	assert.True(t, p.CurrentStock.IsZero())
}

func TestPostgres_SecuenciaPorAnio(t *testing.T) {
	pool := newDatabase(t)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)

	var numbers []int64
	for _, year := range []int{2024, 2024, 2025} {
		require.NoError(t, runner.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
			n, err := repos.Sequences.Next(ctx, tenantID, "PO", year)
			numbers = append(numbers, n)
			return err
		}))
	}
	assert.Equal(t, []int64{1, 2, 1}, numbers)
}
