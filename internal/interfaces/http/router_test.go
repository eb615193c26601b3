package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seppevistik/stockmanager/internal/application/catalog"
	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/purchasing"
	"github.com/seppevistik/stockmanager/internal/application/sales"
	"github.com/seppevistik/stockmanager/internal/infrastructure/memory"
	"github.com/seppevistik/stockmanager/internal/infrastructure/metrics"
	apphttp "github.com/seppevistik/stockmanager/internal/interfaces/http"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildAPI arma el router completo sobre el adaptador en memoria.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()
	prom := metrics.New("test")
	ledger := inventory.NewLedgerWriter(store, prom, log)
	reconciliation := inventory.NewReconciliationService(store, ledger, log)

	app := fiber.New()
	app.Use(prom.Middleware())
	apphttp.Router(app, apphttp.RouterDeps{
		CatalogUC:       catalog.NewCatalogUseCase(store, log),
		Ledger:          ledger,
		Reconciliation:  reconciliation,
		PurchaseOrderUC: purchasing.NewPurchaseOrderUseCase(store, prom, log),
		ReceiptUC:       purchasing.NewReceiptUseCase(store, prom, log),
		CompleteReceipt: purchasing.NewCompleteReceiptUseCase(store, reconciliation, ledger, prom, log),
		SalesOrderUC:    sales.NewSalesOrderUseCase(store, ledger, prom, log),
		JWTSecret:       testJWTSecret,
		Log:             log,
		MetricsHandler:  prom.Handler(),
	})
	return app
}

// call hace la petición con el rol indicado y decodifica la respuesta en out (si no es nil).
func call(t *testing.T, app *fiber.App, method, path, role string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createProduct(t *testing.T, app *fiber.App, sku, stock, cost string) dto.ProductResponse {
	t.Helper()
	var p dto.ProductResponse
	status := call(t, app, http.MethodPost, "/api/products", apphttp.RoleAdmin, dto.CreateProductRequest{
		SKU: sku, Name: "Producto " + sku, InitialStock: dec(stock), CostPerUnit: dec(cost),
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo de compras por HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_CompraRecepcionYCosto(t *testing.T) {
	app := buildAPI(t)
	product := createProduct(t, app, "SKU-1", "100", "10")

	var supplier dto.CompanyResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/companies", apphttp.RoleAdmin,
		dto.CreateCompanyRequest{Name: "Aceros SA", IsSupplier: true}, &supplier))

	var po dto.PurchaseOrderResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/purchase-orders", apphttp.RolePurchasing,
		dto.CreatePurchaseOrderRequest{
			SupplierID: supplier.ID,
			Lines:      []dto.PurchaseOrderLineRequest{{ProductID: product.ID, Quantity: dec("50"), UnitPrice: dec("12")}},
		}, &po))
	assert.Equal(t, "DRAFT", po.Status)

	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/purchase-orders/"+po.ID+"/submit", apphttp.RolePurchasing, nil, &po))
	assert.Equal(t, "SUBMITTED", po.Status)

	var receipt dto.ReceiptResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/receipts", apphttp.RoleWarehouse,
		dto.CreateReceiptRequest{
			PurchaseOrderID: po.ID,
			Lines:           []dto.ReceiptLineRequest{{PurchaseOrderLineID: po.Lines[0].ID, QuantityReceived: dec("50")}},
		}, &receipt))
	assert.Equal(t, "VALIDATED", receipt.Status)

	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/receipts/"+receipt.ID+"/complete", apphttp.RoleWarehouse, nil, &receipt))
	assert.Equal(t, "COMPLETED", receipt.Status)

	var got dto.ProductResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/products/"+product.ID, apphttp.RoleSales, nil, &got))
	assert.True(t, dec("150").Equal(got.CurrentStock))
	assert.True(t, dec("10.67").Equal(got.CostPerUnit))

	var movements []dto.StockMovementResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/products/"+product.ID+"/movements", apphttp.RoleWarehouse, nil, &movements))
	require.Len(t, movements, 1)
	assert.Equal(t, receipt.ReceiptNumber, movements[0].Reference)

	var receipts []dto.ReceiptResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/purchase-orders/"+po.ID+"/receipts", apphttp.RolePurchasing, nil, &receipts))
	assert.Len(t, receipts, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores y permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_MapeoDeErrores(t *testing.T) {
	app := buildAPI(t)
	product := createProduct(t, app, "SKU-1", "5", "2")

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		status int
		code   string
	}{
		{"producto inexistente", http.MethodGet, "/api/products/nope", apphttp.RoleAdmin, nil, http.StatusNotFound, "NOT_FOUND"},
		{"validación", http.MethodPost, "/api/products", apphttp.RoleAdmin, dto.CreateProductRequest{Name: "sin sku"}, http.StatusBadRequest, "VALIDATION"},
		{"sku duplicado", http.MethodPost, "/api/products", apphttp.RoleAdmin, dto.CreateProductRequest{SKU: "SKU-1", Name: "otra"}, http.StatusConflict, "DUPLICATE"},
		{"stock insuficiente", http.MethodPost, "/api/inventory/movements", apphttp.RoleWarehouse,
			dto.RegisterMovementRequest{ProductID: product.ID, Type: "STOCK_OUT", Quantity: dec("6"), Reason: "merma"}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"rol sin permiso", http.MethodPost, "/api/inventory/movements", apphttp.RoleSales,
			dto.RegisterMovementRequest{ProductID: product.ID, Type: "STOCK_IN", Quantity: dec("1"), Reason: "x"}, http.StatusForbidden, "FORBIDDEN"},
		{"sin token", http.MethodGet, "/api/products/" + product.ID, "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"orden de venta inexistente", http.MethodPost, "/api/sales-orders/nope/ship", apphttp.RoleWarehouse, nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body dto.ErrorResponse
			status := call(t, app, tc.method, tc.path, tc.role, tc.body, &body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

// admin pasa los grupos de compras, bodega y ventas; un rol de otra área se queda fuera.
func TestRouter_AdminEntraEnTodasLasAreas(t *testing.T) {
	app := buildAPI(t)
	product := createProduct(t, app, "SKU-1", "5", "2")
	movement := dto.RegisterMovementRequest{ProductID: product.ID, Type: "STOCK_IN", Quantity: dec("1"), Reason: "conteo"}

	cases := []struct {
		name     string
		method   string
		path     string
		body     any
		adminOK  int
		outsider string
	}{
		{"listar órdenes de compra", http.MethodGet, "/api/purchase-orders", nil, http.StatusOK, apphttp.RoleSales},
		{"listar recepciones", http.MethodGet, "/api/receipts", nil, http.StatusOK, apphttp.RoleSales},
		{"movimiento manual", http.MethodPost, "/api/inventory/movements", movement, http.StatusCreated, apphttp.RolePurchasing},
		{"listar órdenes de venta", http.MethodGet, "/api/sales-orders", nil, http.StatusOK, apphttp.RolePurchasing},
		{"despacho", http.MethodPost, "/api/sales-orders/nope/ship", nil, http.StatusNotFound, apphttp.RoleSales},
		{"reversión de recepción", http.MethodPost, "/api/receipts/nope/rollback", nil, http.StatusNotFound, apphttp.RoleWarehouse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.adminOK, call(t, app, tc.method, tc.path, apphttp.RoleAdmin, tc.body, nil))

			var body dto.ErrorResponse
			assert.Equal(t, http.StatusForbidden, call(t, app, tc.method, tc.path, tc.outsider, tc.body, &body))
			assert.Equal(t, "FORBIDDEN", body.Code)
		})
	}
}

func TestRouter_CuerpoInvalido(t *testing.T) {
	app := buildAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, apphttp.RoleAdmin))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_BODY", body.Code)
}

// /metrics no exige token y refleja los movimientos registrados.
func TestRouter_MetricsPublico(t *testing.T) {
	app := buildAPI(t)
	product := createProduct(t, app, "SKU-1", "0", "0")
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/movements", apphttp.RoleWarehouse,
		dto.RegisterMovementRequest{ProductID: product.ID, Type: "STOCK_IN", Quantity: dec("3"), Reason: "conteo"}, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `test_stock_movements_total{type="STOCK_IN"} 1`)
}
