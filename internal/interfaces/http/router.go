package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seppevistik/stockmanager/internal/application/catalog"
	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/purchasing"
	"github.com/seppevistik/stockmanager/internal/application/sales"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CatalogUC       *catalog.CatalogUseCase
	Ledger          *inventory.LedgerWriter
	Reconciliation  *inventory.ReconciliationService
	PurchaseOrderUC *purchasing.PurchaseOrderUseCase
	ReceiptUC       *purchasing.ReceiptUseCase
	CompleteReceipt *purchasing.CompleteReceiptUseCase
	SalesOrderUC    *sales.SalesOrderUseCase
	JWTSecret       string
	Log             *logger.Logger
	// MetricsHandler expone /metrics cuando no es nil.
	MetricsHandler fiber.Handler
}

// Roles por área. admin entra en todas.
var (
	anyRole       = []string{RoleAdmin, RolePurchasing, RoleWarehouse, RoleSales}
	adminOnly     = []string{RoleAdmin}
	purchasers    = []string{RoleAdmin, RolePurchasing}
	warehouse     = []string{RoleAdmin, RoleWarehouse}
	sellers       = []string{RoleAdmin, RoleSales}
	purchaseReads = []string{RoleAdmin, RolePurchasing, RoleWarehouse}
	salesReads    = []string{RoleAdmin, RoleSales, RoleWarehouse}
)

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	errs := errorResponder{log: deps.Log.Component("http")}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Catálogo
	productHandler := NewProductHandler(deps.CatalogUC, errs)
	inventoryHandler := NewInventoryHandler(deps.Ledger, errs)
	products := api.Group("/products")
	products.Post("/", RequireRole(adminOnly...), productHandler.Create)
	products.Get("/:id", RequireRole(anyRole...), productHandler.GetByID)
	products.Get("/:id/movements", RequireRole(anyRole...), inventoryHandler.ListMovements)

	companyHandler := NewCompanyHandler(deps.CatalogUC, errs)
	companies := api.Group("/companies")
	companies.Post("/", RequireRole(adminOnly...), companyHandler.Create)
	companies.Get("/:id", RequireRole(anyRole...), companyHandler.GetByID)

	// Movimientos manuales
	api.Post("/inventory/movements", RequireRole(warehouse...), inventoryHandler.RegisterMovement)

	// Compras
	poHandler := NewPurchaseOrderHandler(deps.PurchaseOrderUC, errs)
	receiptHandler := NewReceiptHandler(deps.ReceiptUC, deps.CompleteReceipt, deps.Reconciliation, errs)
	pos := api.Group("/purchase-orders")
	pos.Post("/", RequireRole(purchasers...), poHandler.Create)
	pos.Get("/", RequireRole(purchaseReads...), poHandler.List)
	pos.Get("/:id", RequireRole(purchaseReads...), poHandler.GetByID)
	pos.Get("/:id/receipts", RequireRole(purchaseReads...), receiptHandler.ListByPurchaseOrder)
	pos.Put("/:id", RequireRole(purchasers...), poHandler.Update)
	pos.Delete("/:id", RequireRole(purchasers...), poHandler.Delete)
	pos.Post("/:id/submit", RequireRole(purchasers...), poHandler.Submit)
	pos.Post("/:id/confirm", RequireRole(purchasers...), poHandler.Confirm)
	pos.Post("/:id/cancel", RequireRole(purchasers...), poHandler.Cancel)

	receipts := api.Group("/receipts")
	receipts.Post("/", RequireRole(warehouse...), receiptHandler.Create)
	receipts.Get("/", RequireRole(purchaseReads...), receiptHandler.List)
	receipts.Get("/:id", RequireRole(purchaseReads...), receiptHandler.GetByID)
	receipts.Delete("/:id", RequireRole(warehouse...), receiptHandler.Delete)
	receipts.Post("/:id/approve", RequireRole(purchasers...), receiptHandler.Approve)
	receipts.Post("/:id/reject", RequireRole(purchasers...), receiptHandler.Reject)
	receipts.Post("/:id/complete", RequireRole(warehouse...), receiptHandler.Complete)
	receipts.Post("/:id/rollback", RequireRole(adminOnly...), receiptHandler.Rollback)

	// Ventas
	soHandler := NewSalesOrderHandler(deps.SalesOrderUC, errs)
	uc := deps.SalesOrderUC
	sos := api.Group("/sales-orders")
	sos.Post("/", RequireRole(sellers...), soHandler.Create)
	sos.Get("/", RequireRole(salesReads...), soHandler.List)
	sos.Get("/:id", RequireRole(salesReads...), soHandler.GetByID)
	sos.Put("/:id", RequireRole(sellers...), soHandler.Update)
	sos.Delete("/:id", RequireRole(sellers...), soHandler.Delete)
	sos.Post("/:id/submit", RequireRole(sellers...), soHandler.step(uc.Submit))
	sos.Post("/:id/confirm", RequireRole(sellers...), soHandler.step(uc.Confirm))
	sos.Post("/:id/cancel", RequireRole(sellers...), soHandler.withReason(uc.Cancel))
	sos.Post("/:id/hold", RequireRole(sellers...), soHandler.withReason(uc.Hold))
	sos.Post("/:id/release", RequireRole(sellers...), soHandler.step(uc.Release))
	sos.Post("/:id/queue", RequireRole(warehouse...), soHandler.step(uc.QueueForPicking))
	sos.Post("/:id/start-picking", RequireRole(warehouse...), soHandler.step(uc.StartPicking))
	sos.Post("/:id/complete-picking", RequireRole(warehouse...), soHandler.CompletePicking)
	sos.Post("/:id/start-packing", RequireRole(warehouse...), soHandler.step(uc.StartPacking))
	sos.Post("/:id/complete-packing", RequireRole(warehouse...), soHandler.step(uc.CompletePacking))
	sos.Post("/:id/ship", RequireRole(warehouse...), soHandler.Ship)
	sos.Post("/:id/deliver", RequireRole(warehouse...), soHandler.step(uc.MarkDelivered))
}
