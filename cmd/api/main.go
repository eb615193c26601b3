package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/seppevistik/stockmanager/internal/application/catalog"
	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/ports"
	"github.com/seppevistik/stockmanager/internal/application/purchasing"
	"github.com/seppevistik/stockmanager/internal/application/sales"
	"github.com/seppevistik/stockmanager/internal/infrastructure/memory"
	"github.com/seppevistik/stockmanager/internal/infrastructure/metrics"
	"github.com/seppevistik/stockmanager/internal/infrastructure/postgres"
	httpRouter "github.com/seppevistik/stockmanager/internal/interfaces/http"
	"github.com/seppevistik/stockmanager/pkg/config"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var txRunner ports.TxRunner
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		txRunner = memory.NewStore()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
	}

	var (
		recorder       ports.Metrics = ports.NopMetrics{}
		metricsHandler fiber.Handler
		prom           *metrics.Prometheus
	)
	if cfg.Metrics.Enabled {
		prom = metrics.New("stockmanager")
		recorder = prom
		metricsHandler = prom.Handler()
	}

	ledger := inventory.NewLedgerWriter(txRunner, recorder, log.Component("ledger"))
	reconciliation := inventory.NewReconciliationService(txRunner, ledger, log.Component("reconciliation"))
	purchasingLog := log.Component("purchasing")

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	if prom != nil {
		app.Use(prom.Middleware())
	}

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Stock Manager API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CatalogUC:       catalog.NewCatalogUseCase(txRunner, log.Component("catalog")),
		Ledger:          ledger,
		Reconciliation:  reconciliation,
		PurchaseOrderUC: purchasing.NewPurchaseOrderUseCase(txRunner, recorder, purchasingLog),
		ReceiptUC:       purchasing.NewReceiptUseCase(txRunner, recorder, purchasingLog),
		CompleteReceipt: purchasing.NewCompleteReceiptUseCase(txRunner, reconciliation, ledger, recorder, purchasingLog),
		SalesOrderUC:    sales.NewSalesOrderUseCase(txRunner, ledger, recorder, log.Component("sales")),
		JWTSecret:       cfg.JWT.Secret,
		Log:             log,
		MetricsHandler:  metricsHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
