package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seppevistik/stockmanager/internal/infrastructure/metrics"
)

func TestPrometheus_ExponeEventosDelMotor(t *testing.T) {
	m := metrics.New("stock_test")
	m.MovementRecorded("STOCK_IN", decimal.NewFromInt(5))
	m.MovementRecorded("STOCK_ADJUSTMENT", decimal.NewFromInt(-3))
	m.Transition("purchase_order", "SUBMITTED")

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(body)

	assert.Contains(t, out, `stock_test_stock_movements_total{type="STOCK_IN"} 1`)
	assert.Contains(t, out, `stock_test_stock_movement_quantity_total{type="STOCK_ADJUSTMENT"} 3`)
	assert.Contains(t, out, `stock_test_workflow_transitions_total{aggregate="purchase_order",status="SUBMITTED"} 1`)
	assert.Contains(t, out, `stock_test_http_requests_total{method="GET",path="/ping",status="200"} 1`)
}
