// Package metrics expone los eventos del motor y del HTTP en formato Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/seppevistik/stockmanager/internal/application/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implementa ports.Metrics sobre un registro propio.
type Prometheus struct {
	registry *prometheus.Registry

	movements        *prometheus.CounterVec
	movementQuantity *prometheus.CounterVec
	transitions      *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registra las métricas con el prefijo dado (ej. "stockmanager").
func New(prefix string) *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		movements: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_stock_movements_total",
			Help: "Movimientos de inventario confirmados por tipo",
		}, []string{"type"}),
		movementQuantity: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_stock_movement_quantity_total",
			Help: "Unidades movidas (valor absoluto) por tipo de movimiento",
		}, []string{"type"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_workflow_transitions_total",
			Help: "Transiciones de estado confirmadas por agregado y estado destino",
		}, []string{"aggregate", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total de peticiones HTTP",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// MovementRecorded cuenta un movimiento ya confirmado.
func (p *Prometheus) MovementRecorded(movementType string, quantity decimal.Decimal) {
	p.movements.WithLabelValues(movementType).Inc()
	p.movementQuantity.WithLabelValues(movementType).Add(quantity.Abs().InexactFloat64())
}

// Transition cuenta una transición de estado ya confirmada.
func (p *Prometheus) Transition(aggregate, status string) {
	p.transitions.WithLabelValues(aggregate, status).Inc()
}

// Middleware mide cada petición etiquetada por la ruta registrada.
func (p *Prometheus) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		path := c.Route().Path
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		p.httpRequests.WithLabelValues(labels...).Inc()
		p.httpDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler sirve /metrics.
func (p *Prometheus) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
