package ports

import "github.com/shopspring/decimal"

// Metrics recibe eventos del motor para instrumentación. Las implementaciones no deben fallar.
type Metrics interface {
	MovementRecorded(movementType string, quantity decimal.Decimal)
	Transition(aggregate, status string)
}

// NopMetrics implementación vacía (tests, herramientas).
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string, decimal.Decimal) {}
func (NopMetrics) Transition(string, string)                {}
