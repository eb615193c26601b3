package inventory

import (
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// EvaluateReceiptLine rellena los campos de varianza de la línea a partir de los snapshots
// de la orden de compra y devuelve si la varianza es material.
func EvaluateReceiptLine(line *entity.ReceiptLine) bool {
	line.QuantityVariance = line.QuantityReceived.Sub(line.QuantityExpected)
	line.PriceVariance = decimal.Zero
	if line.UnitPriceReceived != nil {
		line.PriceVariance = line.UnitPriceReceived.Sub(line.UnitPriceOrdered)
	}
	line.HasVariance = LineVariance{
		QuantityBase:     line.QuantityExpected,
		QuantityVariance: line.QuantityVariance,
		PriceVariance:    line.PriceVariance,
		GoodCondition:    line.Condition == entity.ItemConditionGood,
	}.IsMaterial()
	return line.HasVariance
}

// EvaluateReceipt evalúa todas las líneas y decide el estado inicial:
// Validated si ninguna línea tiene varianza material, PendingValidation si alguna la tiene.
func EvaluateReceipt(r *entity.Receipt) {
	r.HasVariances = false
	for _, l := range r.Lines {
		if EvaluateReceiptLine(l) {
			r.HasVariances = true
		}
	}
	if r.HasVariances {
		r.Status = entity.ReceiptStatusPendingValidation
		return
	}
	r.Status = entity.ReceiptStatusValidated
}
