package inventory

import "github.com/shopspring/decimal"

var (
	// VarianceTolerancePercent tolerancia de cantidad (constante, igual para todos los tenants).
	VarianceTolerancePercent = decimal.NewFromInt(5)
	// PriceVarianceTolerance diferencias de precio hasta un centavo se consideran redondeo.
	PriceVarianceTolerance = decimal.NewFromFloat(0.01)

	hundred = decimal.NewFromInt(100)
)

// LineVariance datos de una línea recibida necesarios para clasificar la varianza.
type LineVariance struct {
	QuantityBase     decimal.Decimal // cantidad esperada contra la que se mide el %
	QuantityVariance decimal.Decimal // recibido - esperado
	PriceVariance    decimal.Decimal // precio recibido - precio ordenado
	GoodCondition    bool
}

// QuantityVariancePercent |varianza| / base * 100. Con base cero cualquier varianza es 100%.
func QuantityVariancePercent(variance, base decimal.Decimal) decimal.Decimal {
	if variance.IsZero() {
		return decimal.Zero
	}
	if !base.IsPositive() {
		return hundred
	}
	return variance.Abs().Div(base).Mul(hundred)
}

// IsMaterial indica si la línea requiere validación humana: varianza de cantidad > 5%,
// condición distinta de buena o diferencia de precio mayor a un centavo.
func (v LineVariance) IsMaterial() bool {
	if !v.GoodCondition {
		return true
	}
	if v.PriceVariance.Abs().GreaterThan(PriceVarianceTolerance) {
		return true
	}
	return QuantityVariancePercent(v.QuantityVariance, v.QuantityBase).GreaterThan(VarianceTolerancePercent)
}
