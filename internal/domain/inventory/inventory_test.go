package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
	"github.com/seppevistik/stockmanager/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Costo promedio ponderado
// ──────────────────────────────────────────────────────────────────────────────

func TestCostCalculator(t *testing.T) {
	cases := []struct {
		name                        string
		stock, cost, qtyIn, priceIn decimal.Decimal
		want                        decimal.Decimal
	}{
		{"100 a 10 + 50 a 12", d("100"), d("10"), d("50"), d("12"), d("10.67")},
		{"stock cero toma el precio de entrada", d("0"), d("0"), d("20"), d("7.5"), d("7.5")},
		{"mismo precio no cambia el costo", d("40"), d("3.25"), d("10"), d("3.25"), d("3.25")},
		{"stock resultante cero conserva el costo", d("-5"), d("9"), d("5"), d("20"), d("9")},
		{"stock resultante negativo conserva el costo", d("-10"), d("9"), d("5"), d("20"), d("9")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.CostCalculator(tc.stock, tc.cost, tc.qtyIn, tc.priceIn)
			assert.True(t, tc.want.Equal(got), "esperado %s, obtenido %s", tc.want, got)
		})
	}
}

// Aplicar el mismo precio una segunda vez no mueve el costo ya calculado.
func TestCostCalculator_Idempotente(t *testing.T) {
	first := inventory.CostCalculator(d("100"), d("10"), d("50"), d("12"))
	second := inventory.CostCalculator(d("150"), first, d("0"), d("12"))
	assert.True(t, first.Equal(second))
}

// ──────────────────────────────────────────────────────────────────────────────
// Varianza de recepción
// ──────────────────────────────────────────────────────────────────────────────

func TestLineVariance_BandaDeTolerancia(t *testing.T) {
	cases := []struct {
		name     string
		received string
		material bool
	}{
		{"exacto", "100", false},
		{"95 por ciento", "95", false},
		{"105 por ciento", "105", false},
		{"94 por ciento", "94", true},
		{"106 por ciento", "106", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := inventory.LineVariance{
				QuantityBase:     d("100"),
				QuantityVariance: d(tc.received).Sub(d("100")),
				PriceVariance:    decimal.Zero,
				GoodCondition:    true,
			}
			assert.Equal(t, tc.material, v.IsMaterial())
		})
	}
}

func TestLineVariance_CondicionYPrecio(t *testing.T) {
	damaged := inventory.LineVariance{QuantityBase: d("10"), GoodCondition: false}
	assert.True(t, damaged.IsMaterial(), "mercancía dañada siempre requiere validación")

	rounding := inventory.LineVariance{QuantityBase: d("10"), PriceVariance: d("0.01"), GoodCondition: true}
	assert.False(t, rounding.IsMaterial(), "un centavo es redondeo")

	price := inventory.LineVariance{QuantityBase: d("10"), PriceVariance: d("-0.02"), GoodCondition: true}
	assert.True(t, price.IsMaterial())
}

func TestQuantityVariancePercent_BaseCero(t *testing.T) {
	assert.True(t, d("100").Equal(inventory.QuantityVariancePercent(d("3"), decimal.Zero)))
	assert.True(t, decimal.Zero.Equal(inventory.QuantityVariancePercent(decimal.Zero, decimal.Zero)))
}

func TestEvaluateReceipt(t *testing.T) {
	price := d("10.50")
	r := &entity.Receipt{Lines: []*entity.ReceiptLine{
		{QuantityExpected: d("50"), QuantityReceived: d("49"), UnitPriceOrdered: d("10.50"), Condition: entity.ItemConditionGood},
		{QuantityExpected: d("20"), QuantityReceived: d("20"), UnitPriceOrdered: d("10.00"), UnitPriceReceived: &price, Condition: entity.ItemConditionGood},
	}}
	inventory.EvaluateReceipt(r)

	assert.True(t, d("-1").Equal(r.Lines[0].QuantityVariance))
	assert.False(t, r.Lines[0].HasVariance)
	assert.True(t, d("0.50").Equal(r.Lines[1].PriceVariance))
	assert.True(t, r.Lines[1].HasVariance)
	assert.True(t, r.HasVariances)
	assert.Equal(t, entity.ReceiptStatusPendingValidation, r.Status)

	r.Lines = r.Lines[:1]
	inventory.EvaluateReceipt(r)
	assert.False(t, r.HasVariances)
	assert.Equal(t, entity.ReceiptStatusValidated, r.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reglas de stock por tipo de movimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestNextStock(t *testing.T) {
	cases := []struct {
		name     string
		previous string
		typ      entity.MovementType
		qty      string
		want     string
		kind     error
	}{
		{"entrada", "10", entity.MovementTypeStockIn, "5", "15", nil},
		{"salida", "10", entity.MovementTypeStockOut, "10", "0", nil},
		{"traslado descuenta", "10", entity.MovementTypeStockTransfer, "4", "6", nil},
		{"ajuste positivo", "10", entity.MovementTypeStockAdjustment, "3", "13", nil},
		{"ajuste negativo", "10", entity.MovementTypeStockAdjustment, "-3", "7", nil},
		{"salida mayor al stock", "10", entity.MovementTypeStockOut, "11", "", domain.ErrInsufficientStock},
		{"ajuste deja negativo", "2", entity.MovementTypeStockAdjustment, "-3", "", domain.ErrInsufficientStock},
		{"entrada en cero", "10", entity.MovementTypeStockIn, "0", "", domain.ErrInvalidInput},
		{"salida negativa", "10", entity.MovementTypeStockOut, "-1", "", domain.ErrInvalidInput},
		{"ajuste cero", "10", entity.MovementTypeStockAdjustment, "0", "", domain.ErrInvalidInput},
		{"tipo desconocido", "10", entity.MovementType("GIFT"), "1", "", domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := inventory.NextStock(d(tc.previous), tc.typ, d(tc.qty))
			if tc.kind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.kind)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tc.want).Equal(got), "esperado %s, obtenido %s", tc.want, got)
		})
	}
}
