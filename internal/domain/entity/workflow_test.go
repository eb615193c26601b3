package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seppevistik/stockmanager/internal/domain"
	"github.com/seppevistik/stockmanager/internal/domain/entity"
)

var now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newPurchaseOrder(t *testing.T, qty ...string) *entity.PurchaseOrder {
	t.Helper()
	po := &entity.PurchaseOrder{ID: "po-1", Status: entity.PurchaseOrderStatusDraft, Tax: d("19"), Shipping: d("5")}
	var lines []*entity.PurchaseOrderLine
	for _, q := range qty {
		l, err := entity.NewPurchaseOrderLine("prod-1", d(q), d("2.50"), "")
		require.NoError(t, err)
		lines = append(lines, l)
	}
	require.NoError(t, po.ReplaceLines(lines))
	return po
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de compra
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchaseOrderStatus_TablaDeTransiciones(t *testing.T) {
	cases := []struct {
		from, to entity.PurchaseOrderStatus
		ok       bool
	}{
		{entity.PurchaseOrderStatusDraft, entity.PurchaseOrderStatusSubmitted, true},
		{entity.PurchaseOrderStatusDraft, entity.PurchaseOrderStatusConfirmed, false},
		{entity.PurchaseOrderStatusSubmitted, entity.PurchaseOrderStatusReceiving, true},
		{entity.PurchaseOrderStatusConfirmed, entity.PurchaseOrderStatusCancelled, true},
		{entity.PurchaseOrderStatusReceiving, entity.PurchaseOrderStatusCancelled, false},
		{entity.PurchaseOrderStatusPartiallyReceived, entity.PurchaseOrderStatusCompleted, true},
		{entity.PurchaseOrderStatusCompleted, entity.PurchaseOrderStatusReceiving, false},
		{entity.PurchaseOrderStatusCancelled, entity.PurchaseOrderStatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPurchaseOrder_Totales(t *testing.T) {
	po := newPurchaseOrder(t, "10", "4")
	assert.True(t, d("35").Equal(po.Subtotal))
	assert.True(t, d("59").Equal(po.Total))
}

func TestPurchaseOrder_FlujoYEdicionSoloEnBorrador(t *testing.T) {
	po := newPurchaseOrder(t, "10")
	require.NoError(t, po.Edit())
	require.NoError(t, po.Submit(now))
	assert.NotNil(t, po.SubmittedAt)

	err := po.Edit()
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, po.Submit(now), domain.ErrInvalidState)

	delivery := now.Add(72 * time.Hour)
	require.NoError(t, po.Confirm(&delivery, now))
	assert.Equal(t, entity.PurchaseOrderStatusConfirmed, po.Status)
	assert.Equal(t, &delivery, po.ConfirmedDeliveryDate)
}

func TestPurchaseOrder_CancelarConMercanciaRecibida(t *testing.T) {
	po := newPurchaseOrder(t, "10")
	require.NoError(t, po.Submit(now))
	require.True(t, po.StartReceiving(now))
	require.NoError(t, po.Lines[0].Receive(d("3")))

	err := po.Cancel("proveedor sin stock", now)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "Cannot cancel purchase order with received items", domain.Message(err))
}

func TestPurchaseOrder_CancelarExigeMotivo(t *testing.T) {
	po := newPurchaseOrder(t, "10")
	assert.ErrorIs(t, po.Cancel("", now), domain.ErrInvalidInput)

	require.NoError(t, po.Cancel("duplicada", now))
	assert.Equal(t, entity.PurchaseOrderStatusCancelled, po.Status)
	assert.Equal(t, entity.PurchaseOrderLineStatusCancelled, po.Lines[0].Status)
}

func TestPurchaseOrderLine_RecepcionYPendiente(t *testing.T) {
	po := newPurchaseOrder(t, "10")
	line := po.Lines[0]

	require.NoError(t, line.Receive(d("4")))
	assert.Equal(t, entity.PurchaseOrderLineStatusPartiallyReceived, line.Status)
	assert.True(t, d("6").Equal(line.QuantityOutstanding))

	err := line.Receive(d("7"))
	assert.ErrorIs(t, err, domain.ErrInvariantViolation, "no se admite sobre-recepción")
	assert.True(t, d("4").Equal(line.QuantityReceived), "un rechazo no modifica la línea")

	require.NoError(t, line.Receive(d("6")))
	assert.Equal(t, entity.PurchaseOrderLineStatusFullyReceived, line.Status)
	assert.True(t, line.QuantityOutstanding.IsZero())
	assert.True(t, line.QuantityOrdered.Equal(line.QuantityReceived.Add(line.QuantityOutstanding)))
}

func TestPurchaseOrder_RecalculoDeEstadoTrasRecepcion(t *testing.T) {
	po := newPurchaseOrder(t, "10", "5")
	require.NoError(t, po.Submit(now))
	po.StartReceiving(now)

	require.NoError(t, po.Lines[0].Receive(d("10")))
	require.NoError(t, po.RecomputeReceiptStatus(now))
	assert.Equal(t, entity.PurchaseOrderStatusPartiallyReceived, po.Status)
	assert.Nil(t, po.CompletedAt)

	require.NoError(t, po.Lines[1].Receive(d("5")))
	require.NoError(t, po.RecomputeReceiptStatus(now))
	assert.Equal(t, entity.PurchaseOrderStatusCompleted, po.Status)
	assert.NotNil(t, po.CompletedAt)
}

func TestPurchaseOrder_RevertirRecepcionDevuelvePendiente(t *testing.T) {
	po := newPurchaseOrder(t, "10", "5")
	require.NoError(t, po.Submit(now))
	po.StartReceiving(now)
	require.NoError(t, po.Lines[0].Receive(d("4")))
	require.NoError(t, po.RecomputeReceiptStatus(now))
	require.NoError(t, po.Lines[0].Receive(d("6")))
	require.NoError(t, po.RecomputeReceiptStatus(now))

	second := &entity.Receipt{Lines: []*entity.ReceiptLine{{PurchaseOrderLineID: po.Lines[0].ID, QuantityReceived: d("6")}}}
	require.NoError(t, po.RevertReceipt(second, now))
	assert.Equal(t, entity.PurchaseOrderStatusPartiallyReceived, po.Status)
	assert.Equal(t, entity.PurchaseOrderLineStatusPartiallyReceived, po.Lines[0].Status)
	assert.True(t, d("6").Equal(po.Lines[0].QuantityOutstanding))

	first := &entity.Receipt{Lines: []*entity.ReceiptLine{{PurchaseOrderLineID: po.Lines[0].ID, QuantityReceived: d("4")}}}
	require.NoError(t, po.RevertReceipt(first, now))
	assert.Equal(t, entity.PurchaseOrderStatusReceiving, po.Status)
	assert.Equal(t, entity.PurchaseOrderLineStatusPending, po.Lines[0].Status)
	assert.False(t, po.HasReceivedItems())

	err := po.Lines[0].Unreceive(d("1"))
	assert.ErrorIs(t, err, domain.ErrInvariantViolation, "no se descuenta más de lo recibido")
}

func TestPurchaseOrder_CompletadaNoAdmiteReversion(t *testing.T) {
	po := newPurchaseOrder(t, "10")
	require.NoError(t, po.Submit(now))
	po.StartReceiving(now)
	require.NoError(t, po.Lines[0].Receive(d("10")))
	require.NoError(t, po.RecomputeReceiptStatus(now))

	r := &entity.Receipt{Lines: []*entity.ReceiptLine{{PurchaseOrderLineID: po.Lines[0].ID, QuantityReceived: d("10")}}}
	assert.ErrorIs(t, po.RevertReceipt(r, now), domain.ErrInvalidState)
	assert.Equal(t, entity.PurchaseOrderStatusCompleted, po.Status)
	assert.True(t, d("10").Equal(po.Lines[0].QuantityReceived))
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción
// ──────────────────────────────────────────────────────────────────────────────

func TestReceipt_AprobarYRechazar(t *testing.T) {
	r := &entity.Receipt{Status: entity.ReceiptStatusPendingValidation}
	assert.ErrorIs(t, r.CheckCompletable(), domain.ErrInvalidState)

	err := r.Reject("user-2", "", now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.ReceiptStatusPendingValidation, r.Status)

	require.NoError(t, r.Approve("user-2", "faltante aceptado", now))
	assert.Equal(t, entity.ReceiptStatusValidated, r.Status)
	assert.Equal(t, "user-2", r.ValidatedBy)
	assert.Equal(t, "faltante aceptado", r.VarianceNotes)

	assert.ErrorIs(t, r.Reject("user-2", "tarde", now), domain.ErrInvalidState)
	require.NoError(t, r.MarkCompleted(now))
	assert.ErrorIs(t, r.CanDelete(), domain.ErrInvalidState)

	require.NoError(t, r.MarkRolledBack(now))
	assert.Equal(t, entity.ReceiptStatusRolledBack, r.Status)
	assert.ErrorIs(t, r.MarkRolledBack(now), domain.ErrInvalidState, "una recepción se revierte una sola vez")
	assert.ErrorIs(t, r.CanDelete(), domain.ErrInvalidState)
}

func TestReceiptLine_SoloBuenEstadoEntraAlStock(t *testing.T) {
	good := &entity.ReceiptLine{Condition: entity.ItemConditionGood, QuantityReceived: d("1")}
	damaged := &entity.ReceiptLine{Condition: entity.ItemConditionDamaged, QuantityReceived: d("1")}
	empty := &entity.ReceiptLine{Condition: entity.ItemConditionGood, QuantityReceived: decimal.Zero}
	assert.True(t, good.AddsToStock())
	assert.False(t, damaged.AddsToStock())
	assert.False(t, empty.AddsToStock())

	price := d("3.10")
	good.UnitPriceOrdered = d("3")
	assert.True(t, d("3").Equal(good.EffectiveUnitPrice()))
	good.UnitPriceReceived = &price
	assert.True(t, price.Equal(good.EffectiveUnitPrice()))
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de venta
// ──────────────────────────────────────────────────────────────────────────────

func newSalesOrder(t *testing.T) *entity.SalesOrder {
	t.Helper()
	product := &entity.Product{ID: "prod-1", SKU: "SKU-1", Name: "Tornillo"}
	line, err := entity.NewSalesOrderLine(product, d("10"), d("4"), d("10"))
	require.NoError(t, err)
	so := &entity.SalesOrder{ID: "so-1", Status: entity.SalesOrderStatusDraft}
	require.NoError(t, so.ReplaceLines([]*entity.SalesOrderLine{line}))
	return so
}

func TestSalesOrderLine_Descuento(t *testing.T) {
	so := newSalesOrder(t)
	assert.True(t, d("36").Equal(so.Lines[0].LineTotal))
	assert.True(t, d("36").Equal(so.Subtotal))

	_, err := entity.NewSalesOrderLine(&entity.Product{ID: "p"}, d("1"), d("1"), d("101"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSalesOrder_FlujoCompleto(t *testing.T) {
	so := newSalesOrder(t)
	lineID := so.Lines[0].ID

	require.NoError(t, so.Submit(now))
	require.NoError(t, so.Confirm(now))
	require.NoError(t, so.QueueForPicking(now))
	require.NoError(t, so.StartPicking(now))

	err := so.CompletePicking(map[string]entity.PickInput{lineID: {Quantity: d("11")}}, "picker", now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no se puede preparar más de lo ordenado")

	require.NoError(t, so.CompletePicking(map[string]entity.PickInput{lineID: {Quantity: d("10"), Location: "A-1"}}, "picker", now))
	assert.True(t, so.Lines[0].QuantityOutstanding.IsZero())

	assert.ErrorIs(t, so.CheckShippable(), domain.ErrInvalidState)
	require.NoError(t, so.StartPacking(now))
	require.NoError(t, so.CompletePacking(now))
	require.NoError(t, so.MarkShipped("DHL", "TRK-1", now))
	assert.True(t, d("10").Equal(so.Lines[0].QuantityShipped))
	assert.Equal(t, entity.SalesOrderStatusShipped, so.Lines[0].Status)

	assert.ErrorIs(t, so.Cancel("cliente desistió", now), domain.ErrInvalidState)
	require.NoError(t, so.MarkDelivered(now))
	assert.True(t, so.Status.IsTerminal())
}

func TestSalesOrder_RetenerYLiberar(t *testing.T) {
	so := newSalesOrder(t)
	require.NoError(t, so.Submit(now))

	assert.ErrorIs(t, so.Hold("", now), domain.ErrInvalidInput)
	require.NoError(t, so.Hold("crédito bloqueado", now))
	assert.Equal(t, entity.SalesOrderStatusOnHold, so.Status)
	assert.ErrorIs(t, so.StartPicking(now), domain.ErrInvalidState)

	require.NoError(t, so.Release(now))
	assert.Equal(t, entity.SalesOrderStatusConfirmed, so.Status)
	assert.Empty(t, so.HoldReason)
}

func TestSalesOrderStatus_CanceladaYRetenidaDesdeNoTerminales(t *testing.T) {
	for _, s := range []entity.SalesOrderStatus{
		entity.SalesOrderStatusDraft, entity.SalesOrderStatusSubmitted, entity.SalesOrderStatusConfirmed,
		entity.SalesOrderStatusAwaitingPickup, entity.SalesOrderStatusPicking, entity.SalesOrderStatusPicked,
		entity.SalesOrderStatusPacking, entity.SalesOrderStatusPacked,
	} {
		assert.True(t, s.CanTransitionTo(entity.SalesOrderStatusCancelled), s)
		assert.True(t, s.CanTransitionTo(entity.SalesOrderStatusOnHold), s)
	}
	assert.False(t, entity.SalesOrderStatusShipped.CanTransitionTo(entity.SalesOrderStatusCancelled))
	assert.False(t, entity.SalesOrderStatusDelivered.CanTransitionTo(entity.SalesOrderStatusOnHold))
	assert.False(t, entity.SalesOrderStatusOnHold.CanTransitionTo(entity.SalesOrderStatusPicking))
}
