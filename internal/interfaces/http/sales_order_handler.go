package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/sales"
)

// SalesOrderHandler maneja el flujo de preparación y despacho de órdenes de venta (protegido).
type SalesOrderHandler struct {
	uc *sales.SalesOrderUseCase
	errorResponder
}

// NewSalesOrderHandler construye el handler.
func NewSalesOrderHandler(uc *sales.SalesOrderUseCase, errs errorResponder) *SalesOrderHandler {
	return &SalesOrderHandler{uc: uc, errorResponder: errs}
}

type salesStep func(ctx context.Context, tenantID, userID, id string) (*dto.SalesOrderResponse, error)

// step adapta una transición sin cuerpo (submit, confirm, queue, start-picking, ...).
func (h *SalesOrderHandler) step(fn salesStep) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, userID, ok := identity(c)
		if !ok {
			return unauthorized(c)
		}
		out, err := fn(c.Context(), tenantID, userID, c.Params("id"))
		if err != nil {
			return h.respond(c, err)
		}
		return c.JSON(out)
	}
}

// withReason adapta una transición que exige motivo (cancel, hold).
func (h *SalesOrderHandler) withReason(fn func(ctx context.Context, tenantID, userID, id string, in dto.ReasonRequest) (*dto.SalesOrderResponse, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, userID, ok := identity(c)
		if !ok {
			return unauthorized(c)
		}
		var in dto.ReasonRequest
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		out, err := fn(c.Context(), tenantID, userID, c.Params("id"), in)
		if err != nil {
			return h.respond(c, err)
		}
		return c.JSON(out)
	}
}

// Create godoc
// @Summary      Crear orden de venta (borrador)
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "Cliente, destino y líneas"
// @Success      201   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *SalesOrderHandler) Create(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.Context(), tenantID, userID, in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update reemplaza cabecera y líneas de una orden en borrador.
// PUT /api/sales-orders/:id
func (h *SalesOrderHandler) Update(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Delete elimina una orden en borrador.
// DELETE /api/sales-orders/:id
func (h *SalesOrderHandler) Delete(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.Context(), tenantID, userID, c.Params("id")); err != nil {
		return h.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CompletePicking godoc
// @Summary      Registrar cantidades preparadas
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la orden"
// @Param        body  body  dto.CompletePickingRequest  true  "Cantidad y ubicación por línea"
// @Success      200   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/complete-picking [post]
func (h *SalesOrderHandler) CompletePicking(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CompletePickingRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CompletePicking(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Ship godoc
// @Summary      Despachar orden empacada
// @Description  Descuenta del inventario lo preparado de cada línea en una sola transacción.
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true   "ID de la orden"
// @Param        body  body  dto.ShipOrderRequest  false  "Transportadora y guía"
// @Success      200   {object}  dto.SalesOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/ship [post]
func (h *SalesOrderHandler) Ship(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ShipOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.uc.Ship(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden de venta
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// List órdenes de venta del tenant.
// GET /api/sales-orders?status=&limit=&offset=
func (h *SalesOrderHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.List(c.Context(), tenantID, c.Query("status"), pageFromQuery(c))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(list)
}
