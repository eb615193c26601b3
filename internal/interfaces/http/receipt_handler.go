package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seppevistik/stockmanager/internal/application/dto"
	"github.com/seppevistik/stockmanager/internal/application/inventory"
	"github.com/seppevistik/stockmanager/internal/application/purchasing"
)

// ReceiptHandler maneja recepciones de mercancía y su conciliación con el inventario (protegido).
type ReceiptHandler struct {
	uc             *purchasing.ReceiptUseCase
	complete       *purchasing.CompleteReceiptUseCase
	reconciliation *inventory.ReconciliationService
	errorResponder
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *purchasing.ReceiptUseCase, complete *purchasing.CompleteReceiptUseCase, reconciliation *inventory.ReconciliationService, errs errorResponder) *ReceiptHandler {
	return &ReceiptHandler{uc: uc, complete: complete, reconciliation: reconciliation, errorResponder: errs}
}

// Create godoc
// @Summary      Registrar recepción contra una orden de compra
// @Description  Evalúa varianzas de cantidad, precio y estado; sin varianzas queda VALIDATED.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptRequest  true  "Orden de compra y líneas recibidas"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *ReceiptHandler) Create(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.Context(), tenantID, userID, in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Approve godoc
// @Summary      Aprobar recepción con varianzas
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID de la recepción"
// @Param        body  body  dto.ApproveReceiptRequest  false  "Notas de varianza"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/approve [post]
func (h *ReceiptHandler) Approve(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ApproveReceiptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.uc.Approve(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar recepción
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la recepción"
// @Param        body  body  dto.ReasonRequest  true  "Motivo"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/reject [post]
func (h *ReceiptHandler) Reject(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Reject(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Complete godoc
// @Summary      Completar recepción validada
// @Description  Ingresa la mercancía en buen estado al inventario, recalcula el costo promedio y actualiza la orden de compra en una sola transacción.
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/complete [post]
func (h *ReceiptHandler) Complete(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.complete.Complete(c.Context(), tenantID, userID, c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Rollback godoc
// @Summary      Revertir una recepción completada en inventario y en su orden de compra
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la recepción"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/rollback [post]
func (h *ReceiptHandler) Rollback(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	movements, err := h.reconciliation.RollbackReceiptFromInventory(c.Context(), tenantID, c.Params("id"), userID)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(dto.FromStockMovements(movements))
}

// Delete godoc
// @Summary      Eliminar recepción no completada
// @Tags         receipts
// @Security     Bearer
// @Param        id  path  string  true  "ID de la recepción"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c *fiber.Ctx) error {
	tenantID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.Context(), tenantID, userID, c.Params("id")); err != nil {
		return h.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener recepción
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
func (h *ReceiptHandler) GetByID(c *fiber.Ctx) error {
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

// List godoc
// @Summary      Listar recepciones
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Máximo 100"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.ReceiptResponse
// @Router       /api/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
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

// ListByPurchaseOrder godoc
// @Summary      Recepciones de una orden de compra
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden de compra"
// @Success      200  {array}   dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receipts [get]
func (h *ReceiptHandler) ListByPurchaseOrder(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListByPurchaseOrder(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(list)
}
