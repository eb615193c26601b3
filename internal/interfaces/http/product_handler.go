package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seppevistik/stockmanager/internal/application/catalog"
	"github.com/seppevistik/stockmanager/internal/application/dto"
)

// ProductHandler maneja las peticiones HTTP de productos (protegido).
type ProductHandler struct {
	uc *catalog.CatalogUseCase
	errorResponder
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.CatalogUseCase, errs errorResponder) *ProductHandler {
	return &ProductHandler{uc: uc, errorResponder: errs}
}

// Create godoc
// @Summary      Crear producto
// @Description  El SKU es único por tenant. initial_stock no genera movimiento.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CreateProduct(c.Context(), tenantID, in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetProduct(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}
