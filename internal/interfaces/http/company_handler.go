package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seppevistik/stockmanager/internal/application/catalog"
	"github.com/seppevistik/stockmanager/internal/application/dto"
)

// CompanyHandler maneja proveedores y clientes (protegido).
type CompanyHandler struct {
	uc *catalog.CatalogUseCase
	errorResponder
}

func NewCompanyHandler(uc *catalog.CatalogUseCase, errs errorResponder) *CompanyHandler {
	return &CompanyHandler{uc: uc, errorResponder: errs}
}

// Create godoc
// @Summary      Crear empresa (proveedor y/o cliente)
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCompanyRequest  true  "Datos de la empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CreateCompany(c.Context(), tenantID, in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GET /api/companies/:id
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetCompany(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}
