package recommended

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/api/v1/featured", h.getFeatured)
}

func (h *Handler) getFeatured(c *fiber.Ctx) error {
	items, err := h.service.Featured(c.UserContext(), c.QueryInt("limit", DefaultLimit))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(items)
}
