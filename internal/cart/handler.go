package cart

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes mounts the cart endpoints. The router must run the
// Session middleware.
func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/add-to-cart/:id", h.addToCart)
	app.Get("/checkout", h.checkout)
	app.Get("/api/v1/cart", h.checkout)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	crt := FromCtx(c)
	crt.Add(id)
	if err := Persist(c, crt); err != nil {
		return apperror.Respond(c, err)
	}
	return c.Redirect("/checkout", fiber.StatusSeeOther)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	crt := FromCtx(c)
	view, err := h.service.View(c.UserContext(), crt)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if len(view.Missing) > 0 {
		for _, id := range view.Missing {
			crt.Remove(id)
		}
		if err := Persist(c, crt); err != nil {
			return apperror.Respond(c, err)
		}
	}
	return c.JSON(view)
}
