package order

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes mounts checkout. The router must run the cart
// Session middleware.
func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/place-order", h.placeOrder)
	app.Get("/payment", h.payment)
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/orders", auth.RequireRole(auth.RoleCustomer), h.getMyOrders)
}

func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/orders", h.listOrders)
	admin.Get("/orders/:id<[0-9]+>", h.getOrder)
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	payload := new(PlaceOrderInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	payload.Cart = cart.FromCtx(c)

	placed, err := h.service.PlaceOrder(c.UserContext(), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}

	if err := cart.Clear(c); err != nil {
		logger.FromContext(c.UserContext()).Error("clear cart after checkout", zap.Int("order_id", placed.ID), zap.Error(err))
	}
	return c.Redirect("/payment?order="+strconv.Itoa(placed.ID), fiber.StatusSeeOther)
}

func (h *Handler) payment(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":  "Order received. Payment is not available yet.",
		"order_id": c.QueryInt("order"),
	})
}

func (h *Handler) getMyOrders(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	orders, err := h.service.ListByCustomerEmail(c.UserContext(), id.Email)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	o, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(o)
}
