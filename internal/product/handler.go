package product

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/:id<[0-9]+>", h.getProduct)
}

// RegisterAdminRoutes mounts catalog management on a router that is already
// guarded for the admin role.
func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/products", h.listProducts)
	admin.Post("/products", h.createProduct)
	admin.Put("/products/:id<[0-9]+>", h.updateProduct)
	admin.Delete("/products/:id<[0-9]+>", h.deleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.ListInStock(c.UserContext(), c.QueryInt("limit", DefaultPerPage))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	q := Query{
		Search:  c.Query("search"),
		Sort:    c.Query("sort", "name"),
		Desc:    c.Query("direction") == "desc",
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", DefaultPerPage),
	}
	page, err := h.service.Page(c.UserContext(), q)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	p := new(Product)
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	p.ID = 0
	created, err := h.service.Create(c.UserContext(), *p)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	p := new(Product)
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	updated, err := h.service.Update(c.UserContext(), id, *p)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
