package customer

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"go.uber.org/zap"
)

// OrderHistory lists the orders placed by a customer.
type OrderHistory interface {
	ListByCustomer(ctx context.Context, customerID int) ([]order.Order, error)
}

// Catalog feeds the dashboards.
type Catalog interface {
	Page(ctx context.Context, q product.Query) (product.Page, error)
	ListInStock(ctx context.Context, limit int) ([]product.Product, error)
}

// dashboardProducts is how many in-stock products the customer dashboard shows.
const dashboardProducts = 12

type Handler struct {
	service *Service
	issuer  *auth.Issuer
	orders  OrderHistory
	catalog Catalog
}

func NewHandler(service *Service, issuer *auth.Issuer, orders OrderHistory, catalog Catalog) *Handler {
	return &Handler{service: service, issuer: issuer, orders: orders, catalog: catalog}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/register", h.register)
	app.Post("/login", h.login)
	app.Post("/logout", h.logout)
}

// RegisterProtectedRoutes mounts the self-service profile endpoints. Only
// the customer role may use them.
func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	profile := app.Group("/api/v1/profile", auth.RequireRole(auth.RoleCustomer))
	profile.Get("", h.getProfile)
	profile.Post("", h.updateProfile)
	profile.Post("/password", h.changePassword)

	app.Get("/customer/dashboard", auth.RequireRole(auth.RoleCustomer), h.customerDashboard)
	app.Post("/stop-impersonation", auth.RequireRole(auth.RoleCustomer), h.stopImpersonation)
}

func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/dashboard", h.adminDashboard)
	admin.Get("/customers", h.listCustomers)
	admin.Get("/customers/:id<[0-9]+>", h.getCustomer)
	admin.Post("/customers/:id<[0-9]+>/toggle", h.toggleCustomer)
	admin.Delete("/customers/:id<[0-9]+>", h.deleteCustomer)
	admin.Post("/customers/:id<[0-9]+>/reset-password", h.resetPassword)
	admin.Post("/customers/:id<[0-9]+>/impersonate", h.impersonate)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(RegisterInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Register(c.UserContext(), *payload)
	if err != nil {
		var appErr *apperror.Error
		if errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr) {
			return c.Status(fiber.StatusBadRequest).JSON(appErr)
		}
		return apperror.Respond(c, err)
	}

	logger.FromContext(c.UserContext()).Info("customer registered", zap.Int("customer_id", created.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Customer registered successfully",
		"customer": created,
	})
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Email == "" || payload.Password == "" || payload.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required."})
	}

	var (
		id       auth.Identity
		redirect string
	)
	switch payload.Role {
	case auth.RoleAdmin:
		admin, err := h.service.AuthenticateAdmin(payload.Email, payload.Password)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid admin credentials"})
		}
		id = auth.Identity{Email: admin.Email, Name: admin.Name, Role: auth.RoleAdmin}
		redirect = "/admin/dashboard"
	case auth.RoleCustomer:
		cust, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
		if err != nil {
			if errors.Is(err, ErrInactive) {
				return apperror.Respond(c, err)
			}
			if errors.Is(err, apperror.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid customer credentials"})
			}
			return apperror.Respond(c, err)
		}
		id = auth.Identity{Email: cust.Email, Name: cust.Name, Role: auth.RoleCustomer}
		redirect = "/customer/dashboard"
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "role must be customer or admin"})
	}

	if err := h.issuer.SetCookie(c, id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"user":     id,
		"redirect": redirect,
	})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	h.issuer.ClearCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	cust, err := h.service.GetByEmail(c.UserContext(), id.Email)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(cust)
}

type profileRequest struct {
	Name string `json:"name" form:"name"`
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	payload := new(profileRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	updated, err := h.service.UpdateName(c.UserContext(), id.Email, payload.Name)
	if err != nil {
		return apperror.Respond(c, err)
	}
	// the cookie carries the display name
	id.Name = updated.Name
	if err := h.issuer.SetCookie(c, id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.JSON(fiber.Map{"message": "Profile updated.", "customer": updated})
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	payload := new(ChangePasswordInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.ChangePassword(c.UserContext(), id.Email, *payload); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated."})
}

func (h *Handler) listCustomers(c *fiber.Ctx) error {
	customers, err := h.service.List(c.UserContext(), Filter{
		Search: c.Query("search"),
		Status: Status(c.Query("status", string(StatusAll))),
	})
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(customers)
}

func (h *Handler) getCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	cust, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	orders, err := h.orders.ListByCustomer(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"customer": cust, "orders": orders})
}

func (h *Handler) toggleCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	cust, err := h.service.ToggleActive(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(cust)
}

func (h *Handler) deleteCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Customer deleted successfully."})
}

func (h *Handler) resetPassword(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	temp, err := h.service.ResetPassword(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	logger.FromContext(c.UserContext()).Info("customer password reset", zap.Int("customer_id", id))
	return c.JSON(fiber.Map{"temporary_password": temp})
}

func (h *Handler) customerDashboard(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	cust, err := h.service.GetByEmail(c.UserContext(), id.Email)
	if err != nil {
		return apperror.Respond(c, err)
	}
	products, err := h.catalog.ListInStock(c.UserContext(), dashboardProducts)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"customer":      cust,
		"products":      products,
		"impersonator":  id.Impersonator,
		"impersonating": id.Impersonator != "",
	})
}

func (h *Handler) adminDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := h.catalog.Page(ctx, product.Query{PerPage: 1})
	if err != nil {
		return apperror.Respond(c, err)
	}
	total, err := h.service.Count(ctx, Filter{Status: StatusAll})
	if err != nil {
		return apperror.Respond(c, err)
	}
	customers, err := h.service.List(ctx, Filter{Status: StatusAll})
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"total_products":  page.Total,
		"total_customers": total,
		"customers":       customers,
	})
}

// impersonate swaps the admin session for a customer one. The token keeps
// the admin email so the session can be handed back.
func (h *Handler) impersonate(c *fiber.Ctx) error {
	admin, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	cust, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}

	as := auth.Identity{Email: cust.Email, Name: cust.Name, Role: auth.RoleCustomer, Impersonator: admin.Email}
	if err := h.issuer.SetCookie(c, as); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	logger.FromContext(c.UserContext()).Info("admin impersonating customer",
		zap.String("admin", admin.Email),
		zap.Int("customer_id", cust.ID))
	return c.JSON(fiber.Map{
		"message":  "You are now impersonating " + cust.Name + ".",
		"user":     as,
		"redirect": "/customer/dashboard",
	})
}

func (h *Handler) stopImpersonation(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return apperror.Respond(c, apperror.Unauthorized("login required"))
	}
	admin := h.service.Admin()
	if id.Impersonator == "" || id.Impersonator != admin.Email {
		return apperror.Respond(c, apperror.Forbidden("not impersonating"))
	}

	restored := auth.Identity{Email: admin.Email, Name: admin.Name, Role: auth.RoleAdmin}
	if err := h.issuer.SetCookie(c, restored); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	return c.JSON(fiber.Map{
		"message":  "Stopped impersonation.",
		"user":     restored,
		"redirect": "/admin/dashboard",
	})
}
