package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
)

const cookieName = "cart_session"

func makeApp(svc *Service, carts cart.Store) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if email := c.Get("X-User-Email"); email != "" {
			c.Locals(auth.ContextKey, &jwt.Token{Claims: jwt.MapClaims{"sub": email, "role": c.Get("X-User-Role")}})
		}
		return c.Next()
	})
	app.Use(cart.Session(carts, cart.SessionConfig{CookieName: cookieName, TTL: time.Hour}))
	h := NewHandler(svc)
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/admin", auth.RequireRole(auth.RoleAdmin)))
	return app
}

func postPlaceOrder(t *testing.T, app *fiber.App, sid, form string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/place-order", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookieName+"="+sid)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("place-order failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, res.Header.Get("Location"), string(b)
}

func TestPlaceOrderHandler_RedirectsAndClearsCart(t *testing.T) {
	store := NewInMemoryStore(catalog())
	carts := cart.NewMemoryStore(time.Hour)
	app := makeApp(newTestService(store, Options{}), carts)

	sid := uuid.NewString()
	if err := carts.Save(context.Background(), sid, cartOf(map[int]int{2: 3})); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	status, loc, body := postPlaceOrder(t, app, sid, "email=new%40x.com&name=New")
	if status != fiber.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", status, body)
	}
	if loc != "/payment?order=1" {
		t.Fatalf("expected redirect to /payment?order=1, got %q", loc)
	}

	left, err := carts.Load(context.Background(), sid)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if !left.IsEmpty() {
		t.Fatalf("expected cart to be cleared, got %d lines", left.Len())
	}
	if stock, _ := store.Stock(2); stock != 7 {
		t.Fatalf("expected stock 7, got %d", stock)
	}
}

func TestPlaceOrderHandler_Failures(t *testing.T) {
	store := NewInMemoryStore(catalog())
	carts := cart.NewMemoryStore(time.Hour)
	app := makeApp(newTestService(store, Options{}), carts)

	t.Run("insufficient stock keeps the cart", func(t *testing.T) {
		sid := uuid.NewString()
		carts.Save(context.Background(), sid, cartOf(map[int]int{5: 3}))

		status, _, body := postPlaceOrder(t, app, sid, "email=x%40x.com&name=X")
		if status != fiber.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", status, body)
		}
		if !strings.Contains(body, "INSUFFICIENT_STOCK") {
			t.Fatalf("expected insufficient stock code, got %s", body)
		}
		left, _ := carts.Load(context.Background(), sid)
		if left.Quantity(5) != 3 {
			t.Fatalf("expected cart to keep 3 units, got %d", left.Quantity(5))
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		status, _, _ := postPlaceOrder(t, app, uuid.NewString(), "email=x%40x.com&name=X")
		if status != fiber.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", status)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		sid := uuid.NewString()
		carts.Save(context.Background(), sid, cartOf(map[int]int{404: 1}))
		status, _, _ := postPlaceOrder(t, app, sid, "email=x%40x.com&name=X")
		if status != fiber.StatusNotFound {
			t.Fatalf("expected 404, got %d", status)
		}
	})

	if store.OrderCount() != 0 {
		t.Fatalf("expected no orders, got %d", store.OrderCount())
	}
}

func TestMyOrdersAndAdminRoutes(t *testing.T) {
	store := NewInMemoryStore(catalog())
	store.AddCustomer(1, "Bo", "bo@x.com")
	svc := newTestService(store, Options{})
	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{Email: "bo@x.com", Name: "Bo", Cart: cartOf(map[int]int{1: 2})})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	app := makeApp(svc, cart.NewMemoryStore(time.Hour))

	get := func(path string, headers map[string]string) (int, []byte) {
		req := httptest.NewRequest("GET", path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		b, _ := io.ReadAll(res.Body)
		return res.StatusCode, b
	}
	customer := map[string]string{"X-User-Email": "bo@x.com", "X-User-Role": auth.RoleCustomer}
	admin := map[string]string{"X-User-Email": "admin@x.com", "X-User-Role": auth.RoleAdmin}

	if status, _ := get("/api/v1/orders", nil); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without login, got %d", status)
	}
	status, body := get("/api/v1/orders", customer)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var mine []Order
	if err := json.Unmarshal(body, &mine); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != o.ID || mine[0].Total.StringFixed(2) != "700.00" {
		t.Fatalf("unexpected orders: %+v", mine)
	}

	if status, _ := get("/admin/orders", customer); status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for customer on admin route, got %d", status)
	}
	if status, _ := get("/admin/orders?limit=10", admin); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	status, body = get("/admin/orders/1", admin)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var one Order
	if err := json.Unmarshal(body, &one); err != nil || len(one.Items) != 1 {
		t.Fatalf("unexpected order body %s (%v)", body, err)
	}
	if status, _ := get("/admin/orders/99", admin); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}
