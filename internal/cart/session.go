package cart

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"go.uber.org/zap"
)

const sessionLocal = "cart_session"

type session struct {
	id    string
	cart  *Cart
	store Store
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session attaches the caller's cart to the request, issuing a session
// cookie on first contact.
func Session(store Store, cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(cfg.CookieName)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cfg.CookieName,
				Value:    sid,
				Expires:  time.Now().Add(cfg.TTL),
				HTTPOnly: true,
				Secure:   cfg.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		crt, err := store.Load(c.UserContext(), sid)
		if err != nil {
			logger.FromContext(c.UserContext()).Error("load cart", zap.String("session_id", sid), zap.Error(err))
			return apperror.Respond(c, apperror.Persistence(err, "load cart"))
		}
		c.Locals(sessionLocal, &session{id: sid, cart: crt, store: store})
		return c.Next()
	}
}

func current(c *fiber.Ctx) *session {
	s, _ := c.Locals(sessionLocal).(*session)
	return s
}

// FromCtx returns the cart of the current session. Without a session an
// empty, unsaved cart is returned.
func FromCtx(c *fiber.Ctx) *Cart {
	if s := current(c); s != nil {
		return s.cart
	}
	return New()
}

// Persist saves crt as the session's cart.
func Persist(c *fiber.Ctx, crt *Cart) error {
	s := current(c)
	if s == nil {
		return apperror.Validation("no cart session")
	}
	s.cart = crt
	if err := s.store.Save(c.UserContext(), s.id, crt); err != nil {
		return apperror.Persistence(err, "save cart")
	}
	return nil
}

// Clear empties the session's cart.
func Clear(c *fiber.Ctx) error {
	s := current(c)
	if s == nil {
		return nil
	}
	s.cart = New()
	if err := s.store.Clear(c.UserContext(), s.id); err != nil {
		return apperror.Persistence(err, "clear cart")
	}
	return nil
}
