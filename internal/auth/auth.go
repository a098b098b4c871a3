// Package auth issues the session JWT cookie and exposes the optional
// identity of the caller to handlers.
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/config"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	// ContextKey is the fiber local holding the parsed *jwt.Token.
	ContextKey = "user"
)

// Identity is the authenticated caller. Impersonator holds the admin email
// while an admin browses as a customer.
type Identity struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Impersonator string `json:"impersonator,omitempty"`
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	cookie string
	secure bool
}

func NewIssuer(cfg config.AuthConfig) *Issuer {
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		cookie: cfg.CookieName,
		secure: cfg.CookieSecure,
	}
}

// Issue signs an HS256 token for id and returns it with its expiry.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	exp := time.Now().Add(i.ttl)
	claims := jwt.MapClaims{
		"sub":  id.Email,
		"name": id.Name,
		"role": id.Role,
		"exp":  exp.Unix(),
	}
	if id.Impersonator != "" {
		claims["imp"] = id.Impersonator
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// SetCookie issues a token for id and stores it in the session cookie.
func (i *Issuer) SetCookie(c *fiber.Ctx, id Identity) error {
	token, exp, err := i.Issue(id)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     i.cookie,
		Value:    token,
		Expires:  exp,
		HTTPOnly: true,
		Secure:   i.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (i *Issuer) ClearCookie(c *fiber.Ctx) {
	c.ClearCookie(i.cookie)
}

// Middleware parses the session cookie when present. Requests without a
// valid token pass through with no identity attached.
func (i *Issuer) Middleware() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    i.secret,
		SigningMethod: "HS256",
		ContextKey:    ContextKey,
		TokenLookup:   "cookie:" + i.cookie,
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Next()
		},
	})
}

// FromCtx returns the caller's identity, if any.
func FromCtx(c *fiber.Ctx) (Identity, bool) {
	tok, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok || tok == nil {
		return Identity{}, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, false
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return Identity{}, false
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	imp, _ := claims["imp"].(string)
	return Identity{Email: email, Name: name, Role: role, Impersonator: imp}, true
}

// RequireRole rejects callers without an identity (401) or with a
// different role (403).
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := FromCtx(c)
		if !ok {
			return apperror.Respond(c, apperror.Unauthorized("login required"))
		}
		if id.Role != role {
			return apperror.Respond(c, apperror.Forbidden("insufficient role"))
		}
		return c.Next()
	}
}
