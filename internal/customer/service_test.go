package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(seed []Customer) *Service {
	hash, _ := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	s := NewService(NewInMemoryRepository(seed), Admin{Email: "admin@example.com", Name: "Admin", PasswordHash: hash})
	s.cost = bcrypt.MinCost
	return s
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()

	c, err := s.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", c.Email)
	assert.True(t, c.Active)
	assert.NotEqual(t, "secret1", c.Password)

	_, err = s.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = s.Register(ctx, RegisterInput{Name: "", Email: "bad", Password: "x"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	got, err := s.Authenticate(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = s.Authenticate(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = s.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = s.ToggleActive(ctx, c.ID)
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, "ann@example.com", "secret1")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestService_RegisterUpgradesGuest(t *testing.T) {
	s := newTestService([]Customer{{ID: 4, Name: "Guest Buyer", Email: "g@example.com", Password: "$2a$placeholder", Active: true, Guest: true}})
	ctx := context.Background()

	_, err := s.Authenticate(ctx, "g@example.com", "anything")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	c, err := s.Register(ctx, RegisterInput{Name: "Grace", Email: "g@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, 4, c.ID)
	assert.False(t, c.Guest)
	assert.Equal(t, "Grace", c.Name)

	_, err = s.Authenticate(ctx, "g@example.com", "secret1")
	assert.NoError(t, err)
}

func TestService_AuthenticateAdmin(t *testing.T) {
	s := newTestService(nil)

	a, err := s.AuthenticateAdmin("ADMIN@example.com", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", a.Email)

	_, err = s.AuthenticateAdmin("admin@example.com", "nope")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestService_PasswordManagement(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	c, err := s.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = s.ChangePassword(ctx, c.Email, ChangePasswordInput{Current: "secret1", New: "secret2", Confirm: "secret3"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = s.ChangePassword(ctx, c.Email, ChangePasswordInput{Current: "wrong", New: "secret2", Confirm: "secret2"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, s.ChangePassword(ctx, c.Email, ChangePasswordInput{Current: "secret1", New: "secret2", Confirm: "secret2"}))
	_, err = s.Authenticate(ctx, c.Email, "secret2")
	require.NoError(t, err)

	temp, err := s.ResetPassword(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, temp, 8)
	assert.Regexp(t, `^[A-Za-z0-9]{8}$`, temp)
	_, err = s.Authenticate(ctx, c.Email, temp)
	assert.NoError(t, err)

	updated, err := s.UpdateName(ctx, c.Email, "Annie")
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
}

func TestService_ListFilters(t *testing.T) {
	s := newTestService([]Customer{
		{ID: 1, Name: "Ann", Email: "ann@example.com", Active: true},
		{ID: 2, Name: "Bob", Email: "bob@shop.test", Active: false},
		{ID: 3, Name: "Cara", Email: "cara@example.com", Active: true},
	})
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inactive, err := s.List(ctx, Filter{Status: StatusInactive})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "Bob", inactive[0].Name)

	found, err := s.List(ctx, Filter{Search: "EXAMPLE", Status: StatusActive})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
