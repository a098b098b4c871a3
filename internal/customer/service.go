package customer

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/wichananm65/storefront-backend/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Admin is the single configured back-office account.
type Admin struct {
	Email        string
	Name         string
	PasswordHash []byte
}

// NewAdmin hashes password once at start-up.
func NewAdmin(email, password string) (Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, err
	}
	return Admin{Email: normalizeEmail(email), Name: "Admin", PasswordHash: hash}, nil
}

type Service struct {
	repo  Repository
	admin Admin
	cost  int
}

func NewService(repo Repository, admin Admin) *Service {
	return &Service{repo: repo, admin: admin, cost: bcrypt.DefaultCost}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Register creates a customer account. A guest record left behind by an
// earlier checkout with the same email is upgraded in place.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Customer, error) {
	in.Email = normalizeEmail(in.Email)
	if err := apperror.Validate(in); err != nil {
		return Customer{}, err
	}
	hashed, err := s.hash(in.Password)
	if err != nil {
		return Customer{}, err
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.Guest:
		existing.Name = in.Name
		existing.Password = hashed
		existing.Guest = false
		existing.Active = true
		return s.repo.Update(ctx, existing.ID, existing)
	case err == nil:
		return Customer{}, ErrEmailExists
	case !errors.Is(err, ErrNotFound):
		return Customer{}, err
	}

	return s.repo.Create(ctx, Customer{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashed,
		Active:   true,
	})
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Customer, error) {
	c, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Customer{}, ErrInvalidCredentials
		}
		return Customer{}, err
	}
	if c.Guest || bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password)) != nil {
		return Customer{}, ErrInvalidCredentials
	}
	if !c.Active {
		return Customer{}, ErrInactive
	}
	return c, nil
}

func (s *Service) AuthenticateAdmin(email, password string) (Admin, error) {
	if s.admin.Email == "" || normalizeEmail(email) != s.admin.Email {
		return Admin{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(s.admin.PasswordHash, []byte(password)) != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return s.admin, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Customer, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

func (s *Service) List(ctx context.Context, f Filter) ([]Customer, error) {
	if f.Status == "" {
		f.Status = StatusAll
	}
	return s.repo.List(ctx, f)
}

// Count reports how many customers match f.
func (s *Service) Count(ctx context.Context, f Filter) (int, error) {
	if f.Status == "" {
		f.Status = StatusAll
	}
	return s.repo.Count(ctx, f)
}

// Admin returns the configured back-office account.
func (s *Service) Admin() Admin {
	return s.admin
}

func (s *Service) UpdateName(ctx context.Context, email, name string) (Customer, error) {
	if name == "" {
		return Customer{}, apperror.Validation("name is required")
	}
	c, err := s.GetByEmail(ctx, email)
	if err != nil {
		return Customer{}, err
	}
	c.Name = name
	return s.repo.Update(ctx, c.ID, c)
}

type ChangePasswordInput struct {
	Current string `json:"current_password" form:"current_password" validate:"required"`
	New     string `json:"new_password" form:"new_password" validate:"required,min=6"`
	Confirm string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=New"`
}

func (s *Service) ChangePassword(ctx context.Context, email string, in ChangePasswordInput) error {
	if err := apperror.Validate(in); err != nil {
		return err
	}
	c, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(in.Current)) != nil {
		return apperror.Validation("current password is incorrect")
	}
	hashed, err := s.hash(in.New)
	if err != nil {
		return err
	}
	c.Password = hashed
	_, err = s.repo.Update(ctx, c.ID, c)
	return err
}

func (s *Service) ToggleActive(ctx context.Context, id int) (Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	c.Active = !c.Active
	return s.repo.Update(ctx, id, c)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// ResetPassword replaces the password with a random eight character one and
// returns it in clear text so an admin can pass it on.
func (s *Service) ResetPassword(ctx context.Context, id int) (string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	temp, err := randomString(8)
	if err != nil {
		return "", err
	}
	hashed, err := s.hash(temp)
	if err != nil {
		return "", err
	}
	c.Password = hashed
	if _, err := s.repo.Update(ctx, id, c); err != nil {
		return "", err
	}
	return temp, nil
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
