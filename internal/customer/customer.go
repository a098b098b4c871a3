package customer

import (
	"strings"
	"time"
)

// Customer maps to the `customer` table. Guest rows are created by checkout
// for unregistered emails and can be upgraded by registering.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Active    bool      `json:"active"`
	Guest     bool      `json:"guest"`
	CreatedAt time.Time `json:"created_at"`
}

// Status filters customer listings.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Filter struct {
	Search string
	Status Status
}

func (f Filter) matches(c Customer) bool {
	switch f.Status {
	case StatusActive:
		if !c.Active {
			return false
		}
	case StatusInactive:
		if c.Active {
			return false
		}
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Email), needle)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
