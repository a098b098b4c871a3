package recommended

const (
	// DefaultLimit matches the four-tile strip on the landing page.
	DefaultLimit = 4
	MaxLimit     = 24
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
