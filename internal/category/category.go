package category

import "strings"

// Category is one distinct product category.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
