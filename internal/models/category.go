package models

import (
	"fmt"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// AllCategories is the name of the catch-all root category.
const AllCategories = "Все"

// Category represents a spending category.
// Categories form a tree through Parent, which refers to the enclosing
// category by name rather than by key.
type Category struct {
	// Pk is the key assigned by the store; zero until persisted.
	Pk int64

	// Name is the display label.
	Name string `validate:"required,notblank"`

	// Parent is the name of the enclosing category, or nil for a root.
	// Deleting a parent leaves its children pointing at the old name.
	Parent *string
}

// NewCategory builds a Category from raw arguments: name, then parent.
// A missing or "None" parent makes the category a root. With no arguments
// the catch-all root category is returned.
func NewCategory(args ...string) (Category, error) {
	if len(args) == 0 {
		return Category{Name: AllCategories}, nil
	}
	if len(args) > 2 {
		return Category{}, fmt.Errorf("category takes name and optional parent, got %d values", len(args))
	}
	c := Category{Name: args[0]}
	if len(args) == 2 {
		c.Parent = optionalString(args[1])
	}
	return c, nil
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.Parent == nil
}

func (c Category) String() string {
	return fmt.Sprintf("Category(pk=%d, name=%s, parent=%s)", c.Pk, c.Name, stringOrNone(c.Parent))
}

// CategorySchema describes how categories are stored.
func CategorySchema() storage.Schema[Category] {
	return storage.NewSchema(
		func(c *Category) *int64 { return &c.Pk },
		storage.Column("name", func(c *Category) *string { return &c.Name }),
		storage.Column("parent", func(c *Category) **string { return &c.Parent }),
	)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 {
	return &n
}

func optionalString(s string) *string {
	if isNone(s) {
		return nil
	}
	return &s
}

func isNone(s string) bool {
	return s == "" || s == "None" || s == "NULL"
}

func stringOrNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
