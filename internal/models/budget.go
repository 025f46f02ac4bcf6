package models

import (
	"fmt"
	"strconv"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// Window lengths, in days, offered by the budget table.
const (
	Day   = 1
	Week  = 7
	Month = 30
)

// Budget is a spending ceiling over a trailing window of days.
// Actual usage is never stored; it is summed from expenses on demand.
type Budget struct {
	// Pk is the key assigned by the store; zero until persisted.
	Pk int64

	// AmountLimit is the ceiling for the window.
	AmountLimit float64 `validate:"finite,gte=0"`

	// Duration is the window length in days.
	Duration int64 `validate:"gt=0"`

	// Category is the key of the category the limit applies to,
	// or nil for a limit over all spending.
	Category *int64
}

// NewBudget builds a Budget from raw arguments:
// limit, duration in days, then an optional category key ("None" for all).
// With no arguments an unscoped zero daily limit is returned.
func NewBudget(args ...string) (Budget, error) {
	if len(args) == 0 {
		return Budget{Duration: Day}, nil
	}
	if len(args) < 2 || len(args) > 3 {
		return Budget{}, fmt.Errorf("budget takes limit, duration and optional category, got %d values", len(args))
	}

	limit, err := parseAmount("limit", args[0])
	if err != nil {
		return Budget{}, err
	}
	duration, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return Budget{}, fmt.Errorf("invalid duration %q", args[1])
	}

	b := Budget{AmountLimit: limit, Duration: duration}
	if len(args) == 3 && !isNone(args[2]) {
		category, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return Budget{}, fmt.Errorf("invalid category key %q", args[2])
		}
		b.Category = &category
	}
	return b, nil
}

// IsUnscoped reports whether the budget covers all categories.
func (b Budget) IsUnscoped() bool {
	return b.Category == nil
}

func (b Budget) String() string {
	category := "None"
	if b.Category != nil {
		category = strconv.FormatInt(*b.Category, 10)
	}
	return fmt.Sprintf("Budget(pk=%d, amount_limit=%s, duration=%d, category=%s)",
		b.Pk, formatAmount(b.AmountLimit), b.Duration, category)
}

// BudgetSchema describes how budgets are stored.
func BudgetSchema() storage.Schema[Budget] {
	return storage.NewSchema(
		func(b *Budget) *int64 { return &b.Pk },
		storage.Column("amount_limit", func(b *Budget) *float64 { return &b.AmountLimit }),
		storage.Column("duration", func(b *Budget) *int64 { return &b.Duration }),
		storage.Column("category", func(b *Budget) **int64 { return &b.Category }),
	)
}
