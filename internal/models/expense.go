package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// Expense represents one spending event.
type Expense struct {
	// Pk is the key assigned by the store; zero until persisted.
	Pk int64

	// ExpenseDate is the calendar day the money was spent.
	ExpenseDate Date

	// Category is the key of the Category the expense belongs to.
	Category int64 `validate:"gt=0"`

	// Amount is the spent value.
	Amount float64 `validate:"finite,gte=0"`

	// Comment is free text.
	Comment string
}

// NewExpense builds an Expense from raw arguments:
// date (YYYY-MM-DD), category key, amount, then an optional comment.
// Values after the amount are joined with single spaces into the comment.
// With no arguments an empty expense dated today is returned.
func NewExpense(args ...string) (Expense, error) {
	if len(args) == 0 {
		return Expense{ExpenseDate: Today()}, nil
	}
	if len(args) < 3 {
		return Expense{}, fmt.Errorf("expense takes date, category, amount and optional comment, got %d values", len(args))
	}

	date, err := ParseDate(args[0])
	if err != nil {
		return Expense{}, err
	}
	category, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return Expense{}, fmt.Errorf("invalid category key %q", args[1])
	}
	amount, err := parseAmount("amount", args[2])
	if err != nil {
		return Expense{}, err
	}

	e := Expense{
		ExpenseDate: date,
		Category:    category,
		Amount:      amount,
	}
	if len(args) > 3 {
		e.Comment = strings.Join(args[3:], " ")
	}
	return e, nil
}

func (e Expense) String() string {
	return fmt.Sprintf("Expense(pk=%d, expense_date=%s, category=%d, amount=%s, comment=%s)",
		e.Pk, e.ExpenseDate, e.Category, formatAmount(e.Amount), e.Comment)
}

// ExpenseSchema describes how expenses are stored.
func ExpenseSchema() storage.Schema[Expense] {
	return storage.NewSchema(
		func(e *Expense) *int64 { return &e.Pk },
		storage.Column("expense_date", func(e *Expense) *Date { return &e.ExpenseDate }),
		storage.Column("category", func(e *Expense) *int64 { return &e.Category }),
		storage.Column("amount", func(e *Expense) *float64 { return &e.Amount }),
		storage.Column("comment", func(e *Expense) *string { return &e.Comment }),
	)
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

// parseAmount parses a finite number. Infinities and NaN cannot be summed.
func parseAmount(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
