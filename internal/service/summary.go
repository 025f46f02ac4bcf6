package service

import (
	"context"
	"fmt"

	"github.com/mmynk/bookkeeper/internal/calculator"
	"github.com/mmynk/bookkeeper/internal/models"
)

// Summary is the spending picture for every standard window.
type Summary struct {
	// Category is the category the summary is scoped to, or nil for all spending.
	Category *models.Category

	// Ancestors are the parents of Category, nearest first.
	Ancestors []models.Category

	// Subcategories are every category below Category; their expenses count
	// towards its totals.
	Subcategories []models.Category

	Windows []calculator.WindowSummary
}

// Summary computes spending against budgets as of today.
// A nil category summarises all expenses against unscoped budgets. A scoped
// summary includes the expenses of every subcategory.
func (p *Presenter) Summary(ctx context.Context, today models.Date, category *int64) (Summary, error) {
	var summary Summary
	if category != nil {
		c, err := p.categories.Get(ctx, *category)
		if err != nil {
			return Summary{}, fmt.Errorf("get category: %w", err)
		}
		if c == nil {
			return Summary{}, fmt.Errorf("%w: %d", ErrUnknownCategory, *category)
		}
		summary.Category = c

		categories, err := p.categories.GetAll(ctx, nil)
		if err != nil {
			return Summary{}, fmt.Errorf("list categories: %w", err)
		}
		summary.Ancestors = Ancestors(categories, *c)
		summary.Subcategories = Descendants(categories, *c)
	}

	expenses, err := p.expenses.GetAll(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("list expenses: %w", err)
	}
	budgets, err := p.budgets.GetAll(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("list budgets: %w", err)
	}

	spends := make([]calculator.Spend, len(expenses))
	for i, e := range expenses {
		spends[i] = calculator.Spend{Date: e.ExpenseDate.Time, Category: e.Category, Amount: e.Amount}
	}
	limits := make([]calculator.Limit, len(budgets))
	for i, b := range budgets {
		limits[i] = calculator.Limit{Pk: b.Pk, Days: int(b.Duration), Category: b.Category, Amount: b.AmountLimit}
	}

	members := make([]int64, len(summary.Subcategories))
	for i, sub := range summary.Subcategories {
		members[i] = sub.Pk
	}
	summary.Windows = calculator.Summarize(spends, limits, category, today.Time, members...)
	return summary, nil
}
