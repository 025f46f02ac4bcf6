package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/storage"
	"github.com/mmynk/bookkeeper/internal/storage/memory"
)

// fakeView records the lists pushed by the presenter.
type fakeView struct {
	categories []models.Category
	expenses   []models.Expense
	budgets    []models.Budget
	pushes     int
}

func (v *fakeView) SetCategoryList(c []models.Category) { v.categories = c; v.pushes++ }
func (v *fakeView) SetExpenseList(e []models.Expense)   { v.expenses = e; v.pushes++ }
func (v *fakeView) SetBudgetList(b []models.Budget)     { v.budgets = b; v.pushes++ }

func setupPresenter(t *testing.T) (*Presenter, Handlers, *fakeView) {
	t.Helper()

	categories, err := memory.New(models.CategorySchema())
	require.NoError(t, err)
	expenses, err := memory.New(models.ExpenseSchema())
	require.NoError(t, err)
	budgets, err := memory.New(models.BudgetSchema())
	require.NoError(t, err)

	p := New(categories, expenses, budgets)
	h := p.Handlers()
	view := &fakeView{}
	require.NoError(t, p.Start(context.Background(), view))
	return p, h, view
}

func TestStartPushesEveryList(t *testing.T) {
	_, _, view := setupPresenter(t)
	assert.Equal(t, 3, view.pushes)
	assert.Empty(t, view.categories)
	assert.Empty(t, view.expenses)
	assert.Empty(t, view.budgets)
}

func TestCategoryHandlers(t *testing.T) {
	ctx := context.Background()
	_, h, view := setupPresenter(t)

	groceries := &models.Category{Name: "Groceries"}
	pk, err := h.Categories.Create(ctx, groceries)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pk)
	assert.Equal(t, []models.Category{*groceries}, view.categories)

	vegetables := &models.Category{Name: "Vegetables", Parent: models.StringPtr("Groceries")}
	_, err = h.Categories.Create(ctx, vegetables)
	require.NoError(t, err)
	assert.Len(t, view.categories, 2)

	children, err := h.Categories.List(ctx, map[string]string{"parent": "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, []models.Category{*vegetables}, children)

	roots, err := h.Categories.List(ctx, map[string]string{"parent": "None"})
	require.NoError(t, err)
	assert.Equal(t, []models.Category{*groceries}, roots)

	groceries.Name = "Food"
	require.NoError(t, h.Categories.Update(ctx, groceries))
	assert.Equal(t, "Food", view.categories[0].Name)

	require.NoError(t, h.Categories.Delete(ctx, groceries.Pk))
	assert.Equal(t, []models.Category{*vegetables}, view.categories, "delete must not cascade")

	got, err := h.Categories.Get(ctx, groceries.Pk)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	_, h, view := setupPresenter(t)

	tests := []struct {
		name   string
		create func() error
	}{
		{"blank category name", func() error {
			_, err := h.Categories.Create(ctx, &models.Category{Name: "   "})
			return err
		}},
		{"negative amount", func() error {
			_, err := h.Expenses.Create(ctx, &models.Expense{Category: 1, Amount: -1})
			return err
		}},
		{"infinite amount", func() error {
			_, err := h.Expenses.Create(ctx, &models.Expense{Category: 1, Amount: math.Inf(1)})
			return err
		}},
		{"infinite limit", func() error {
			_, err := h.Budgets.Create(ctx, &models.Budget{AmountLimit: math.Inf(1), Duration: models.Week})
			return err
		}},
		{"missing expense category", func() error {
			_, err := h.Expenses.Create(ctx, &models.Expense{Amount: 1})
			return err
		}},
		{"zero duration", func() error {
			_, err := h.Budgets.Create(ctx, &models.Budget{AmountLimit: 10})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.create(), ErrInvalid)
		})
	}
	assert.Equal(t, 3, view.pushes, "rejected writes must not refresh the view")
}

func TestExpenseRequiresExistingCategory(t *testing.T) {
	ctx := context.Background()
	_, h, view := setupPresenter(t)

	_, err := h.Expenses.Create(ctx, &models.Expense{ExpenseDate: models.NewDate(2024, 3, 1), Category: 7, Amount: 5})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Empty(t, view.expenses)

	c := &models.Category{Name: "Transport"}
	_, err = h.Categories.Create(ctx, c)
	require.NoError(t, err)

	e := &models.Expense{ExpenseDate: models.NewDate(2024, 3, 1), Category: c.Pk, Amount: 5, Comment: "bus"}
	_, err = h.Expenses.Create(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, []models.Expense{*e}, view.expenses)

	e.Category = 99
	assert.ErrorIs(t, h.Expenses.Update(ctx, e), ErrUnknownCategory)
}

func TestMisuseErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	_, h, _ := setupPresenter(t)

	_, err := h.Budgets.Create(ctx, &models.Budget{Pk: 3, AmountLimit: 1, Duration: models.Day})
	assert.ErrorIs(t, err, storage.ErrKeyAssigned)

	err = h.Budgets.Update(ctx, &models.Budget{AmountLimit: 1, Duration: models.Day})
	assert.ErrorIs(t, err, storage.ErrKeyUnassigned)

	assert.ErrorIs(t, h.Budgets.Delete(ctx, 42), storage.ErrNotFound)

	_, err = h.Budgets.List(ctx, map[string]string{"colour": "red"})
	assert.ErrorIs(t, err, storage.ErrUnknownField)

	_, err = h.Budgets.List(ctx, map[string]string{"duration": "week"})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	_, h, _ := setupPresenter(t)
	today := models.NewDate(2024, 3, 31)

	food := &models.Category{Name: "Food"}
	_, err := h.Categories.Create(ctx, food)
	require.NoError(t, err)
	fun := &models.Category{Name: "Fun"}
	_, err = h.Categories.Create(ctx, fun)
	require.NoError(t, err)

	for _, e := range []models.Expense{
		{ExpenseDate: today, Category: food.Pk, Amount: 12},
		{ExpenseDate: models.NewDate(2024, 3, 28), Category: fun.Pk, Amount: 50},
		{ExpenseDate: models.NewDate(2024, 3, 5), Category: food.Pk, Amount: 100},
	} {
		_, err := h.Expenses.Create(ctx, &e)
		require.NoError(t, err)
	}
	_, err = h.Budgets.Create(ctx, &models.Budget{AmountLimit: 50, Duration: models.Week})
	require.NoError(t, err)
	_, err = h.Budgets.Create(ctx, &models.Budget{AmountLimit: 200, Duration: models.Month, Category: &food.Pk})
	require.NoError(t, err)

	all, err := h.Summary(ctx, today, nil)
	require.NoError(t, err)
	assert.Nil(t, all.Category)
	require.Len(t, all.Windows, 3)
	assert.Equal(t, "12", all.Windows[0].Spent.String())
	assert.Equal(t, "62", all.Windows[1].Spent.String())
	assert.True(t, all.Windows[1].Over)
	assert.Equal(t, "162", all.Windows[2].Spent.String())
	assert.Nil(t, all.Windows[2].Limit)

	scoped, err := h.Summary(ctx, today, &food.Pk)
	require.NoError(t, err)
	require.NotNil(t, scoped.Category)
	assert.Equal(t, "Food", scoped.Category.Name)
	assert.Equal(t, "112", scoped.Windows[2].Spent.String())
	require.NotNil(t, scoped.Windows[2].Limit)
	assert.Equal(t, "88", scoped.Windows[2].Remaining.String())
	assert.False(t, scoped.Windows[2].Over)

	missing := int64(99)
	_, err = h.Summary(ctx, today, &missing)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSummaryIncludesSubcategories(t *testing.T) {
	ctx := context.Background()
	_, h, _ := setupPresenter(t)
	today := models.NewDate(2024, 3, 31)

	groceries := &models.Category{Name: "Groceries"}
	_, err := h.Categories.Create(ctx, groceries)
	require.NoError(t, err)
	vegetables := &models.Category{Name: "Vegetables", Parent: models.StringPtr("Groceries")}
	_, err = h.Categories.Create(ctx, vegetables)
	require.NoError(t, err)
	carrots := &models.Category{Name: "Carrots", Parent: models.StringPtr("Vegetables")}
	_, err = h.Categories.Create(ctx, carrots)
	require.NoError(t, err)

	for _, e := range []models.Expense{
		{ExpenseDate: today, Category: groceries.Pk, Amount: 5},
		{ExpenseDate: today, Category: vegetables.Pk, Amount: 12.5},
		{ExpenseDate: today, Category: carrots.Pk, Amount: 2},
	} {
		_, err := h.Expenses.Create(ctx, &e)
		require.NoError(t, err)
	}

	top, err := h.Summary(ctx, today, &groceries.Pk)
	require.NoError(t, err)
	assert.Equal(t, "19.5", top.Windows[1].Spent.String())
	assert.Equal(t, []string{"Vegetables", "Carrots"}, names(top.Subcategories))
	assert.Empty(t, top.Ancestors)

	mid, err := h.Summary(ctx, today, &vegetables.Pk)
	require.NoError(t, err)
	assert.Equal(t, "14.5", mid.Windows[1].Spent.String())
	assert.Equal(t, []string{"Groceries"}, names(mid.Ancestors))
}
