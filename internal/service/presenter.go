// Package service wires the storage repositories to a presentation layer.
//
// The Presenter owns one repository per record type. A view receives the
// presenter's Handlers at construction and gets fresh lists pushed to it
// after every successful mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/storage"
)

// ErrUnknownCategory is returned when an expense refers to a category key
// that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

// View is the presentation layer driven by the Presenter.
type View interface {
	SetCategoryList(categories []models.Category)
	SetExpenseList(expenses []models.Expense)
	SetBudgetList(budgets []models.Budget)
}

// EntityHandlers are the operations a view may invoke for one record type.
// List takes raw field/value strings as typed by the user.
type EntityHandlers[T any] struct {
	Create func(ctx context.Context, rec *T) (int64, error)
	Update func(ctx context.Context, rec *T) error
	Delete func(ctx context.Context, pk int64) error
	Get    func(ctx context.Context, pk int64) (*T, error)
	List   func(ctx context.Context, filter map[string]string) ([]T, error)
}

// Handlers bundles every operation a view may invoke.
type Handlers struct {
	Categories EntityHandlers[models.Category]
	Expenses   EntityHandlers[models.Expense]
	Budgets    EntityHandlers[models.Budget]
	Summary    func(ctx context.Context, today models.Date, category *int64) (Summary, error)
}

// Presenter mediates between the repositories and a View.
type Presenter struct {
	categories storage.Repository[models.Category]
	expenses   storage.Repository[models.Expense]
	budgets    storage.Repository[models.Budget]

	validate *validator.Validate
	logger   *slog.Logger
	view     View
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithLogger sets the presenter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presenter) { p.logger = logger }
}

// New creates a Presenter over the given repositories.
func New(
	categories storage.Repository[models.Category],
	expenses storage.Repository[models.Expense],
	budgets storage.Repository[models.Budget],
	opts ...Option,
) *Presenter {
	p := &Presenter{
		categories: categories,
		expenses:   expenses,
		budgets:    budgets,
		validate:   newValidator(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start attaches view and pushes the initial lists.
func (p *Presenter) Start(ctx context.Context, view View) error {
	p.view = view
	if err := p.refreshCategories(ctx); err != nil {
		return err
	}
	if err := p.refreshExpenses(ctx); err != nil {
		return err
	}
	return p.refreshBudgets(ctx)
}

// Handlers returns the operations to inject into a view.
// They may be called before Start; lists are pushed only once a view is attached.
func (p *Presenter) Handlers() Handlers {
	categories := entity[models.Category]{
		p:       p,
		repo:    p.categories,
		schema:  models.CategorySchema(),
		refresh: p.refreshCategories,
	}
	expenses := entity[models.Expense]{
		p:       p,
		repo:    p.expenses,
		schema:  models.ExpenseSchema(),
		refresh: p.refreshExpenses,
		check:   p.checkExpense,
	}
	budgets := entity[models.Budget]{
		p:       p,
		repo:    p.budgets,
		schema:  models.BudgetSchema(),
		refresh: p.refreshBudgets,
	}
	return Handlers{
		Categories: categories.handlers(),
		Expenses:   expenses.handlers(),
		Budgets:    budgets.handlers(),
		Summary:    p.Summary,
	}
}

func (p *Presenter) checkExpense(ctx context.Context, e *models.Expense) error {
	c, err := p.categories.Get(ctx, e.Category)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, e.Category)
	}
	return nil
}

func (p *Presenter) refreshCategories(ctx context.Context) error {
	list, err := p.categories.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if p.view != nil {
		p.view.SetCategoryList(list)
	}
	return nil
}

func (p *Presenter) refreshExpenses(ctx context.Context) error {
	list, err := p.expenses.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	if p.view != nil {
		p.view.SetExpenseList(list)
	}
	return nil
}

func (p *Presenter) refreshBudgets(ctx context.Context) error {
	list, err := p.budgets.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	if p.view != nil {
		p.view.SetBudgetList(list)
	}
	return nil
}

// entity implements EntityHandlers for one record type.
type entity[T any] struct {
	p       *Presenter
	repo    storage.Repository[T]
	schema  storage.Schema[T]
	refresh func(context.Context) error
	check   func(context.Context, *T) error
}

func (e entity[T]) handlers() EntityHandlers[T] {
	return EntityHandlers[T]{
		Create: e.create,
		Update: e.update,
		Delete: e.delete,
		Get:    e.repo.Get,
		List:   e.list,
	}
}

func (e entity[T]) prepare(ctx context.Context, rec *T) error {
	if err := validateRecord(e.p.validate, rec); err != nil {
		return err
	}
	if e.check != nil {
		return e.check(ctx, rec)
	}
	return nil
}

func (e entity[T]) create(ctx context.Context, rec *T) (int64, error) {
	if err := e.prepare(ctx, rec); err != nil {
		return 0, err
	}
	pk, err := e.repo.Add(ctx, rec)
	if err != nil {
		return 0, err
	}
	e.p.logger.InfoContext(ctx, "Record created", "table", e.schema.Table, "pk", pk)
	return pk, e.refresh(ctx)
}

func (e entity[T]) update(ctx context.Context, rec *T) error {
	if err := e.prepare(ctx, rec); err != nil {
		return err
	}
	if err := e.repo.Update(ctx, rec); err != nil {
		return err
	}
	e.p.logger.InfoContext(ctx, "Record updated", "table", e.schema.Table, "pk", *e.schema.Key(rec))
	return e.refresh(ctx)
}

func (e entity[T]) delete(ctx context.Context, pk int64) error {
	if err := e.repo.Delete(ctx, pk); err != nil {
		return err
	}
	e.p.logger.InfoContext(ctx, "Record deleted", "table", e.schema.Table, "pk", pk)
	return e.refresh(ctx)
}

func (e entity[T]) list(ctx context.Context, raw map[string]string) ([]T, error) {
	filter, err := e.schema.ParseFilter(raw)
	if err != nil {
		return nil, err
	}
	return e.repo.GetAll(ctx, filter)
}
