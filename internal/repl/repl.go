// Package repl is a line-oriented terminal client for the bookkeeper.
//
// Each line is one command. Failures are reported and the loop continues;
// only end of input, "quit" or cancellation ends a session.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/service"
)

const prompt = "$> "

// REPL reads commands from in and writes results to out.
// It implements service.View.
type REPL struct {
	in  io.Reader
	out io.Writer

	handlers service.Handlers
	entities map[string]entityCommands
	gatherer prometheus.Gatherer
	today    func() models.Date

	errStyle  lipgloss.Style
	okStyle   lipgloss.Style
	dimStyle  lipgloss.Style
	overStyle lipgloss.Style

	categories []models.Category
	expenses   []models.Expense
	budgets    []models.Budget
}

// Option configures a REPL.
type Option func(*REPL)

// WithGatherer enables the stats command over the given registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(r *REPL) { r.gatherer = g }
}

// WithClock overrides the date used by the summary command.
func WithClock(today func() models.Date) Option {
	return func(r *REPL) { r.today = today }
}

// New creates a REPL driving the given handlers.
func New(in io.Reader, out io.Writer, handlers service.Handlers, opts ...Option) *REPL {
	renderer := lipgloss.NewRenderer(out)
	r := &REPL{
		in:        in,
		out:       out,
		handlers:  handlers,
		today:     models.Today,
		errStyle:  renderer.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		okStyle:   renderer.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		dimStyle:  renderer.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		overStyle: renderer.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
	}
	r.entities = map[string]entityCommands{
		"category": bind(handlers.Categories, models.NewCategory,
			func(c *models.Category) *int64 { return &c.Pk },
			func(c models.Category) string { return c.String() }),
		"expense": bind(handlers.Expenses, models.NewExpense,
			func(e *models.Expense) *int64 { return &e.Pk },
			r.renderExpense),
		"budget": bind(handlers.Budgets, models.NewBudget,
			func(b *models.Budget) *int64 { return &b.Pk },
			func(b models.Budget) string { return b.String() }),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCategoryList stores the latest categories for name lookup and tree.
func (r *REPL) SetCategoryList(categories []models.Category) { r.categories = categories }

// SetExpenseList stores the latest expenses.
func (r *REPL) SetExpenseList(expenses []models.Expense) { r.expenses = expenses }

// SetBudgetList stores the latest budgets.
func (r *REPL) SetBudgetList(budgets []models.Budget) { r.budgets = budgets }

// Run processes commands until end of input, "quit" or ctx is cancelled.
// Input is read on its own goroutine so that cancellation does not wait for
// the next line.
func (r *REPL) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(r.out, "Type 'help' for simple example of commands")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(r.out, prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return <-readErr
			}
			if quit := r.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs one command line and reports whether the session should end.
func (r *REPL) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	action, args := fields[0], fields[1:]
	switch action {
	case "quit", "exit":
		return true
	case "help":
		r.help()
	case "stats":
		r.stats()
	case "summary":
		r.summary(ctx, args)
	case "tree":
		r.tree()
	case "add", "get", "get_all", "update", "delete":
		r.entityCommand(ctx, action, args)
	default:
		r.fail("Wrong command. Use 'help' to get an example")
	}
	return false
}

func (r *REPL) entityCommand(ctx context.Context, action string, args []string) {
	if len(args) == 0 {
		r.fail(fmt.Sprintf("Wrong syntax of command '%s': missing record type", action))
		return
	}
	cmds, ok := r.entities[strings.ToLower(args[0])]
	if !ok {
		r.fail(fmt.Sprintf("Wrong syntax of command '%s': unknown record type %q", action, args[0]))
		return
	}
	args = args[1:]

	var err error
	switch action {
	case "add":
		var pk int64
		if pk, err = cmds.add(ctx, args); err == nil {
			r.ok(fmt.Sprintf("added pk=%d", pk))
		}
	case "get":
		var line string
		line, err = cmds.get(ctx, args)
		if errors.Is(err, errNotFound) {
			fmt.Fprintln(r.out, r.dimStyle.Render("not found"))
			return
		}
		if err == nil {
			fmt.Fprintln(r.out, line)
		}
	case "get_all":
		var lines []string
		if lines, err = cmds.list(ctx, args); err == nil {
			r.printList(lines)
		}
	case "update":
		if err = cmds.update(ctx, args); err == nil {
			r.ok("updated")
		}
	case "delete":
		if err = cmds.delete(ctx, args); err == nil {
			r.ok("deleted")
		}
	}
	if err != nil {
		r.fail(fmt.Sprintf("Error in '%s' method: %v", action, err))
	}
}

func (r *REPL) printList(lines []string) {
	if len(lines) == 0 {
		fmt.Fprintln(r.out, r.dimStyle.Render("no records"))
		return
	}
	fmt.Fprintln(r.out, strings.Join(lines, "\n"))
}

func (r *REPL) renderExpense(e models.Expense) string {
	for _, c := range r.categories {
		if c.Pk == e.Category {
			return fmt.Sprintf("%s [%s]", e, c.Name)
		}
	}
	return e.String()
}

func (r *REPL) ok(msg string) {
	fmt.Fprintln(r.out, r.okStyle.Render(msg))
}

func (r *REPL) fail(msg string) {
	fmt.Fprintln(r.out, r.errStyle.Render(msg))
}

func (r *REPL) help() {
	fmt.Fprintln(r.out, `EXAMPLE:
add category Фрукты
add category Яблоки Фрукты
add category Огурцы Овощи
get_all category
update category 3 Помидоры Овощи
get_all category parent Овощи
get_all category parent=None
add expense 2024-03-15 2 120.5 lunch
get expense 1
add budget 1000 7
add budget 300 30 2
summary
summary 2
tree
delete category 2
stats
quit`)
}
