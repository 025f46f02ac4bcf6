package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/bookkeeper/internal/middleware"
	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/service"
	"github.com/mmynk/bookkeeper/internal/storage"
	"github.com/mmynk/bookkeeper/internal/storage/memory"
)

func newRepo[T any](t *testing.T, schema storage.Schema[T], m *middleware.Metrics) storage.Repository[T] {
	t.Helper()
	repo, err := memory.New(schema)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	if m == nil {
		return repo
	}
	return middleware.WithMetrics[T](repo, schema.Table, m)
}

// session runs input through a fresh REPL and returns everything it printed.
func session(t *testing.T, input string, opts ...Option) string {
	t.Helper()
	return sessionWithMetrics(t, input, nil, opts...)
}

func sessionWithMetrics(t *testing.T, input string, m *middleware.Metrics, opts ...Option) string {
	t.Helper()
	p := service.New(
		newRepo(t, models.CategorySchema(), m),
		newRepo(t, models.ExpenseSchema(), m),
		newRepo(t, models.BudgetSchema(), m),
	)

	var out bytes.Buffer
	r := New(strings.NewReader(input), &out, p.Handlers(), opts...)
	ctx := context.Background()
	if err := p.Start(ctx, r); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n--- output ---\n%s", w, out)
		}
	}
}

func TestCategoryWorkflow(t *testing.T) {
	out := session(t, strings.Join([]string{
		"add category Фрукты",
		"add category Яблоки Фрукты",
		"add category Огурцы Овощи",
		"get_all category parent Овощи",
		"update category 3 Помидоры Овощи",
		"get category 3",
		"delete category 2",
		"get category 2",
		"get_all Category parent=None",
		"quit",
		"add category Never",
	}, "\n"))

	assertContains(t, out,
		"Type 'help'",
		"added pk=1",
		"added pk=3",
		"Category(pk=3, name=Огурцы, parent=Овощи)",
		"updated",
		"Category(pk=3, name=Помидоры, parent=Овощи)",
		"deleted",
		"not found",
		"Category(pk=1, name=Фрукты, parent=None)",
	)
	if strings.Contains(out, "added pk=4") {
		t.Error("commands after quit must not run")
	}
}

func TestErrorsDoNotEndSession(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown command", "frobnicate", "Wrong command. Use 'help' to get an example"},
		{"missing type", "add", "Wrong syntax of command 'add': missing record type"},
		{"unknown type", "get user 1", `unknown record type "user"`},
		{"bad key", "get category abc", `Error in 'get' method: invalid key "abc"`},
		{"bad date", "add expense 15.03.2024 1 10", "Error in 'add' method"},
		{"unknown category", "add expense 2024-03-15 9 10", "unknown category"},
		{"blank update", "update category 1", "missing field values"},
		{"update missing row", "update budget 5 10 7", "record not found"},
		{"delete missing row", "delete budget 5", "record not found"},
		{"unknown filter field", "get_all category colour red", "unknown field"},
		{"dangling filter field", "get_all category parent", "field parent has no value"},
		{"too many category values", "add category a b c", "Error in 'add' method"},
		{"infinite amount", "add expense 2024-03-15 1 Inf boom", `invalid amount "Inf"`},
		{"infinite limit", "add budget +Inf 7", `invalid limit "+Inf"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := session(t, tt.input+"\nadd category Next\n")
			assertContains(t, out, tt.want, "added pk=1")
		})
	}
}

func TestExpenseRenderingUsesCategoryName(t *testing.T) {
	out := session(t, strings.Join([]string{
		"add category Food",
		"add expense 2024-03-15 1 12.5 lunch",
		"get_all expense",
		"get_all expense category=1",
		"get_all expense amount 99",
	}, "\n"))

	assertContains(t, out,
		"Expense(pk=1, expense_date=2024-03-15, category=1, amount=12.5, comment=lunch) [Food]",
		"no records",
	)
}

func TestSummary(t *testing.T) {
	clock := WithClock(func() models.Date { return models.NewDate(2024, 3, 31) })
	out := session(t, strings.Join([]string{
		"add category Food",
		"add expense 2024-03-31 1 30",
		"add expense 2024-03-27 1 40",
		"add budget 20 1",
		"add budget 100 7",
		"add budget 50 7 1",
		"summary",
		"summary 1",
		"summary 9",
		"summary 1 2",
	}, "\n"), clock)

	assertContains(t, out,
		"Spending for all categories:",
		"day    spent 30.00 of 20.00, over by 10.00",
		"week   spent 70.00 of 100.00, 30.00 left",
		"month  spent 70.00  no budget",
		"Spending for Food:",
		"week   spent 70.00 of 50.00, over by 20.00",
		"Error in 'summary' method: unknown category: 9",
		"expected at most one category key",
	)
}

func TestStats(t *testing.T) {
	out := session(t, "stats\n")
	assertContains(t, out, "metrics disabled")

	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(reg)
	out = sessionWithMetrics(t, "add category Food\ndelete category 7\nstats\n", m, WithGatherer(reg))
	assertContains(t, out,
		"category   add      ok         1",
		"category   delete   not_found  1",
		"category   get_all  ok",
	)
}

func TestParseFilter(t *testing.T) {
	got, err := parseFilter([]string{"parent=Food", "name", "Apples", "comment="})
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	want := map[string]string{"parent": "Food", "name": "Apples", "comment": ""}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}

	if f, err := parseFilter(nil); err != nil || f != nil {
		t.Errorf("empty args = %v, %v; want nil filter", f, err)
	}
	if _, err := parseFilter([]string{"=x"}); err == nil {
		t.Error("empty field name should fail")
	}
}

func TestNonFiniteInputKeepsSummaryWorking(t *testing.T) {
	clock := WithClock(func() models.Date { return models.NewDate(2024, 3, 15) })
	out := session(t, strings.Join([]string{
		"add category Food",
		"add expense 2024-03-15 1 Inf boom",
		"add budget NaN 7",
		"add expense 2024-03-15 1 3",
		"summary",
	}, "\n"), clock)

	assertContains(t, out,
		`Error in 'add' method: invalid amount "Inf"`,
		`Error in 'add' method: invalid limit "NaN"`,
		"day    spent 3.00",
	)
}

func TestCommentWithSpaces(t *testing.T) {
	out := session(t, strings.Join([]string{
		"add category Food",
		"add expense 2024-03-15 1 4 coffee with Anna",
		"get expense 1",
	}, "\n"))

	assertContains(t, out, "comment=coffee with Anna) [Food]")
}

func TestSummaryCountsSubcategories(t *testing.T) {
	clock := WithClock(func() models.Date { return models.NewDate(2024, 3, 15) })
	out := session(t, strings.Join([]string{
		"add category Groceries",
		"add category Vegetables Groceries",
		"add expense 2024-03-15 2 12.5",
		"add expense 2024-03-15 1 5",
		"summary 1",
		"summary 2",
	}, "\n"), clock)

	assertContains(t, out,
		"Spending for Groceries (with 1 subcategories):",
		"week   spent 17.50",
		"Spending for Groceries > Vegetables:",
		"week   spent 12.50",
	)
}

func TestTree(t *testing.T) {
	out := session(t, "tree\n")
	assertContains(t, out, "no categories")

	out = session(t, strings.Join([]string{
		"add category Food",
		"add category Fruit Food",
		"add category Apples Fruit",
		"add category Lost Gone",
		"add category A B",
		"add category B A",
		"tree",
	}, "\n"))

	assertContains(t, out,
		"Food (pk=1)\n  Fruit (pk=2)\n    Apples (pk=3)\n",
		"Lost (pk=4)\n",
		"A (pk=5)\n  B (pk=6)\n",
	)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := service.New(
		newRepo(t, models.CategorySchema(), nil),
		newRepo(t, models.ExpenseSchema(), nil),
		newRepo(t, models.BudgetSchema(), nil),
	)

	in, w := io.Pipe()
	defer w.Close()

	var out bytes.Buffer
	r := New(in, &out, p.Handlers())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel while waiting for input")
	}
}
