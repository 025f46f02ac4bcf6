package repl

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mmynk/bookkeeper/internal/calculator"
	"github.com/mmynk/bookkeeper/internal/middleware"
	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/service"
)

var windowNames = map[int]string{
	calculator.Day:   "day",
	calculator.Week:  "week",
	calculator.Month: "month",
}

func (r *REPL) summary(ctx context.Context, args []string) {
	var category *int64
	switch len(args) {
	case 0:
	case 1:
		pk, err := parseKey(args)
		if err != nil {
			r.fail(fmt.Sprintf("Wrong syntax of command 'summary': %v", err))
			return
		}
		category = &pk
	default:
		r.fail("Wrong syntax of command 'summary': expected at most one category key")
		return
	}

	s, err := r.handlers.Summary(ctx, r.today(), category)
	if err != nil {
		r.fail(fmt.Sprintf("Error in 'summary' method: %v", err))
		return
	}

	scope := "all categories"
	if s.Category != nil {
		path := []string{s.Category.Name}
		for _, a := range s.Ancestors {
			path = append([]string{a.Name}, path...)
		}
		scope = strings.Join(path, " > ")
		if n := len(s.Subcategories); n > 0 {
			scope += fmt.Sprintf(" (with %d subcategories)", n)
		}
	}
	fmt.Fprintf(r.out, "Spending for %s:\n", scope)
	for _, w := range s.Windows {
		name := windowNames[w.Days]
		if name == "" {
			name = strconv.Itoa(w.Days) + " days"
		}
		line := fmt.Sprintf("  %-6s spent %s", name, w.Spent.StringFixed(2))
		switch {
		case w.Limit == nil:
			line += "  " + r.dimStyle.Render("no budget")
			fmt.Fprintln(r.out, line)
		case w.Over:
			fmt.Fprintln(r.out, r.overStyle.Render(fmt.Sprintf("%s of %.2f, over by %s",
				line, w.Limit.Amount, w.Remaining.Neg().StringFixed(2))))
		default:
			fmt.Fprintf(r.out, "%s of %.2f, %s left\n", line, w.Limit.Amount, w.Remaining.StringFixed(2))
		}
	}
}

// tree prints the category hierarchy from the last pushed list. Categories
// whose parent no longer exists are shown as roots.
func (r *REPL) tree() {
	if len(r.categories) == 0 {
		fmt.Fprintln(r.out, r.dimStyle.Render("no categories"))
		return
	}
	seen := make(map[int64]bool, len(r.categories))
	var walk func(c models.Category, depth int)
	walk = func(c models.Category, depth int) {
		if seen[c.Pk] {
			return
		}
		seen[c.Pk] = true
		fmt.Fprintf(r.out, "%s%s (pk=%d)\n", strings.Repeat("  ", depth), c.Name, c.Pk)
		for _, child := range service.Children(r.categories, c) {
			walk(child, depth+1)
		}
	}
	for _, c := range r.categories {
		if _, ok := service.Parent(r.categories, c); !ok {
			walk(c, 0)
		}
	}
	// members of a parent cycle have no root
	for _, c := range r.categories {
		walk(c, 0)
	}
}

// stats prints the repository operation counters, one line per label set.
func (r *REPL) stats() {
	if r.gatherer == nil {
		fmt.Fprintln(r.out, r.dimStyle.Render("metrics disabled"))
		return
	}
	families, err := r.gatherer.Gather()
	if err != nil {
		r.fail(fmt.Sprintf("Error in 'stats' method: %v", err))
		return
	}

	var lines []string
	for _, mf := range families {
		if mf.GetName() != middleware.OperationsMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%-10s %-8s %-10s %d",
				labels["table"], labels["operation"], labels["result"], int64(m.GetCounter().GetValue())))
		}
	}
	if len(lines) == 0 {
		fmt.Fprintln(r.out, r.dimStyle.Render("no operations recorded"))
		return
	}
	sort.Strings(lines)
	fmt.Fprintln(r.out, strings.Join(lines, "\n"))
}
