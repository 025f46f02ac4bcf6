// Package calculator derives read-only spending aggregates from expense and
// budget lists. Nothing here touches storage.
package calculator

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Standard trailing windows, in days.
const (
	Day   = 1
	Week  = 7
	Month = 30
)

// Windows lists the windows shown in the budget table, shortest first.
var Windows = []int{Day, Week, Month}

// Spend represents an expense with the minimal information needed for totals.
type Spend struct {
	Date     time.Time
	Category int64
	Amount   float64
}

// Limit represents a budget with the minimal information needed for totals.
type Limit struct {
	Pk       int64
	Days     int
	Category *int64 // nil = all categories
	Amount   float64
}

// WindowSummary is the spending picture for one trailing window.
type WindowSummary struct {
	Days      int
	Spent     decimal.Decimal
	Limit     *Limit // nil when no budget covers the window
	Remaining decimal.Decimal
	Over      bool
}

// InWindow reports whether date falls within the trailing window of days
// ending at today, counting whole calendar days: the one day window is today.
func InWindow(date, today time.Time, days int) bool {
	d := civil(date)
	end := civil(today)
	start := end.AddDate(0, 0, -days)
	return d.After(start) && !d.After(end)
}

// Totals sums spend amounts per window. Non-finite amounts are skipped.
func Totals(spends []Spend, today time.Time, windows []int) []decimal.Decimal {
	totals := make([]decimal.Decimal, len(windows))
	for _, s := range spends {
		if !finite(s.Amount) {
			continue
		}
		amount := decimal.NewFromFloat(s.Amount)
		for i, days := range windows {
			if InWindow(s.Date, today, days) {
				totals[i] = totals[i].Add(amount)
			}
		}
	}
	return totals
}

// FindLimit returns the first limit covering the given category and window.
// A nil category matches only unscoped limits. Non-finite limits never match.
func FindLimit(limits []Limit, category *int64, days int) (Limit, bool) {
	for _, l := range limits {
		if finite(l.Amount) && l.Days == days && sameCategory(l.Category, category) {
			return l, true
		}
	}
	return Limit{}, false
}

// Summarize builds one WindowSummary per standard window.
// With a nil category every spend counts; otherwise only spends in that
// category or in one of the members, typically its subcategories.
func Summarize(spends []Spend, limits []Limit, category *int64, today time.Time, members ...int64) []WindowSummary {
	if category != nil {
		scope := map[int64]bool{*category: true}
		for _, m := range members {
			scope[m] = true
		}
		var scoped []Spend
		for _, s := range spends {
			if scope[s.Category] {
				scoped = append(scoped, s)
			}
		}
		spends = scoped
	}

	totals := Totals(spends, today, Windows)
	summaries := make([]WindowSummary, len(Windows))
	for i, days := range Windows {
		summary := WindowSummary{Days: days, Spent: totals[i]}
		if l, ok := FindLimit(limits, category, days); ok {
			summary.Limit = &l
			summary.Remaining = decimal.NewFromFloat(l.Amount).Sub(totals[i])
			summary.Over = summary.Remaining.IsNegative()
		}
		summaries[i] = summary
	}
	return summaries
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
