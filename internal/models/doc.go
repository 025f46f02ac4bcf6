// Package models defines the records tracked by the bookkeeper.
//
// # Records
//
//   - Category: a spending category; categories form a tree through Parent,
//     which holds the name of the enclosing category.
//   - Expense: one spending event, tied to a Category by key.
//   - Budget: a spending ceiling over a trailing window of days, either for
//     one category or for all of them.
//
// # Storage
//
// Every record exposes an explicit Schema naming each stored field and the
// accessor that reaches it, so the storage layer never depends on field
// declaration order. Keys are assigned by the store on insert; a zero key
// means the record has not been persisted.
//
// # Construction
//
// Records can be built from positional raw strings (as typed in the terminal
// client) with NewCategory, NewExpense and NewBudget. Calling them with no
// arguments yields a default-valued prototype.
package models
