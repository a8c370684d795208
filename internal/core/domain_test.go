package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Title:    "Groceries",
		Amount:   decimal.NewFromFloat(120.50),
		Category: "Grocery",
		Date:     time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		mutate  func(e *Expense)
		wantErr error
	}{
		{"valid", func(e *Expense) {}, nil},
		{"zero amount is allowed", func(e *Expense) { e.Amount = decimal.Zero }, nil},
		{"empty title", func(e *Expense) { e.Title = "  " }, ErrEmptyTitle},
		{"negative amount", func(e *Expense) { e.Amount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	valid := Budget{
		Category:  strPtr("Grocery"),
		Limit:     decimal.NewFromInt(300),
		Period:    Monthly,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
	}

	tests := []struct {
		name    string
		mutate  func(b *Budget)
		wantErr error
	}{
		{"valid", func(b *Budget) {}, nil},
		{"aggregate budget has no category", func(b *Budget) { b.Category = nil }, nil},
		{"blank category", func(b *Budget) { b.Category = strPtr(" ") }, ErrEmptyCategory},
		{"zero limit", func(b *Budget) { b.Limit = decimal.Zero }, ErrNonPositiveLimit},
		{"unknown period", func(b *Budget) { b.Period = "fortnightly" }, ErrInvalidPeriod},
		{"inverted window", func(b *Budget) { b.EndDate = b.StartDate }, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetActiveAt(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	b := Budget{StartDate: start, EndDate: start.AddDate(0, 1, 0)}

	if !b.ActiveAt(start) {
		t.Error("budget should be active at its start instant")
	}
	if b.ActiveAt(b.EndDate) {
		t.Error("budget should not be active at its end instant (half-open window)")
	}
	if b.ActiveAt(start.Add(-time.Second)) {
		t.Error("budget should not be active before it starts")
	}
}

func TestBudgetImpacts(t *testing.T) {
	scoped := Budget{Category: strPtr("Grocery")}
	aggregate := Budget{}

	if !scoped.Impacts("Grocery") {
		t.Error("category-scoped budget should match its own category")
	}
	if scoped.Impacts("Transportation") {
		t.Error("category-scoped budget should not match a different category")
	}
	if !aggregate.Impacts("Transportation") {
		t.Error("aggregate budget should be impacted by every category")
	}
}
