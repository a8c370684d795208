package core

import "github.com/shopspring/decimal"

// ExpenseCategories is the canonical category set. The LLM parser constrains
// items to these, and budget generation splits the goal across a subset.
var ExpenseCategories = []string{
	"Food & Dining",
	"Grocery",
	"Transportation",
	"Entertainment",
	"Health & Fitness",
	"Shopping / Personal",
	"Lifestyle",
	"Other",
}

// BudgetProportions is how an overall monthly budget goal is split into
// per-category budgets at onboarding. The proportions sum to 1.
var BudgetProportions = map[string]decimal.Decimal{
	"Food & Dining":       decimal.NewFromFloat(0.30),
	"Grocery":             decimal.NewFromFloat(0.20),
	"Transportation":      decimal.NewFromFloat(0.20),
	"Shopping / Personal": decimal.NewFromFloat(0.15),
	"Lifestyle":           decimal.NewFromFloat(0.15),
}
