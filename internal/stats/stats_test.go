package stats

import (
	"context"
	"testing"
	"time"

	"easeabill/internal/core"

	"github.com/shopspring/decimal"
)

// fakeStore serves canned category sums and per-window totals keyed by the
// window start, so walk-back series can be verified bucket by bucket.
type fakeStore struct {
	categorySums []CategorySum
	windowTotals map[string]decimal.Decimal
}

func (f *fakeStore) SumExpenses(_ context.Context, _ string, start, _ time.Time, _ *string) (decimal.Decimal, error) {
	return f.windowTotals[start.Format(time.RFC3339)], nil
}

func (f *fakeStore) CategorySums(_ context.Context, _ string, _, _ time.Time) ([]CategorySum, error) {
	return f.categorySums, nil
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestPieByCategory_TopNWithOtherRollup(t *testing.T) {
	// Seven categories summing to 500 with topN=5: exactly six slices whose
	// values still sum to 500.
	store := &fakeStore{categorySums: []CategorySum{
		{"Food & Dining", dec(150)},
		{"Grocery", dec(120)},
		{"Transportation", dec(90)},
		{"Entertainment", dec(60)},
		{"Shopping", dec(40)},
		{"Health & Fitness", dec(25)},
		{"Travel", dec(15)},
	}}
	a := NewAggregator(store)

	now := time.Date(2026, 2, 7, 16, 46, 0, 0, time.UTC)
	pie, err := a.PieByCategory(context.Background(), "user1", nil, nil, now, 5, true)
	if err != nil {
		t.Fatalf("PieByCategory() error = %v", err)
	}

	if len(pie.Slices) != 6 {
		t.Fatalf("got %d slices, want 6 (top 5 + Other)", len(pie.Slices))
	}
	if pie.Slices[5].Label != OtherLabel || pie.Slices[5].Value != 40 {
		t.Errorf("other slice = %+v, want {Other 40}", pie.Slices[5])
	}

	var sum float64
	for _, s := range pie.Slices {
		sum += s.Value
	}
	if sum != pie.Total || pie.Total != 500 {
		t.Errorf("slice sum = %v, total = %v, want both 500", sum, pie.Total)
	}

	// Omitted bounds default to the current monthly window.
	if pie.Window.Start != "2026-02-01T00:00:00Z" || pie.Window.End != "2026-03-01T00:00:00Z" {
		t.Errorf("window = %+v", pie.Window)
	}
}

func TestPieByCategory_NoTruncation(t *testing.T) {
	store := &fakeStore{categorySums: []CategorySum{
		{"A", dec(30)}, {"B", dec(20)}, {"C", dec(10)},
	}}
	a := NewAggregator(store)
	now := time.Now().UTC()

	t.Run("fewer categories than topN", func(t *testing.T) {
		pie, err := a.PieByCategory(context.Background(), "user1", nil, nil, now, 5, true)
		if err != nil {
			t.Fatalf("PieByCategory() error = %v", err)
		}
		if len(pie.Slices) != 3 {
			t.Errorf("got %d slices, want 3", len(pie.Slices))
		}
	})

	t.Run("topN zero disables truncation", func(t *testing.T) {
		pie, err := a.PieByCategory(context.Background(), "user1", nil, nil, now, 0, true)
		if err != nil {
			t.Fatalf("PieByCategory() error = %v", err)
		}
		if len(pie.Slices) != 3 {
			t.Errorf("got %d slices, want 3", len(pie.Slices))
		}
	})

	t.Run("includeOther false drops the rollup but keeps the total", func(t *testing.T) {
		pie, err := a.PieByCategory(context.Background(), "user1", nil, nil, now, 2, false)
		if err != nil {
			t.Fatalf("PieByCategory() error = %v", err)
		}
		if len(pie.Slices) != 2 {
			t.Errorf("got %d slices, want 2", len(pie.Slices))
		}
		if pie.Total != 60 {
			t.Errorf("total = %v, want 60", pie.Total)
		}
	})
}

func TestPieByCategory_Empty(t *testing.T) {
	a := NewAggregator(&fakeStore{})

	pie, err := a.PieByCategory(context.Background(), "user1", nil, nil, time.Now().UTC(), 5, true)
	if err != nil {
		t.Fatalf("PieByCategory() error = %v", err)
	}
	if pie.Total != 0 {
		t.Errorf("total = %v, want 0", pie.Total)
	}
	if pie.Slices == nil || len(pie.Slices) != 0 {
		t.Errorf("slices = %v, want empty non-nil slice", pie.Slices)
	}
}

func TestTrendSeries_WeeklyLengthOrderContiguity(t *testing.T) {
	a := NewAggregator(&fakeStore{windowTotals: map[string]decimal.Decimal{
		"2026-02-02T00:00:00Z": dec(80),
		"2026-01-26T00:00:00Z": dec(70),
	}})

	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	series, err := a.TrendSeries(context.Background(), "user1", core.Weekly, 8, now)
	if err != nil {
		t.Fatalf("TrendSeries() error = %v", err)
	}

	if len(series) != 8 {
		t.Fatalf("got %d buckets, want 8", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i-1].End != series[i].Start {
			t.Errorf("buckets %d and %d are not contiguous: %s != %s", i-1, i, series[i-1].End, series[i].Start)
		}
		if series[i-1].Start >= series[i].Start {
			t.Errorf("buckets not in increasing time order at %d", i)
		}
	}

	last := series[len(series)-1]
	if last.Start != "2026-02-02T00:00:00Z" || last.Total != 80 {
		t.Errorf("newest bucket = %+v", last)
	}
	if series[len(series)-2].Total != 70 {
		t.Errorf("second newest total = %v, want 70", series[len(series)-2].Total)
	}
}

func TestTrendSeries_MonthlyWalkbackAvoidsOverflow(t *testing.T) {
	a := NewAggregator(&fakeStore{})

	// March 31: naive month arithmetic would land on "February 31".
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)
	series, err := a.TrendSeries(context.Background(), "user1", core.Monthly, 4, now)
	if err != nil {
		t.Fatalf("TrendSeries() error = %v", err)
	}

	wantStarts := []string{
		"2025-12-01T00:00:00Z",
		"2026-01-01T00:00:00Z",
		"2026-02-01T00:00:00Z",
		"2026-03-01T00:00:00Z",
	}
	for i, want := range wantStarts {
		if series[i].Start != want {
			t.Errorf("series[%d].Start = %s, want %s", i, series[i].Start, want)
		}
	}
}

func TestTrendSeries_Yearly(t *testing.T) {
	a := NewAggregator(&fakeStore{})

	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	series, err := a.TrendSeries(context.Background(), "user1", core.Yearly, 3, now)
	if err != nil {
		t.Fatalf("TrendSeries() error = %v", err)
	}

	wantStarts := []string{"2024-01-01T00:00:00Z", "2025-01-01T00:00:00Z", "2026-01-01T00:00:00Z"}
	for i, want := range wantStarts {
		if series[i].Start != want {
			t.Errorf("series[%d].Start = %s, want %s", i, series[i].Start, want)
		}
	}
}

func TestTrendSeries_InvalidPeriod(t *testing.T) {
	a := NewAggregator(&fakeStore{})
	if _, err := a.TrendSeries(context.Background(), "user1", core.Period("daily"), 4, time.Now().UTC()); err == nil {
		t.Error("invalid period should fail")
	}
}

func TestWeeklySeries(t *testing.T) {
	a := NewAggregator(&fakeStore{windowTotals: map[string]decimal.Decimal{
		"2026-02-02T00:00:00Z": dec(120),
	}})

	now := time.Date(2026, 2, 7, 16, 46, 0, 0, time.UTC)
	category := "Grocery"
	series, err := a.WeeklySeries(context.Background(), "user1", 4, &category, now)
	if err != nil {
		t.Fatalf("WeeklySeries() error = %v", err)
	}

	if series.Category == nil || *series.Category != "Grocery" {
		t.Errorf("category = %v", series.Category)
	}
	if len(series.Points) != 4 {
		t.Fatalf("got %d points, want 4", len(series.Points))
	}
	newest := series.Points[len(series.Points)-1]
	if newest.X != "2026-02-02T00:00:00Z" || newest.Y != 120 {
		t.Errorf("newest point = %+v", newest)
	}
	for i := 1; i < len(series.Points); i++ {
		if series.Points[i-1].X >= series.Points[i].X {
			t.Errorf("points not oldest-first at %d", i)
		}
	}
}
