// Package stats produces the chart-ready aggregations: category pie
// breakdowns and historical spend series.
package stats

import (
	"context"
	"fmt"
	"time"

	"easeabill/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the pie slice cap before the "Other" rollup.
const DefaultTopN = 5

// OtherLabel names the rollup slice for categories past the top N.
const OtherLabel = "Other"

// CategorySum is one per-category total within a window.
type CategorySum struct {
	Category string
	Total    decimal.Decimal
}

// Store is the persistence surface the aggregator reads from. CategorySums
// must return totals over the half-open [start, end) window ordered by total
// descending.
type Store interface {
	SumExpenses(ctx context.Context, userID string, start, end time.Time, category *string) (decimal.Decimal, error)
	CategorySums(ctx context.Context, userID string, start, end time.Time) ([]CategorySum, error)
}

type (
	// PieSlice is one pie chart segment.
	PieSlice struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
	}

	// Pie is the category breakdown for a window. Slice values always sum to
	// Total, including the Other rollup.
	Pie struct {
		Window core.Window `json:"window"`
		Total  float64     `json:"total"`
		Slices []PieSlice  `json:"slices"`
	}

	// TrendBucket is one period total in a walk-back series.
	TrendBucket struct {
		Start string  `json:"start"`
		End   string  `json:"end"`
		Total float64 `json:"total"`
	}

	// Point is an x/y chart point; x is the bucket's window start.
	Point struct {
		X string  `json:"x"`
		Y float64 `json:"y"`
	}

	// WeeklySeries is the last-N-weeks line chart payload.
	WeeklySeries struct {
		Category *string `json:"category"`
		Points   []Point `json:"points"`
	}
)

// Aggregator computes chart data from store reads. Stateless.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// PieByCategory returns per-category totals for a pie chart. Omitted window
// bounds default to the current monthly window at now. When there are more
// than topN categories the remainder rolls into a single "Other" slice
// (emitted only when positive and includeOther is set); topN <= 0 disables
// truncation.
func (a *Aggregator) PieByCategory(ctx context.Context, userID string, start, end *time.Time, now time.Time, topN int, includeOther bool) (Pie, error) {
	if start == nil || end == nil {
		ws, we, _ := core.WindowForPeriod(core.Monthly, now)
		if start == nil {
			start = &ws
		}
		if end == nil {
			end = &we
		}
	}
	s := core.EnsureUTC(*start)
	e := core.EnsureUTC(*end)

	window := core.Window{Start: s.Format(time.RFC3339), End: e.Format(time.RFC3339)}

	sums, err := a.store.CategorySums(ctx, userID, s, e)
	if err != nil {
		return Pie{}, fmt.Errorf("category sums: %w", err)
	}

	total := decimal.Zero
	for _, cs := range sums {
		total = total.Add(cs.Total)
	}

	if len(sums) == 0 {
		return Pie{Window: window, Total: 0.0, Slices: []PieSlice{}}, nil
	}

	var slices []PieSlice
	if topN > 0 && len(sums) > topN {
		for _, cs := range sums[:topN] {
			slices = append(slices, PieSlice{Label: cs.Category, Value: cs.Total.InexactFloat64()})
		}
		other := decimal.Zero
		for _, cs := range sums[topN:] {
			other = other.Add(cs.Total)
		}
		if includeOther && other.IsPositive() {
			slices = append(slices, PieSlice{Label: OtherLabel, Value: other.InexactFloat64()})
		}
	} else {
		for _, cs := range sums {
			slices = append(slices, PieSlice{Label: cs.Category, Value: cs.Total.InexactFloat64()})
		}
	}

	return Pie{Window: window, Total: total.InexactFloat64(), Slices: slices}, nil
}

// TrendSeries returns the last `buckets` period totals, oldest first. Each
// bucket is the canonical window for its period; stepping backward re-derives
// monthly and yearly windows from an anchor inside the previous period, which
// sidesteps day-of-month overflow.
func (a *Aggregator) TrendSeries(ctx context.Context, userID string, period core.Period, buckets int, now time.Time) ([]TrendBucket, error) {
	now = core.EnsureUTC(now)
	curStart, curEnd, err := core.WindowForPeriod(period, now)
	if err != nil {
		return nil, err
	}

	series := make([]TrendBucket, 0, buckets)
	for i := 0; i < buckets; i++ {
		total, err := a.store.SumExpenses(ctx, userID, curStart, curEnd, nil)
		if err != nil {
			return nil, fmt.Errorf("sum expenses: %w", err)
		}
		series = append(series, TrendBucket{
			Start: curStart.Format(time.RFC3339),
			End:   curEnd.Format(time.RFC3339),
			Total: total.InexactFloat64(),
		})

		switch period {
		case core.Weekly:
			curEnd = curStart
			curStart = curStart.AddDate(0, 0, -7)
		case core.Monthly:
			// Noon on the day before the current start is always inside the
			// previous month.
			anchor := curStart.AddDate(0, 0, -1)
			anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 12, 0, 0, 0, time.UTC)
			curStart, curEnd, _ = core.WindowForPeriod(core.Monthly, anchor)
		case core.Yearly:
			anchor := time.Date(curStart.Year()-1, time.June, 1, 0, 0, 0, 0, time.UTC)
			curStart, curEnd, _ = core.WindowForPeriod(core.Yearly, anchor)
		}
	}

	reverse(series)
	return series, nil
}

// WeeklySeries returns the last `weeks` weekly totals as x/y points, oldest
// first; x is the week's Monday. A non-nil category restricts the sums.
func (a *Aggregator) WeeklySeries(ctx context.Context, userID string, weeks int, category *string, now time.Time) (WeeklySeries, error) {
	now = core.EnsureUTC(now)
	curStart, curEnd, _ := core.WindowForPeriod(core.Weekly, now)

	points := make([]Point, 0, weeks)
	for i := 0; i < weeks; i++ {
		total, err := a.store.SumExpenses(ctx, userID, curStart, curEnd, category)
		if err != nil {
			return WeeklySeries{}, fmt.Errorf("sum expenses: %w", err)
		}
		points = append(points, Point{X: curStart.Format(time.RFC3339), Y: total.InexactFloat64()})

		curEnd = curStart
		curStart = curStart.AddDate(0, 0, -7)
	}

	reverse(points)
	return WeeklySeries{Category: category, Points: points}, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
