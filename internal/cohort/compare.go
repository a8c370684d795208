package cohort

import (
	"context"
	"fmt"
	"time"

	"easeabill/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultDeltaThresholdPct is the inclusive delta (percent vs peer average)
// at which spending counts as notably more or less than the peer group.
const DefaultDeltaThresholdPct = 15.0

// DefaultMinPeers is the minimum peer count for a comparison to be emitted.
const DefaultMinPeers = 1

// Store is the persistence surface the comparator reads from.
// PeerStats joins expenses to users with an exact location match and a
// monthly income inside the bucket, one total per peer, and returns the
// average of those totals plus the distinct peer count. Peers with no
// qualifying expense rows in the window are invisible to both figures.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*core.User, error)
	SumExpenses(ctx context.Context, userID string, start, end time.Time, category *string) (decimal.Decimal, error)
	PeerStats(ctx context.Context, location string, bucket IncomeBucket, start, end time.Time, category *string) (avgSpent decimal.Decimal, peerCount int, err error)
}

// Comparison is the structured feedback for one user vs their cohort.
// Missing profile data and thin cohorts are normal informational outcomes,
// not errors: Comparable is false and Message says why.
type Comparison struct {
	Comparable   bool        `json:"comparable"`
	Message      string      `json:"message"`
	Location     *string     `json:"location,omitempty"`
	IncomeBucket string      `json:"incomeBucket,omitempty"`
	Period       core.Period `json:"period"`
	Window       core.Window `json:"window"`
	Category     *string     `json:"category,omitempty"`
	UserSpent    float64     `json:"userSpent"`
	PeerAvgSpent float64     `json:"peerAvgSpent"`
	PeerUsers    int         `json:"peerUsers"`
	DeltaPercent *float64    `json:"deltaPercent,omitempty"`
}

// Comparator runs peer comparisons. Stateless.
type Comparator struct {
	store        Store
	minPeers     int
	thresholdPct float64
}

// Option tunes a Comparator.
type Option func(*Comparator)

// WithMinPeers overrides the minimum cohort size.
func WithMinPeers(n int) Option {
	return func(c *Comparator) { c.minPeers = n }
}

// WithDeltaThreshold overrides the notable-delta percent.
func WithDeltaThreshold(pct float64) Option {
	return func(c *Comparator) { c.thresholdPct = pct }
}

func NewComparator(store Store, opts ...Option) *Comparator {
	c := &Comparator{
		store:        store,
		minPeers:     DefaultMinPeers,
		thresholdPct: DefaultDeltaThresholdPct,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare evaluates the user's current-period spend against peers in the same
// location and income bucket. The delta thresholds are inclusive: exactly
// +15% counts as "more than peers".
func (c *Comparator) Compare(ctx context.Context, userID string, period core.Period, category *string, now time.Time) (Comparison, error) {
	now = core.EnsureUTC(now)
	start, end, err := core.WindowForPeriod(period, now)
	if err != nil {
		return Comparison{}, err
	}

	result := Comparison{
		Period: period,
		Window: core.Window{
			Start: start.Format(time.RFC3339),
			End:   end.Format(time.RFC3339),
		},
		Category: category,
	}

	user, err := c.store.GetUserByID(ctx, userID)
	if err != nil {
		return Comparison{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		result.Message = "User not found."
		return result, nil
	}
	if user.Location == nil || *user.Location == "" {
		result.Message = "Add your location to see how you compare with peers."
		return result, nil
	}
	result.Location = user.Location

	if user.MonthlyIncome == nil {
		result.Message = "Add your monthly income to see how you compare with peers."
		return result, nil
	}
	bucket, ok := BucketForIncome(*user.MonthlyIncome)
	if !ok {
		result.Message = "Add your monthly income to see how you compare with peers."
		return result, nil
	}
	result.IncomeBucket = bucket.Label()

	userSpent, err := c.store.SumExpenses(ctx, userID, start, end, category)
	if err != nil {
		return Comparison{}, fmt.Errorf("sum user expenses: %w", err)
	}
	result.UserSpent = userSpent.InexactFloat64()

	peerAvg, peerCount, err := c.store.PeerStats(ctx, *user.Location, bucket, start, end, category)
	if err != nil {
		return Comparison{}, fmt.Errorf("peer stats: %w", err)
	}
	result.PeerAvgSpent = peerAvg.InexactFloat64()
	result.PeerUsers = peerCount

	if peerCount < c.minPeers || !peerAvg.IsPositive() {
		result.Message = fmt.Sprintf("Not enough peer data in %s to compare yet.", *user.Location)
		return result, nil
	}

	delta := (result.UserSpent - result.PeerAvgSpent) / result.PeerAvgSpent * 100.0
	result.DeltaPercent = &delta
	result.Comparable = true

	switch {
	case delta >= c.thresholdPct:
		result.Message = fmt.Sprintf("You spent %.0f%% more than peers in %s this %s.", delta, *user.Location, period)
	case delta <= -c.thresholdPct:
		result.Message = fmt.Sprintf("You spent %.0f%% less than peers in %s this %s.", -delta, *user.Location, period)
	default:
		result.Message = fmt.Sprintf("Your spending is close to the average for peers in %s.", *user.Location)
	}
	return result, nil
}
