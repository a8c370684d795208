// Package cohort buckets users by income range and location and compares one
// user's spend against the peer-group average.
package cohort

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// IncomeBucket is a half-open [Lo, Hi) monthly-income range. The top bucket
// is open-ended (Open set, Hi ignored).
type IncomeBucket struct {
	Lo   float64
	Hi   float64
	Open bool
}

// incomeBuckets is the fixed ordered set of cohort income ranges.
var incomeBuckets = []IncomeBucket{
	{Lo: 0, Hi: 2500},
	{Lo: 2500, Hi: 4000},
	{Lo: 4000, Hi: 6000},
	{Lo: 6000, Hi: 9000},
	{Lo: 9000, Hi: 13000},
	{Lo: 13000, Open: true},
}

// Label renders the bucket as "lo-hi", or "lo+" for the open top bucket.
func (b IncomeBucket) Label() string {
	if b.Open {
		return fmt.Sprintf("%.0f+", b.Lo)
	}
	return fmt.Sprintf("%.0f-%.0f", b.Lo, b.Hi)
}

// Contains reports whether the income falls inside the bucket range.
func (b IncomeBucket) Contains(income float64) bool {
	if income < b.Lo {
		return false
	}
	return b.Open || income < b.Hi
}

// BucketForIncome maps a monthly income to its cohort bucket. Returns false
// for negative incomes, which no bucket covers.
func BucketForIncome(income decimal.Decimal) (IncomeBucket, bool) {
	v := income.InexactFloat64()
	for _, b := range incomeBuckets {
		if b.Contains(v) {
			return b, true
		}
	}
	return IncomeBucket{}, false
}
