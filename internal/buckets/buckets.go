// Package buckets folds a time-ordered operation list into calendar-period
// aggregates (day, month or year) for chart rendering.
//
// One algorithm drives every chart: a newest-first scan holding a current
// period window that steps backwards one granularity unit at a time. The
// caller plugs in an inclusion predicate and a value accumulator; see
// series.go for the concrete chart parametrizations.
package buckets

import (
	"fmt"
	"time"

	"comptes/internal/core"
)

type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity maps a query-string value to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Day, Month, Year:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Bucket is one calendar period with its accumulated values. Values has one
// entry per column; single-series charts use a single column.
type Bucket struct {
	Start  time.Time    `json:"start"`
	Label  string       `json:"label"`
	Values []core.Money `json:"values"`
}

type (
	// IncludeFunc decides whether an operation contributes to the fold.
	// Excluded operations are skipped without touching the period window.
	IncludeFunc func(core.BankOperation) bool

	// AccumulateFunc merges one operation into the current bucket.
	AccumulateFunc func(b *Bucket, op core.BankOperation)
)

// Bucketize folds ops into period buckets, newest first.
//
// ops must be sorted ascending by (operationDate, id); the scan walks them
// from the end. The first window is the period containing start, normally
// StartMoment(ops, now), so future-dated operations stay visible. An
// operation older than the current window closes the bucket and steps the
// window back without consuming the operation; one newer than the first
// window is skipped. maxPeriods bounds the number of buckets opened
// (0 = unbounded). Periods with no contributing operations still yield a
// zero bucket; callers wanting the calendar behaviour prune those
// afterwards with PruneZero.
//
// An empty operation list yields exactly one zero bucket for start's
// period. A malformed included operation fails the whole fold.
func Bucketize(ops []core.BankOperation, g Granularity, start time.Time, maxPeriods, columns int,
	include IncludeFunc, accumulate AccumulateFunc) ([]Bucket, error) {

	if columns < 1 {
		columns = 1
	}

	windowStart := periodStart(start, g)
	windowEnd := periodEnd(windowStart, g)
	out := []Bucket{newBucket(windowStart, g, columns)}

	for i := len(ops) - 1; i >= 0; {
		op := ops[i]
		if include != nil && !include(op) {
			i--
			continue
		}
		switch {
		case op.OperationDate > windowEnd:
			// Newer than the first window; nothing to fold it into.
			i--
		case op.OperationDate >= windowStart.UnixMilli():
			if err := op.ValidateShape(); err != nil {
				return nil, fmt.Errorf("bucketize operation %d: %w", op.ID, err)
			}
			accumulate(&out[len(out)-1], op)
			i--
		default:
			// The operation precedes the window: close this bucket, step
			// the window back one period and re-test the same operation.
			if maxPeriods > 0 && len(out) >= maxPeriods {
				return out, nil
			}
			windowStart = prevPeriod(windowStart, g)
			windowEnd = periodEnd(windowStart, g)
			out = append(out, newBucket(windowStart, g, columns))
		}
	}
	return out, nil
}

// StartMoment picks the reference moment the first window is built from:
// the later of now and the most future-dated operation, so scheduled
// operations show up on the chart.
func StartMoment(ops []core.BankOperation, now time.Time) time.Time {
	ref := now
	for _, op := range ops {
		if t := time.UnixMilli(op.OperationDate); t.After(ref) {
			ref = t
		}
	}
	return ref
}

// PruneZero drops buckets whose values are all zero. The calendar chart
// uses it so empty days leave no data point.
func PruneZero(in []Bucket) []Bucket {
	out := in[:0]
	for _, b := range in {
		if !allZero(b.Values) {
			out = append(out, b)
		}
	}
	return out
}

// Reverse flips a bucket slice in place; Bucketize emits newest first,
// charts usually want chronological order.
func Reverse(bs []Bucket) {
	for i, j := 0, len(bs)-1; i < j; i, j = i+1, j-1 {
		bs[i], bs[j] = bs[j], bs[i]
	}
}

func allZero(vs []core.Money) bool {
	for _, v := range vs {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

func newBucket(start time.Time, g Granularity, columns int) Bucket {
	return Bucket{
		Start:  start,
		Label:  periodLabel(start, g),
		Values: make([]core.Money, columns),
	}
}

func periodStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// periodEnd returns the last millisecond of the period, matching the
// millisecond-epoch domain of operation dates.
func periodEnd(start time.Time, g Granularity) int64 {
	return nextPeriod(start, g).UnixMilli() - 1
}

func nextPeriod(start time.Time, g Granularity) time.Time {
	switch g {
	case Day:
		return start.AddDate(0, 0, 1)
	case Year:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

func prevPeriod(start time.Time, g Granularity) time.Time {
	switch g {
	case Day:
		return start.AddDate(0, 0, -1)
	case Year:
		return start.AddDate(-1, 0, 0)
	default:
		return start.AddDate(0, -1, 0)
	}
}

func periodLabel(start time.Time, g Granularity) string {
	switch g {
	case Day:
		return start.Format("02/01/2006")
	case Year:
		return start.Format("2006")
	default:
		return start.Format("01/2006")
	}
}
