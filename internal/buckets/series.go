package buckets

import (
	"fmt"
	"time"

	"comptes/internal/core"
	"comptes/internal/ledger"
)

// ViewType selects what the calendar heat-map sums per day.
type ViewType string

const (
	ViewNet     ViewType = "net"
	ViewCharges ViewType = "charges"
	ViewCredits ViewType = "credits"
)

// ParseViewType maps a query-string value to a ViewType.
func ParseViewType(s string) (ViewType, error) {
	switch ViewType(s) {
	case ViewNet, ViewCharges, ViewCredits:
		return ViewType(s), nil
	default:
		return "", fmt.Errorf("unknown view type %q", s)
	}
}

// BalanceEvolution produces the end-of-month balance series for an
// account, oldest month first. Months without operations repeat the
// previous month's closing balance. maxPeriods bounds the series length
// (0 = unbounded); when it truncates history, the net of everything older
// than the window is folded into the opening balance so the visible
// months stay correct.
func BalanceEvolution(starting core.Money, ops []core.BankOperation, now time.Time, maxPeriods int) ([]Bucket, error) {
	sorted := make([]core.BankOperation, len(ops))
	copy(sorted, ops)
	ledger.SortOperations(sorted)

	bs, err := Bucketize(sorted, Month, StartMoment(sorted, now), maxPeriods, 1, nil,
		func(b *Bucket, op core.BankOperation) {
			b.Values[0] = b.Values[0].Add(op.SignedAmount())
		})
	if err != nil {
		return nil, err
	}

	// Everything older than the oldest visible month.
	base := starting
	cutoff := bs[len(bs)-1].Start.UnixMilli()
	for _, op := range sorted {
		if op.OperationDate < cutoff {
			base = base.Add(op.SignedAmount())
		}
	}

	// Integrate the per-month nets, oldest first.
	Reverse(bs)
	balance := base
	for i := range bs {
		balance = balance.Add(bs[i].Values[0])
		bs[i].Values[0] = balance
	}
	return bs, nil
}

// Calendar produces the day-level heat-map series: one value per day with
// at least one qualifying operation, chronological order, zero days
// pruned. The view selects charges only (negative values), credits only,
// or the signed net of both.
func Calendar(ops []core.BankOperation, now time.Time, view ViewType, maxDays int) ([]Bucket, error) {
	sorted := make([]core.BankOperation, len(ops))
	copy(sorted, ops)
	ledger.SortOperations(sorted)

	var include IncludeFunc
	switch view {
	case ViewCharges:
		include = func(op core.BankOperation) bool { return op.Charge != nil }
	case ViewCredits:
		include = func(op core.BankOperation) bool { return op.Credit != nil }
	}

	bs, err := Bucketize(sorted, Day, StartMoment(sorted, now), maxDays, 1, include,
		func(b *Bucket, op core.BankOperation) {
			// Charges-only view shows spending as negative magnitudes.
			b.Values[0] = b.Values[0].Add(op.SignedAmount())
		})
	if err != nil {
		return nil, err
	}
	bs = PruneZero(bs)
	Reverse(bs)
	return bs, nil
}

// VersusTotals opposes the charges and credits of one date window.
// Balance is credits minus charges; the rates are each side's share of the
// combined volume, zero when nothing falls in the window.
type VersusTotals struct {
	Charges    core.Money `json:"charges"`
	Credits    core.Money `json:"credits"`
	Balance    core.Money `json:"balance"`
	ChargeRate float64    `json:"chargeRate"`
	CreditRate float64    `json:"creditRate"`
}

// Versus sums total charges against total credits over the inclusive
// [from, to] window. include narrows the fold the same way it does for
// Bucketize; nil counts every operation.
func Versus(ops []core.BankOperation, from, to time.Time, include IncludeFunc) (VersusTotals, error) {
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()

	var v VersusTotals
	for _, op := range ops {
		if op.OperationDate < fromMs || op.OperationDate > toMs {
			continue
		}
		if include != nil && !include(op) {
			continue
		}
		if err := op.ValidateShape(); err != nil {
			return VersusTotals{}, fmt.Errorf("versus operation %d: %w", op.ID, err)
		}
		if op.Charge != nil {
			v.Charges = v.Charges.Add(*op.Charge)
		} else {
			v.Credits = v.Credits.Add(*op.Credit)
		}
	}

	v.Balance = v.Credits.Sub(v.Charges)
	if total := v.Charges.Add(v.Credits); !total.IsZero() {
		v.ChargeRate = float64(v.Charges.Cents) / float64(total.Cents)
		v.CreditRate = float64(v.Credits.Cents) / float64(total.Cents)
	}
	return v, nil
}

// UncategorizedColumn labels the trailing column collecting operations
// with no sub-category.
const UncategorizedColumn = "Uncategorized"

// CategorySeries holds the stacked time series of one category: one column
// per sub-category plus a trailing column for uncategorized operations.
type CategorySeries struct {
	Columns []string `json:"columns"`
	Buckets []Bucket `json:"buckets"`
}

// CategorySeriesFor folds the category's operations into per-period
// sub-category columns, chronological order. Operations referencing a
// sub-category the category does not own land in the uncategorized column
// rather than being dropped.
func CategorySeriesFor(category core.Category, ops []core.BankOperation, g Granularity, now time.Time, maxPeriods int) (CategorySeries, error) {
	sorted := make([]core.BankOperation, len(ops))
	copy(sorted, ops)
	ledger.SortOperations(sorted)

	columns := make([]string, 0, len(category.SubCategories)+1)
	colByID := make(map[int64]int, len(category.SubCategories))
	for i, sc := range category.SubCategories {
		columns = append(columns, sc.Name)
		colByID[sc.ID] = i
	}
	columns = append(columns, UncategorizedColumn)
	uncat := len(columns) - 1

	bs, err := Bucketize(sorted, g, StartMoment(sorted, now), maxPeriods, len(columns), nil,
		func(b *Bucket, op core.BankOperation) {
			col := uncat
			if op.SubCategory != nil {
				if c, ok := colByID[op.SubCategory.ID]; ok {
					col = c
				}
			}
			b.Values[col] = b.Values[col].Add(op.SignedAmount())
		})
	if err != nil {
		return CategorySeries{}, err
	}
	Reverse(bs)
	return CategorySeries{Columns: columns, Buckets: bs}, nil
}
