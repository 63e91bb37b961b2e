// Package ledger computes running balances over an account's operations.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"comptes/internal/core"
)

// Balances is the result of folding an operation list: one balance per
// operation, in input order, plus the balance as of "now".
type Balances struct {
	PerOperation []core.Money
	Current      core.Money
}

// SortOperations orders operations ascending by (operationDate, id). The id
// tie-break makes the order total even when several operations share a
// timestamp, which in turn makes the running balance deterministic.
// ComputeBalances requires this order as a precondition; it is a separate
// step so callers can layer UI-selected secondary sorts on top.
func SortOperations(ops []core.BankOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].OperationDate != ops[j].OperationDate {
			return ops[i].OperationDate < ops[j].OperationDate
		}
		return ops[i].ID < ops[j].ID
	})
}

// ComputeBalances folds the operation list into running balances:
//
//	balance_0 = starting
//	balance_i = balance_{i-1} + credit_i - charge_i
//
// Current is the balance of the last operation dated at or before now, or
// the starting balance when every operation post-dates now. The input must
// already be sorted by (operationDate, id); see SortOperations.
//
// The fold is pure: it never mutates ops and performs no I/O. A malformed
// operation (no date, or charge and credit both set) fails the whole
// computation rather than silently skewing the totals.
func ComputeBalances(starting core.Money, ops []core.BankOperation, now time.Time) (Balances, error) {
	nowMs := now.UnixMilli()
	res := Balances{
		PerOperation: make([]core.Money, len(ops)),
		Current:      starting,
	}

	balance := starting
	for i, op := range ops {
		if err := op.ValidateShape(); err != nil {
			return Balances{}, fmt.Errorf("operation %d: %w", op.ID, err)
		}
		balance = balance.Add(op.SignedAmount())
		res.PerOperation[i] = balance
		if op.OperationDate <= nowMs {
			res.Current = balance
		}
	}
	return res, nil
}
