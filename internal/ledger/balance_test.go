package ledger

import (
	"testing"
	"time"

	"comptes/internal/core"
)

func charge(id, accountID int64, date time.Time, cents int64) core.BankOperation {
	m := core.Cents(cents)
	return core.BankOperation{
		ID:            id,
		AccountID:     accountID,
		OperationDate: date.UnixMilli(),
		BalanceState:  core.NotBalanced,
		Charge:        &m,
	}
}

func credit(id, accountID int64, date time.Time, cents int64) core.BankOperation {
	m := core.Cents(cents)
	return core.BankOperation{
		ID:            id,
		AccountID:     accountID,
		OperationDate: date.UnixMilli(),
		BalanceState:  core.NotBalanced,
		Credit:        &m,
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func TestComputeBalancesFoldsInOrder(t *testing.T) {
	ops := []core.BankOperation{
		credit(1, 1, day(1), 10000),
		charge(2, 1, day(2), 2500),
		charge(3, 1, day(3), 500),
	}
	now := day(10)

	got, err := ComputeBalances(core.Cents(5000), ops, now)
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	if len(got.PerOperation) != len(ops) {
		t.Fatalf("PerOperation length = %d, want %d", len(got.PerOperation), len(ops))
	}
	want := []int64{15000, 12500, 12000}
	for i, w := range want {
		if got.PerOperation[i].Cents != w {
			t.Errorf("balance[%d] = %d, want %d", i, got.PerOperation[i].Cents, w)
		}
	}
	if got.Current.Cents != 12000 {
		t.Errorf("Current = %d, want 12000", got.Current.Cents)
	}
}

func TestComputeBalancesCurrentIgnoresFutureOperations(t *testing.T) {
	ops := []core.BankOperation{
		credit(1, 1, day(1), 10000),
		charge(2, 1, day(20), 2500), // scheduled, after now
	}
	now := day(5)

	got, err := ComputeBalances(core.Cents(0), ops, now)
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	if got.Current.Cents != 10000 {
		t.Errorf("Current = %d, want 10000 (future charge excluded)", got.Current.Cents)
	}
	// The per-operation column still covers the scheduled operation.
	if got.PerOperation[1].Cents != 7500 {
		t.Errorf("balance[1] = %d, want 7500", got.PerOperation[1].Cents)
	}
}

func TestComputeBalancesAllFutureKeepsStarting(t *testing.T) {
	ops := []core.BankOperation{
		charge(1, 1, day(20), 100),
		charge(2, 1, day(21), 200),
	}
	got, err := ComputeBalances(core.Cents(4200), ops, day(1))
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	if got.Current.Cents != 4200 {
		t.Errorf("Current = %d, want starting balance 4200", got.Current.Cents)
	}
}

func TestComputeBalancesEmptyList(t *testing.T) {
	got, err := ComputeBalances(core.Cents(4200), nil, day(1))
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	if len(got.PerOperation) != 0 {
		t.Errorf("PerOperation length = %d, want 0", len(got.PerOperation))
	}
	if got.Current.Cents != 4200 {
		t.Errorf("Current = %d, want 4200", got.Current.Cents)
	}
}

func TestComputeBalancesRejectsMalformedOperation(t *testing.T) {
	bad := charge(1, 1, day(1), 100)
	c := core.Cents(50)
	bad.Credit = &c // charge and credit both set

	if _, err := ComputeBalances(core.Cents(0), []core.BankOperation{bad}, day(2)); err == nil {
		t.Fatal("ComputeBalances = nil, want error for malformed operation")
	}
}

func TestSortOperationsBreaksDateTiesByID(t *testing.T) {
	sameDay := day(5)
	ops := []core.BankOperation{
		charge(3, 1, sameDay, 100),
		credit(1, 1, sameDay, 200),
		charge(2, 1, day(4), 300),
	}
	SortOperations(ops)

	wantIDs := []int64{2, 1, 3}
	for i, w := range wantIDs {
		if ops[i].ID != w {
			t.Errorf("ops[%d].ID = %d, want %d", i, ops[i].ID, w)
		}
	}
}

func TestComputeBalancesDoesNotMutateInput(t *testing.T) {
	ops := []core.BankOperation{
		credit(1, 1, day(1), 100),
		charge(2, 1, day(2), 50),
	}
	before := make([]core.BankOperation, len(ops))
	copy(before, ops)

	if _, err := ComputeBalances(core.Cents(0), ops, day(3)); err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	for i := range ops {
		if ops[i].ID != before[i].ID || ops[i].OperationDate != before[i].OperationDate {
			t.Fatalf("input mutated at %d", i)
		}
	}
}
