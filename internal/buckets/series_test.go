package buckets

import (
	"testing"
	"time"

	"comptes/internal/core"
)

func TestBalanceEvolution(t *testing.T) {
	ops := []core.BankOperation{
		charge(2, at(time.March, 5), 5000),
		credit(1, at(time.January, 10), 10000),
	}
	now := at(time.March, 20)

	bs, err := BalanceEvolution(core.Cents(100000), ops, now, 0)
	if err != nil {
		t.Fatalf("BalanceEvolution: %v", err)
	}
	if len(bs) != 3 {
		t.Fatalf("buckets = %d, want 3 (Jan..Mar)", len(bs))
	}

	want := []struct {
		label string
		cents int64
	}{
		{"01/2024", 110000},
		{"02/2024", 110000}, // empty month repeats closing balance
		{"03/2024", 105000},
	}
	for i, w := range want {
		if bs[i].Label != w.label || bs[i].Values[0].Cents != w.cents {
			t.Errorf("bucket[%d] = %q %d, want %q %d",
				i, bs[i].Label, bs[i].Values[0].Cents, w.label, w.cents)
		}
	}
}

func TestBalanceEvolutionTruncationFoldsOldHistoryIntoBase(t *testing.T) {
	ops := []core.BankOperation{
		credit(1, at(time.January, 10), 10000),
		charge(2, at(time.March, 5), 5000),
	}
	now := at(time.March, 20)

	bs, err := BalanceEvolution(core.Cents(100000), ops, now, 2)
	if err != nil {
		t.Fatalf("BalanceEvolution: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("buckets = %d, want 2", len(bs))
	}
	// January's credit is older than the visible window but still counts.
	if bs[0].Label != "02/2024" || bs[0].Values[0].Cents != 110000 {
		t.Errorf("bucket[0] = %q %d, want 02/2024 110000", bs[0].Label, bs[0].Values[0].Cents)
	}
	if bs[1].Label != "03/2024" || bs[1].Values[0].Cents != 105000 {
		t.Errorf("bucket[1] = %q %d, want 03/2024 105000", bs[1].Label, bs[1].Values[0].Cents)
	}
}

func TestBalanceEvolutionEmptyAccount(t *testing.T) {
	bs, err := BalanceEvolution(core.Cents(4200), nil, at(time.March, 20), 0)
	if err != nil {
		t.Fatalf("BalanceEvolution: %v", err)
	}
	if len(bs) != 1 || bs[0].Values[0].Cents != 4200 {
		t.Fatalf("buckets = %+v, want single bucket at starting balance", bs)
	}
}

func TestParseViewType(t *testing.T) {
	for _, s := range []string{"net", "charges", "credits"} {
		v, err := ParseViewType(s)
		if err != nil || string(v) != s {
			t.Errorf("ParseViewType(%q) = %q, %v", s, v, err)
		}
	}
	if _, err := ParseViewType("spending"); err == nil {
		t.Error("ParseViewType(spending) = nil, want error")
	}
}

func TestCalendarViews(t *testing.T) {
	ops := []core.BankOperation{
		charge(1, at(time.March, 5), 2000),
		credit(2, at(time.March, 5), 500),
		credit(3, at(time.March, 7), 1000),
	}
	now := at(time.March, 10)

	tests := []struct {
		view ViewType
		want []struct {
			label string
			cents int64
		}
	}{
		{ViewNet, []struct {
			label string
			cents int64
		}{{"05/03/2024", -1500}, {"07/03/2024", 1000}}},
		{ViewCharges, []struct {
			label string
			cents int64
		}{{"05/03/2024", -2000}}},
		{ViewCredits, []struct {
			label string
			cents int64
		}{{"05/03/2024", 500}, {"07/03/2024", 1000}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			bs, err := Calendar(ops, now, tt.view, 0)
			if err != nil {
				t.Fatalf("Calendar: %v", err)
			}
			if len(bs) != len(tt.want) {
				t.Fatalf("buckets = %d, want %d", len(bs), len(tt.want))
			}
			for i, w := range tt.want {
				if bs[i].Label != w.label || bs[i].Values[0].Cents != w.cents {
					t.Errorf("bucket[%d] = %q %d, want %q %d",
						i, bs[i].Label, bs[i].Values[0].Cents, w.label, w.cents)
				}
			}
		})
	}
}

func TestCalendarPrunesEmptyDays(t *testing.T) {
	ops := []core.BankOperation{
		charge(1, at(time.March, 1), 100),
		charge(2, at(time.March, 9), 200),
	}
	bs, err := Calendar(ops, at(time.March, 10), ViewNet, 0)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("buckets = %d, want 2 (days without operations pruned)", len(bs))
	}
}

func TestVersusTotals(t *testing.T) {
	ops := []core.BankOperation{
		charge(1, at(time.February, 28), 9999), // before the window
		charge(2, at(time.March, 1), 3000),
		credit(3, at(time.March, 10), 1000),
		credit(4, at(time.March, 31), 500), // last day still counts
		charge(5, at(time.April, 1), 9999), // after the window
	}
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 23, 59, 59, 999000000, time.UTC)

	got, err := Versus(ops, from, to, nil)
	if err != nil {
		t.Fatalf("Versus: %v", err)
	}
	if got.Charges.Cents != 3000 || got.Credits.Cents != 1500 {
		t.Errorf("totals = charges %d / credits %d, want 3000 / 1500",
			got.Charges.Cents, got.Credits.Cents)
	}
	if got.Balance.Cents != -1500 {
		t.Errorf("balance = %d, want -1500", got.Balance.Cents)
	}
	if want := 3000.0 / 4500.0; got.ChargeRate != want {
		t.Errorf("charge rate = %v, want %v", got.ChargeRate, want)
	}
	if want := 1500.0 / 4500.0; got.CreditRate != want {
		t.Errorf("credit rate = %v, want %v", got.CreditRate, want)
	}
}

func TestVersusIncludePredicate(t *testing.T) {
	food := charge(1, at(time.March, 5), 2000)
	food.Category = core.Category{ID: 1, Name: "Food", Type: core.Charge}
	rent := charge(2, at(time.March, 6), 8000)
	rent.Category = core.Category{ID: 2, Name: "Housing", Type: core.Charge}

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	onlyFood := func(op core.BankOperation) bool { return op.Category.ID == 1 }

	got, err := Versus([]core.BankOperation{food, rent}, from, to, onlyFood)
	if err != nil {
		t.Fatalf("Versus: %v", err)
	}
	if got.Charges.Cents != 2000 {
		t.Errorf("charges = %d, want 2000 (housing excluded)", got.Charges.Cents)
	}
}

func TestVersusEmptyWindowHasZeroRates(t *testing.T) {
	ops := []core.BankOperation{charge(1, at(time.January, 5), 100)}
	from := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	got, err := Versus(ops, from, to, nil)
	if err != nil {
		t.Fatalf("Versus: %v", err)
	}
	if got.ChargeRate != 0 || got.CreditRate != 0 || !got.Balance.IsZero() {
		t.Errorf("empty window = %+v, want all zeros", got)
	}
}

func TestVersusRejectsMalformedOperation(t *testing.T) {
	bad := charge(1, at(time.March, 5), 100)
	c := core.Cents(50)
	bad.Credit = &c

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	if _, err := Versus([]core.BankOperation{bad}, from, to, nil); err == nil {
		t.Fatal("Versus = nil, want error")
	}
}

func TestCategorySeriesFor(t *testing.T) {
	category := core.Category{
		ID: 1, Name: "Food", Type: core.Charge,
		SubCategories: []core.SubCategory{
			{ID: 10, Name: "Groceries", CategoryID: 1},
			{ID: 11, Name: "Restaurants", CategoryID: 1},
		},
	}

	groceries := charge(1, at(time.February, 5), 3000)
	groceries.SubCategory = &core.SubCategory{ID: 10, Name: "Groceries", CategoryID: 1}
	restaurants := charge(2, at(time.March, 8), 2000)
	restaurants.SubCategory = &core.SubCategory{ID: 11, Name: "Restaurants", CategoryID: 1}
	plain := charge(3, at(time.March, 9), 500)
	foreign := charge(4, at(time.March, 9), 700)
	foreign.SubCategory = &core.SubCategory{ID: 99, Name: "Rent", CategoryID: 2}

	ops := []core.BankOperation{groceries, restaurants, plain, foreign}
	now := at(time.March, 10)

	series, err := CategorySeriesFor(category, ops, Month, now, 0)
	if err != nil {
		t.Fatalf("CategorySeriesFor: %v", err)
	}

	wantColumns := []string{"Groceries", "Restaurants", UncategorizedColumn}
	if len(series.Columns) != len(wantColumns) {
		t.Fatalf("columns = %v, want %v", series.Columns, wantColumns)
	}
	for i, w := range wantColumns {
		if series.Columns[i] != w {
			t.Errorf("column[%d] = %q, want %q", i, series.Columns[i], w)
		}
	}

	if len(series.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2 (Feb, Mar)", len(series.Buckets))
	}

	feb := series.Buckets[0]
	if feb.Label != "02/2024" || feb.Values[0].Cents != -3000 {
		t.Errorf("February = %q %v, want groceries -3000", feb.Label, feb.Values)
	}

	mar := series.Buckets[1]
	if mar.Values[1].Cents != -2000 {
		t.Errorf("March restaurants = %d, want -2000", mar.Values[1].Cents)
	}
	// Operations without a sub-category and ones referencing a foreign
	// sub-category both land in the trailing column.
	if mar.Values[2].Cents != -1200 {
		t.Errorf("March uncategorized = %d, want -1200", mar.Values[2].Cents)
	}
}
