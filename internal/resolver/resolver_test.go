package resolver

import (
	"context"
	"errors"
	"testing"

	"comptes/internal/core"
)

type fakeThirdParties struct {
	nextID  int64
	creates int
	failure error
}

func (f *fakeThirdParties) List(ctx context.Context) ([]core.ThirdParty, error) {
	return nil, nil
}

func (f *fakeThirdParties) Create(ctx context.Context, tp core.ThirdParty) (core.ThirdParty, error) {
	f.creates++
	if f.failure != nil {
		return core.ThirdParty{}, f.failure
	}
	f.nextID++
	tp.ID = f.nextID
	return tp, nil
}

type fakeCategories struct {
	nextID  int64
	creates int
	failure error
}

func (f *fakeCategories) Get(ctx context.Context, id int64) (core.Category, error) {
	return core.Category{}, nil
}

func (f *fakeCategories) ListByType(ctx context.Context, t core.OperationType) ([]core.Category, error) {
	return nil, nil
}

func (f *fakeCategories) Create(ctx context.Context, c core.Category) (core.Category, error) {
	f.creates++
	if f.failure != nil {
		return core.Category{}, f.failure
	}
	f.nextID++
	c.ID = f.nextID
	return c, nil
}

func (f *fakeCategories) Update(ctx context.Context, id int64, c core.Category) (core.Category, error) {
	return c, nil
}

func (f *fakeCategories) ListOperations(ctx context.Context, categoryID int64) ([]core.BankOperation, error) {
	return nil, nil
}

type fakeSubCategories struct {
	nextID  int64
	creates int
	failure error
}

func (f *fakeSubCategories) Create(ctx context.Context, categoryID int64, sc core.SubCategory) (core.SubCategory, error) {
	f.creates++
	if f.failure != nil {
		return core.SubCategory{}, f.failure
	}
	f.nextID++
	sc.ID = f.nextID
	sc.CategoryID = categoryID
	return sc, nil
}

func (f *fakeSubCategories) Update(ctx context.Context, categoryID, subCategoryID int64, sc core.SubCategory, move bool) (core.SubCategory, error) {
	return sc, nil
}

type fakeOperations struct {
	nextID  int64
	creates int
	updates int
	failure error
}

func (f *fakeOperations) List(ctx context.Context, accountID int64) ([]core.BankOperation, error) {
	return nil, nil
}

func (f *fakeOperations) Create(ctx context.Context, accountID int64, op core.BankOperation) (core.BankOperation, error) {
	f.creates++
	if f.failure != nil {
		return core.BankOperation{}, f.failure
	}
	f.nextID++
	op.ID = f.nextID
	return op, nil
}

func (f *fakeOperations) Update(ctx context.Context, accountID, operationID int64, op core.BankOperation) (core.BankOperation, error) {
	f.updates++
	if f.failure != nil {
		return core.BankOperation{}, f.failure
	}
	return op, nil
}

type fixture struct {
	tp  *fakeThirdParties
	cat *fakeCategories
	sub *fakeSubCategories
	ops *fakeOperations
	r   *Resolver
}

func newFixture() *fixture {
	f := &fixture{
		tp:  &fakeThirdParties{nextID: 100},
		cat: &fakeCategories{nextID: 200},
		sub: &fakeSubCategories{nextID: 300},
		ops: &fakeOperations{nextID: 400},
	}
	f.r = New(f.tp, f.cat, f.sub, f.ops, nil)
	return f
}

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func chargeDraft(tp, cat, sub string) core.DraftOperation {
	d := core.DraftOperation{
		AccountID:     1,
		OperationDate: 1700000000000,
		BalanceState:  core.NotBalanced,
		Type:          core.Charge,
		Charge:        money(2550),
		ThirdParty:    core.Unresolved[core.ThirdParty](tp),
		Category:      core.Unresolved[core.Category](cat),
	}
	if sub != "" {
		d.SubCategory = core.Unresolved[core.SubCategory](sub)
	}
	return d
}

func TestResolveAndSaveCreatesMissingEntities(t *testing.T) {
	f := newFixture()
	tax := &Taxonomy{}
	var ops []core.BankOperation

	saved, err := f.r.ResolveAndSave(context.Background(),
		chargeDraft("Landlord", "Housing", "Rent"), tax, &ops)
	if err != nil {
		t.Fatalf("ResolveAndSave: %v", err)
	}

	if f.tp.creates != 1 || f.cat.creates != 1 || f.sub.creates != 1 {
		t.Fatalf("creates = tp %d, cat %d, sub %d; want 1 each",
			f.tp.creates, f.cat.creates, f.sub.creates)
	}
	if f.ops.creates != 1 {
		t.Fatalf("operation creates = %d, want 1", f.ops.creates)
	}

	if saved.ThirdParty.ID == 0 || saved.ThirdParty.Name != "Landlord" {
		t.Errorf("third party = %+v, want persisted Landlord", saved.ThirdParty)
	}
	if saved.Category.ID == 0 || saved.Category.Type != core.Charge {
		t.Errorf("category = %+v, want persisted charge category", saved.Category)
	}
	if saved.SubCategory == nil || saved.SubCategory.CategoryID != saved.Category.ID {
		t.Errorf("sub-category = %+v, want one owned by category %d",
			saved.SubCategory, saved.Category.ID)
	}

	if len(tax.ThirdParties) != 1 {
		t.Errorf("taxonomy third parties = %d, want 1", len(tax.ThirdParties))
	}
	if len(tax.ChargeCategories) != 1 {
		t.Fatalf("taxonomy charge categories = %d, want 1", len(tax.ChargeCategories))
	}
	if got := len(tax.ChargeCategories[0].SubCategories); got != 1 {
		t.Errorf("cached category sub-categories = %d, want 1", got)
	}
	if len(ops) != 1 || ops[0].ID != saved.ID {
		t.Errorf("operations list = %+v, want the saved operation appended", ops)
	}
}

func TestResolveAndSaveReusesExistingEntities(t *testing.T) {
	f := newFixture()
	tax := &Taxonomy{
		ThirdParties: []core.ThirdParty{{ID: 1, Name: "Landlord"}},
		ChargeCategories: []core.Category{{
			ID: 2, Name: "Housing", Type: core.Charge,
			SubCategories: []core.SubCategory{{ID: 3, Name: "Rent", CategoryID: 2}},
		}},
	}
	var ops []core.BankOperation

	saved, err := f.r.ResolveAndSave(context.Background(),
		chargeDraft("Landlord", "Housing", "Rent"), tax, &ops)
	if err != nil {
		t.Fatalf("ResolveAndSave: %v", err)
	}

	if f.tp.creates+f.cat.creates+f.sub.creates != 0 {
		t.Fatalf("creates = tp %d, cat %d, sub %d; want 0 when everything matches",
			f.tp.creates, f.cat.creates, f.sub.creates)
	}
	if saved.ThirdParty.ID != 1 || saved.Category.ID != 2 || saved.SubCategory.ID != 3 {
		t.Errorf("resolved ids = %d/%d/%d, want 1/2/3",
			saved.ThirdParty.ID, saved.Category.ID, saved.SubCategory.ID)
	}
}

func TestResolveAndSaveIsIdempotentAcrossDrafts(t *testing.T) {
	f := newFixture()
	tax := &Taxonomy{}
	var ops []core.BankOperation

	for i := 0; i < 2; i++ {
		if _, err := f.r.ResolveAndSave(context.Background(),
			chargeDraft("Landlord", "Housing", "Rent"), tax, &ops); err != nil {
			t.Fatalf("ResolveAndSave round %d: %v", i+1, err)
		}
	}

	if f.tp.creates != 1 || f.cat.creates != 1 || f.sub.creates != 1 {
		t.Errorf("creates = tp %d, cat %d, sub %d; want 1 each across both rounds",
			f.tp.creates, f.cat.creates, f.sub.creates)
	}
	if f.ops.creates != 2 {
		t.Errorf("operation creates = %d, want 2", f.ops.creates)
	}
	if len(ops) != 2 {
		t.Errorf("operations list length = %d, want 2", len(ops))
	}
}

func TestResolveAndSaveMatchingIsCaseSensitive(t *testing.T) {
	f := newFixture()
	tax := &Taxonomy{
		ThirdParties:     []core.ThirdParty{{ID: 1, Name: "landlord"}},
		ChargeCategories: []core.Category{{ID: 2, Name: "housing", Type: core.Charge}},
	}

	if _, err := f.r.ResolveAndSave(context.Background(),
		chargeDraft("Landlord", "Housing", ""), tax, nil); err != nil {
		t.Fatalf("ResolveAndSave: %v", err)
	}

	if f.tp.creates != 1 || f.cat.creates != 1 {
		t.Errorf("creates = tp %d, cat %d; want 1 each for differently-cased names",
			f.tp.creates, f.cat.creates)
	}
}

func TestResolveAndSaveAbortsOnCategoryFailure(t *testing.T) {
	f := newFixture()
	cause := errors.New("boom")
	f.cat.failure = cause
	tax := &Taxonomy{}
	var ops []core.BankOperation

	_, err := f.r.ResolveAndSave(context.Background(),
		chargeDraft("Landlord", "Housing", "Rent"), tax, &ops)
	if !errors.Is(err, ErrCategoryCreate) {
		t.Fatalf("err = %v, want ErrCategoryCreate", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want the underlying cause chained", err)
	}

	// The third party created before the failure survives in the cache.
	if f.tp.creates != 1 || len(tax.ThirdParties) != 1 {
		t.Errorf("third party creates = %d, cached = %d; want 1 and 1",
			f.tp.creates, len(tax.ThirdParties))
	}
	if f.sub.creates != 0 || f.ops.creates != 0 {
		t.Errorf("later steps ran after failure: sub %d, ops %d",
			f.sub.creates, f.ops.creates)
	}
	if len(ops) != 0 {
		t.Errorf("operations list length = %d, want 0", len(ops))
	}
}

func TestResolveAndSaveAbortsOnThirdPartyFailure(t *testing.T) {
	f := newFixture()
	cause := errors.New("boom")
	f.tp.failure = cause

	_, err := f.r.ResolveAndSave(context.Background(),
		chargeDraft("Landlord", "Housing", ""), &Taxonomy{}, nil)
	if !errors.Is(err, ErrThirdPartyCreate) {
		t.Fatalf("err = %v, want ErrThirdPartyCreate", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want the underlying cause chained", err)
	}
	if f.cat.creates != 0 || f.ops.creates != 0 {
		t.Errorf("later steps ran after failure: cat %d, ops %d",
			f.cat.creates, f.ops.creates)
	}
}

func TestResolveAndSaveUpdatesInPlace(t *testing.T) {
	f := newFixture()
	tax := &Taxonomy{
		ThirdParties:     []core.ThirdParty{{ID: 1, Name: "Landlord"}},
		ChargeCategories: []core.Category{{ID: 2, Name: "Housing", Type: core.Charge}},
	}
	ops := []core.BankOperation{
		{ID: 7, AccountID: 1, OperationDate: 1690000000000, BalanceState: core.NotBalanced,
			ThirdParty: core.ThirdParty{ID: 1, Name: "Landlord"},
			Charge:     money(1000),
			Category:   core.Category{ID: 2, Name: "Housing", Type: core.Charge}},
		{ID: 8, AccountID: 1, OperationDate: 1695000000000, BalanceState: core.NotBalanced,
			ThirdParty: core.ThirdParty{ID: 1, Name: "Landlord"},
			Charge:     money(500),
			Category:   core.Category{ID: 2, Name: "Housing", Type: core.Charge}},
	}

	draft := chargeDraft("Landlord", "Housing", "")
	draft.ID = 7
	draft.Charge = money(9900)

	saved, err := f.r.ResolveAndSave(context.Background(), draft, tax, &ops)
	if err != nil {
		t.Fatalf("ResolveAndSave: %v", err)
	}

	if f.ops.updates != 1 || f.ops.creates != 0 {
		t.Fatalf("updates = %d, creates = %d; want 1 update, 0 creates",
			f.ops.updates, f.ops.creates)
	}
	if len(ops) != 2 {
		t.Fatalf("operations list length = %d, want 2", len(ops))
	}
	if ops[0].Charge.Cents != 9900 {
		t.Errorf("updated operation charge = %d cents, want 9900", ops[0].Charge.Cents)
	}
	if ops[1].Charge.Cents != 500 {
		t.Errorf("sibling operation changed: charge = %d cents, want 500", ops[1].Charge.Cents)
	}
	if saved.ID != 7 {
		t.Errorf("saved id = %d, want 7", saved.ID)
	}
}

func TestResolveAndSaveRejectsInvalidDraft(t *testing.T) {
	f := newFixture()

	draft := chargeDraft("Landlord", "Housing", "")
	draft.Charge = nil

	_, err := f.r.ResolveAndSave(context.Background(), draft, &Taxonomy{}, nil)
	if !errors.Is(err, core.ErrMalformedOperation) {
		t.Fatalf("err = %v, want ErrMalformedOperation", err)
	}
	if f.tp.creates+f.cat.creates+f.ops.creates != 0 {
		t.Errorf("remote calls made for an invalid draft")
	}
}
