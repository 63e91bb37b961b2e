// Package resolver implements the save cascade for user-entered bank
// operations. A draft may reference its third party, category and
// sub-category by plain name; saving resolves each one against the cached
// taxonomy, creates the missing ones on the server in a fixed order, and
// only then saves the operation itself.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"comptes/internal/core"
	"comptes/internal/rest"
)

// Resolver drives the cascade against the four REST collaborators.
type Resolver struct {
	thirdParties  rest.ThirdPartiesClient
	categories    rest.CategoriesClient
	subCategories rest.SubCategoriesClient
	operations    rest.BankOperationsClient
	logger        *slog.Logger
}

func New(
	thirdParties rest.ThirdPartiesClient,
	categories rest.CategoriesClient,
	subCategories rest.SubCategoriesClient,
	operations rest.BankOperationsClient,
	logger *slog.Logger,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		thirdParties:  thirdParties,
		categories:    categories,
		subCategories: subCategories,
		operations:    operations,
		logger:        logger,
	}
}

// ResolveAndSave runs the cascade for one draft:
//
//  1. resolve the third party, creating it if the name is unknown
//  2. resolve the category within the draft type's namespace, creating it
//     if the name is unknown
//  3. resolve the optional sub-category within the resolved category,
//     creating it if the name is unknown
//  4. create the operation, or update it when the draft carries an id
//
// The steps are strictly sequential: each later step needs the server id
// produced by the earlier one. Successful creations are appended to tax so
// the caches stay current; the saved operation is appended to ops (create)
// or replaces its previous version in place (update).
//
// The cascade aborts on the first failure and wraps it with the step's
// sentinel. Entities created by earlier steps are not rolled back; they
// are valid taxonomy entries on their own and the caches already reflect
// them. Re-submitting the same draft resolves against them instead of
// creating duplicates.
func (r *Resolver) ResolveAndSave(ctx context.Context, draft core.DraftOperation,
	tax *Taxonomy, ops *[]core.BankOperation) (core.BankOperation, error) {

	if err := draft.Validate(); err != nil {
		return core.BankOperation{}, fmt.Errorf("resolve draft: %w", err)
	}

	tp, err := r.resolveThirdParty(ctx, draft.ThirdParty, tax)
	if err != nil {
		return core.BankOperation{}, err
	}

	cat, err := r.resolveCategory(ctx, draft.Category, draft.Type, tax)
	if err != nil {
		return core.BankOperation{}, err
	}

	var sub *core.SubCategory
	if !draft.SubCategory.IsZero() {
		sc, err := r.resolveSubCategory(ctx, draft.SubCategory, cat)
		if err != nil {
			return core.BankOperation{}, err
		}
		sub = &sc
	}

	op := core.BankOperation{
		ID:            draft.ID,
		AccountID:     draft.AccountID,
		BankNoteNum:   draft.BankNoteNum,
		OperationDate: draft.OperationDate,
		BalanceState:  draft.BalanceState,
		ThirdParty:    tp,
		Charge:        draft.Charge,
		Credit:        draft.Credit,
		Category:      *cat,
		SubCategory:   sub,
		Notes:         draft.Notes,
	}
	if err := op.Validate(); err != nil {
		return core.BankOperation{}, fmt.Errorf("resolved operation: %w", err)
	}

	if draft.ID != 0 {
		return r.updateOperation(ctx, op, ops)
	}
	return r.createOperation(ctx, op, ops)
}

// resolveThirdParty returns the draft's third party, creating it when the
// typed name matches nothing in the cache. Matching is case-sensitive
// exact.
func (r *Resolver) resolveThirdParty(ctx context.Context, ref core.Ref[core.ThirdParty],
	tax *Taxonomy) (core.ThirdParty, error) {

	if tp, ok := ref.Entity(); ok {
		return tp, nil
	}
	if tp, ok := tax.findThirdParty(ref.Name()); ok {
		return tp, nil
	}

	created, err := r.thirdParties.Create(ctx, core.ThirdParty{Name: ref.Name()})
	if err != nil {
		return core.ThirdParty{}, fmt.Errorf("%w: %q: %w", ErrThirdPartyCreate, ref.Name(), err)
	}
	tax.ThirdParties = append(tax.ThirdParties, created)
	r.logger.InfoContext(ctx, "created third party",
		"id", created.ID, "name", created.Name)
	return created, nil
}

// resolveCategory returns a pointer into the taxonomy's cached list for
// the draft's category, so a later sub-category creation lands in the
// cache too. A resolved entity missing from the cache is adopted into it.
func (r *Resolver) resolveCategory(ctx context.Context, ref core.Ref[core.Category],
	typ core.OperationType, tax *Taxonomy) (*core.Category, error) {

	list := tax.categoriesFor(typ)

	if cat, ok := ref.Entity(); ok {
		if i, found := findCategoryByID(*list, cat.ID); found {
			return &(*list)[i], nil
		}
		*list = append(*list, cat)
		return &(*list)[len(*list)-1], nil
	}

	if i, found := findCategoryByName(*list, ref.Name()); found {
		return &(*list)[i], nil
	}

	created, err := r.categories.Create(ctx, core.Category{Name: ref.Name(), Type: typ})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCategoryCreate, ref.Name(), err)
	}
	*list = append(*list, created)
	r.logger.InfoContext(ctx, "created category",
		"id", created.ID, "name", created.Name, "type", created.Type)
	return &(*list)[len(*list)-1], nil
}

// resolveSubCategory returns the draft's sub-category within cat, creating
// it when the typed name matches none of cat's sub-categories. cat points
// into the taxonomy cache, so the creation is visible to later drafts.
func (r *Resolver) resolveSubCategory(ctx context.Context, ref core.Ref[core.SubCategory],
	cat *core.Category) (core.SubCategory, error) {

	if sc, ok := ref.Entity(); ok {
		return sc, nil
	}
	for _, sc := range cat.SubCategories {
		if sc.Name == ref.Name() {
			return sc, nil
		}
	}

	created, err := r.subCategories.Create(ctx, cat.ID,
		core.SubCategory{Name: ref.Name(), CategoryID: cat.ID})
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("%w: %q in category %d: %w",
			ErrSubCategoryCreate, ref.Name(), cat.ID, err)
	}
	cat.SubCategories = append(cat.SubCategories, created)
	r.logger.InfoContext(ctx, "created sub-category",
		"id", created.ID, "name", created.Name, "categoryId", cat.ID)
	return created, nil
}

func (r *Resolver) createOperation(ctx context.Context, op core.BankOperation,
	ops *[]core.BankOperation) (core.BankOperation, error) {

	saved, err := r.operations.Create(ctx, op.AccountID, op)
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("%w: account %d: %w",
			ErrOperationSave, op.AccountID, err)
	}
	if ops != nil {
		*ops = append(*ops, saved)
	}
	r.logger.InfoContext(ctx, "created bank operation",
		"id", saved.ID, "accountId", saved.AccountID)
	return saved, nil
}

func (r *Resolver) updateOperation(ctx context.Context, op core.BankOperation,
	ops *[]core.BankOperation) (core.BankOperation, error) {

	saved, err := r.operations.Update(ctx, op.AccountID, op.ID, op)
	if err != nil {
		return core.BankOperation{}, fmt.Errorf("%w: operation %d: %w",
			ErrOperationUpdate, op.ID, err)
	}
	if ops != nil {
		for i := range *ops {
			if (*ops)[i].ID == saved.ID {
				(*ops)[i] = saved
				break
			}
		}
	}
	r.logger.InfoContext(ctx, "updated bank operation",
		"id", saved.ID, "accountId", saved.AccountID)
	return saved, nil
}
