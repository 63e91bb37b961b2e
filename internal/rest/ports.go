package rest

import (
	"context"

	"comptes/internal/core"
)

// Client-side ports onto the REST collaborators. The resolver and the
// record CLI depend on these, never on the concrete HTTP client, so tests
// can count calls with fakes.
type (
	AccountsClient interface {
		Get(ctx context.Context, id int64) (core.Account, error)
		List(ctx context.Context) ([]core.Account, error)
		Save(ctx context.Context, a core.Account) (core.Account, error)
		Update(ctx context.Context, id int64, a core.Account) (core.Account, error)
	}

	ThirdPartiesClient interface {
		List(ctx context.Context) ([]core.ThirdParty, error)
		Create(ctx context.Context, tp core.ThirdParty) (core.ThirdParty, error)
	}

	CategoriesClient interface {
		Get(ctx context.Context, id int64) (core.Category, error)
		// ListByType returns the charge or credit category list; the two
		// types are separate namespaces.
		ListByType(ctx context.Context, t core.OperationType) ([]core.Category, error)
		Create(ctx context.Context, c core.Category) (core.Category, error)
		Update(ctx context.Context, id int64, c core.Category) (core.Category, error)
		// ListOperations returns every operation referencing the category,
		// across accounts, for the category analysis chart.
		ListOperations(ctx context.Context, categoryID int64) ([]core.BankOperation, error)
	}

	SubCategoriesClient interface {
		Create(ctx context.Context, categoryID int64, sc core.SubCategory) (core.SubCategory, error)
		// Update renames a sub-category; with move set it re-parents it to
		// sc.CategoryID (categoryID stays the current owner).
		Update(ctx context.Context, categoryID, subCategoryID int64, sc core.SubCategory, move bool) (core.SubCategory, error)
	}

	BankOperationsClient interface {
		List(ctx context.Context, accountID int64) ([]core.BankOperation, error)
		Create(ctx context.Context, accountID int64, op core.BankOperation) (core.BankOperation, error)
		Update(ctx context.Context, accountID, operationID int64, op core.BankOperation) (core.BankOperation, error)
	}
)
