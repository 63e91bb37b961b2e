package resolver

import "comptes/internal/core"

// Taxonomy holds the caller-owned caches the cascade resolves against:
// the known third parties and the two category lists. The web client kept
// these as globals shared across views; here each view (or test) owns its
// copy and passes it in explicitly.
//
// Matching is case-sensitive exact. Categories are scoped by type, so the
// charge and credit lists are independent namespaces, while third-party
// names are global.
type Taxonomy struct {
	ThirdParties     []core.ThirdParty
	ChargeCategories []core.Category
	CreditCategories []core.Category
}

// Load fills a Taxonomy from the server in one pass.
func Load(thirdParties []core.ThirdParty, charge, credit []core.Category) *Taxonomy {
	return &Taxonomy{
		ThirdParties:     thirdParties,
		ChargeCategories: charge,
		CreditCategories: credit,
	}
}

func (t *Taxonomy) findThirdParty(name string) (core.ThirdParty, bool) {
	for _, tp := range t.ThirdParties {
		if tp.Name == name {
			return tp, true
		}
	}
	return core.ThirdParty{}, false
}

// categoriesFor returns a pointer to the type's cached list so creations
// can append to the caller's slice.
func (t *Taxonomy) categoriesFor(typ core.OperationType) *[]core.Category {
	if typ == core.Credit {
		return &t.CreditCategories
	}
	return &t.ChargeCategories
}

func findCategoryByName(list []core.Category, name string) (int, bool) {
	for i, c := range list {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

func findCategoryByID(list []core.Category, id int64) (int, bool) {
	for i, c := range list {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}
