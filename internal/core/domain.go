package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Charge OperationType = "CHARGE"
	Credit OperationType = "CREDIT"
)

const (
	NotBalanced BalanceState = "NOT_BALANCED"
	Pending     BalanceState = "PENDING"
	Balanced    BalanceState = "BALANCED"
)

type (
	// OperationType tells whether money leaves (CHARGE) or enters (CREDIT)
	// an account. A category carries the same type and only accepts
	// operations that agree with it.
	OperationType string

	// BalanceState is the reconciliation status of an operation against a
	// bank statement.
	BalanceState string

	Account struct {
		ID              int64  `json:"id"`
		Name            string `json:"name"`
		BankName        string `json:"bankName"`
		Number          string `json:"number"`
		StartingBalance Money  `json:"startingBalance"`
		FinalBalance    Money  `json:"finalBalance"`
	}

	ThirdParty struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// SubCategory keeps a weak back-reference to its owner; the Category
	// owns the collection.
	SubCategory struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		CategoryID int64  `json:"categoryId"`
	}

	Category struct {
		ID            int64         `json:"id"`
		Name          string        `json:"name"`
		Type          OperationType `json:"type"`
		SubCategories []SubCategory `json:"subCategories"`
	}

	// BankOperation is a single charge or credit on an account.
	// OperationDate is milliseconds since the Unix epoch. Exactly one of
	// Charge and Credit is set once persisted.
	BankOperation struct {
		ID            int64        `json:"id"`
		AccountID     int64        `json:"accountId"`
		BankNoteNum   string       `json:"bankNoteNum,omitempty"`
		OperationDate int64        `json:"operationDate"`
		BalanceState  BalanceState `json:"balanceState"`
		ThirdParty    ThirdParty   `json:"thirdParty"`
		Charge        *Money       `json:"charge,omitempty"`
		Credit        *Money       `json:"credit,omitempty"`
		Category      Category     `json:"category"`
		SubCategory   *SubCategory `json:"subCategory,omitempty"`
		Notes         string       `json:"notes,omitempty"`
	}
)

var (
	ErrMalformedOperation = errors.New("malformed bank operation")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidType        = errors.New("invalid operation type")
)

// IsValid reports whether t is one of the two known operation types.
func (t OperationType) IsValid() bool {
	return t == Charge || t == Credit
}

// IsValid reports whether s is a known balance state.
func (s BalanceState) IsValid() bool {
	return s == NotBalanced || s == Pending || s == Balanced
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account: %w", ErrEmptyName)
	}
	return nil
}

func (tp ThirdParty) Validate() error {
	if strings.TrimSpace(tp.Name) == "" {
		return fmt.Errorf("third party: %w", ErrEmptyName)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category: %w", ErrEmptyName)
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("category %q: %w: %q", c.Name, ErrInvalidType, c.Type)
	}
	return nil
}

func (sc SubCategory) Validate() error {
	if strings.TrimSpace(sc.Name) == "" {
		return fmt.Errorf("sub-category: %w", ErrEmptyName)
	}
	return nil
}

// FindSubCategory returns the sub-category with the given id, if the
// category owns it.
func (c Category) FindSubCategory(id int64) (SubCategory, bool) {
	for _, sc := range c.SubCategories {
		if sc.ID == id {
			return sc, true
		}
	}
	return SubCategory{}, false
}

// Type derives the operation type from whichever amount field is set.
// Callers must have validated the charge/credit exclusivity first.
func (o BankOperation) Type() OperationType {
	if o.Charge != nil {
		return Charge
	}
	return Credit
}

// Amount returns the unsigned monetary value of the operation.
func (o BankOperation) Amount() Money {
	if o.Charge != nil {
		return *o.Charge
	}
	if o.Credit != nil {
		return *o.Credit
	}
	return Money{}
}

// SignedAmount returns credit minus charge: positive for credits,
// negative for charges.
func (o BankOperation) SignedAmount() Money {
	switch {
	case o.Credit != nil:
		return *o.Credit
	case o.Charge != nil:
		return Money{Cents: -o.Charge.Cents}
	default:
		return Money{}
	}
}

// ValidateShape checks the field-level invariants the analysis engines
// depend on: a positive operation date and charge XOR credit with a
// non-negative amount. The engines fail fast on a violation instead of
// silently skewing totals.
func (o BankOperation) ValidateShape() error {
	if o.OperationDate <= 0 {
		return fmt.Errorf("%w: missing operation date", ErrMalformedOperation)
	}
	if o.Charge != nil && o.Credit != nil {
		return fmt.Errorf("%w: charge and credit both set", ErrMalformedOperation)
	}
	if o.Charge == nil && o.Credit == nil {
		return fmt.Errorf("%w: neither charge nor credit set", ErrMalformedOperation)
	}
	if o.Amount().Cents < 0 {
		return fmt.Errorf("%w: negative amount", ErrMalformedOperation)
	}
	return nil
}

// Validate enforces the full persistence invariants: the shape checks plus
// a category whose type agrees with the operation and a sub-category (when
// present) that belongs to that category.
func (o BankOperation) Validate() error {
	if err := o.ValidateShape(); err != nil {
		return err
	}
	if !o.BalanceState.IsValid() {
		return fmt.Errorf("%w: unknown balance state %q", ErrMalformedOperation, o.BalanceState)
	}
	if o.Category.Type != "" && o.Category.Type != o.Type() {
		return fmt.Errorf("%w: category type %s does not match operation type %s",
			ErrMalformedOperation, o.Category.Type, o.Type())
	}
	if o.SubCategory != nil {
		if _, ok := o.Category.FindSubCategory(o.SubCategory.ID); !ok {
			return fmt.Errorf("%w: sub-category %q does not belong to category %q",
				ErrMalformedOperation, o.SubCategory.Name, o.Category.Name)
		}
	}
	return nil
}
