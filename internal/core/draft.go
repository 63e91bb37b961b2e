package core

import "fmt"

// DraftOperation is a user-entered operation on its way to the server.
// The referenced entities may still be plain names; the resolver turns
// them into persisted entities before the operation itself is saved.
type DraftOperation struct {
	ID            int64
	AccountID     int64
	BankNoteNum   string
	OperationDate int64
	BalanceState  BalanceState
	Type          OperationType
	Charge        *Money
	Credit        *Money
	ThirdParty    Ref[ThirdParty]
	Category      Ref[Category]
	SubCategory   Ref[SubCategory]
	Notes         string
}

// Validate checks the parts of the draft that do not depend on resolution:
// date, type, amount exclusivity and the presence of a third party and a
// category (resolved or not).
func (d DraftOperation) Validate() error {
	if d.OperationDate <= 0 {
		return fmt.Errorf("%w: missing operation date", ErrMalformedOperation)
	}
	if !d.Type.IsValid() {
		return fmt.Errorf("draft: %w: %q", ErrInvalidType, d.Type)
	}
	if d.Charge != nil && d.Credit != nil {
		return fmt.Errorf("%w: charge and credit both set", ErrMalformedOperation)
	}
	switch d.Type {
	case Charge:
		if d.Charge == nil {
			return fmt.Errorf("%w: charge draft without charge amount", ErrMalformedOperation)
		}
	case Credit:
		if d.Credit == nil {
			return fmt.Errorf("%w: credit draft without credit amount", ErrMalformedOperation)
		}
	}
	if d.ThirdParty.IsZero() {
		return fmt.Errorf("draft third party: %w", ErrEmptyName)
	}
	if d.Category.IsZero() {
		return fmt.Errorf("draft category: %w", ErrEmptyName)
	}
	if !d.BalanceState.IsValid() {
		return fmt.Errorf("%w: unknown balance state %q", ErrMalformedOperation, d.BalanceState)
	}
	return nil
}
