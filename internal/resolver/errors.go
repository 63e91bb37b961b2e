package resolver

import "errors"

// One sentinel per cascade step. A failed step wraps its cause with the
// matching sentinel so callers can tell which remote upsert broke without
// parsing messages.
var (
	ErrThirdPartyCreate  = errors.New("third party create failed")
	ErrCategoryCreate    = errors.New("category create failed")
	ErrSubCategoryCreate = errors.New("sub-category create failed")
	ErrOperationSave     = errors.New("bank operation save failed")
	ErrOperationUpdate   = errors.New("bank operation update failed")
)
