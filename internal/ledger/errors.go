package ledger

import "errors"

// Sentinel errors returned by ledger operations. Handlers map these to HTTP
// status codes; everything else is treated as an internal failure.
var (
	ErrSelfTransfer      = errors.New("cannot send coins to yourself")
	ErrInvalidAttribute  = errors.New("attribute not found or inactive")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrDuplicateName     = errors.New("attribute name already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidDimension  = errors.New("unknown ranking dimension")
)
