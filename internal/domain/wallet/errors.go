package wallet

import "errors"

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrReserveNotFound   = errors.New("reserve not found")
	ErrReserveNotActive  = errors.New("reserve is not active")
	ErrReferenceConflict = errors.New("reference conflicts with different amount")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
)
