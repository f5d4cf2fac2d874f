package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error taxonomy for the sale/stock/cash engine. Validation and precondition
// errors are raised before any mutation; mid-transaction failures roll the
// whole operation back, so callers never observe partial stock or cash
// effects. ErrReversalIncomplete is the single exception: a cancellation that
// could not restore every item leaves the sale completed and must be retried.
var (
	ErrInvalidCart            = errors.New("invalid cart")
	ErrPaymentMismatch        = errors.New("payments do not match sale total")
	ErrNoOpenRegister         = errors.New("no open cash register session")
	ErrRegisterAlreadyOpen    = errors.New("operator already has an open register session")
	ErrSessionClosed          = errors.New("cash register session is closed")
	ErrInvalidStateTransition = errors.New("invalid sale state transition")
	ErrAlreadyCancelled       = errors.New("sale is already cancelled")
	ErrReversalIncomplete     = errors.New("sale reversal incomplete, retry cancellation")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)

// InsufficientStockError aborts a finalization when a sale decrement would
// drive a product's stock below zero. It carries enough context for the POS
// front-end to show which product ran out.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
