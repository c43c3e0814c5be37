package core

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so callers can branch with
// errors.Is regardless of the message.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrInvalidDay       = fmt.Errorf("%w: invalid day", ErrInvalidArgument)
	ErrInvalidMonth     = fmt.Errorf("%w: invalid month", ErrInvalidArgument)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrInvalidArgument)
	ErrSameAccount      = fmt.Errorf("%w: source and destination account must differ", ErrInvalidArgument)

	ErrAlreadySettled = fmt.Errorf("%w: entry already settled", ErrInvalidState)
	ErrNotExpense     = fmt.Errorf("%w: entry is not an expense", ErrInvalidState)
	ErrNotCreditCard  = fmt.Errorf("%w: entry is not on a credit card account", ErrInvalidState)
	ErrTransferLeg    = fmt.Errorf("%w: transfer legs cannot be edited individually", ErrInvalidState)

	ErrPayingWithCard = fmt.Errorf("%w: paying account cannot be a credit card", ErrInvalidArgument)
)
