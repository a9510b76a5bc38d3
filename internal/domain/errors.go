package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for input that cannot be reconciled at all.
var (
	ErrLedgerUnreadable     = errors.New("ledger source cannot be read")
	ErrEmptyLedger          = errors.New("ledger has no data rows")
	ErrMissingColumn        = errors.New("required ledger column not found")
	ErrInvoiceDirUnreadable = errors.New("invoice directory cannot be read")
	ErrNoInvoices           = errors.New("no invoice files found")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// InputError wraps one of the sentinel errors with the offending input.
type InputError struct {
	Input   string
	Err     error
	Details string
}

func (e *InputError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Input, e.Err.Error(), e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Input, e.Err.Error())
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NewInputError builds an InputError.
func NewInputError(input string, err error, details string) *InputError {
	return &InputError{Input: input, Err: err, Details: details}
}
