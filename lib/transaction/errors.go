package transaction

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidIntent = errors.New("invalid transaction intent")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrKeyMismatch   = errors.New("wallet keys do not match the transaction account")
	ErrExpired       = errors.New("transaction expired past its last ledger sequence")
	ErrTimedOut      = errors.New("timed out waiting for a validated result")
)

// InvalidIntentError reports why an intent was refused. It matches
// ErrInvalidIntent.
type InvalidIntentError struct {
	Reason string
}

func (e *InvalidIntentError) Error() string {
	return "invalid transaction intent: " + e.Reason
}

func (e *InvalidIntentError) Is(target error) bool {
	return target == ErrInvalidIntent
}

func invalidf(format string, args ...interface{}) error {
	return errors.WithStack(&InvalidIntentError{Reason: fmt.Sprintf(format, args...)})
}

// RejectedError is a preliminary result the ledger will never accept for
// this payload (tem, tef and tel codes).
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "transaction rejected: " + e.Code
	}
	return fmt.Sprintf("transaction rejected: %s: %s", e.Code, e.Message)
}

// FailedError is a transaction that made it into a validated ledger with a
// result other than tesSUCCESS. The fee was charged.
type FailedError struct {
	Code        string
	LedgerIndex uint32
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("transaction validated in ledger %d with %s", e.LedgerIndex, e.Code)
}
