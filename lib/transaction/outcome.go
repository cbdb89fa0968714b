package transaction

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
)

// State is a step of the submission state machine.
type State string

const (
	StateBuilt        State = "Built"
	StateSubmitted    State = "Submitted"
	StatePending      State = "Pending"
	StateValidated    State = "Validated"
	StateRejected     State = "Rejected"
	StateExpired      State = "Expired"
	StateTimedOut     State = "TimedOut"
	StateNetworkError State = "NetworkError"
)

func (s State) Terminal() bool {
	switch s {
	case StateValidated, StateRejected, StateExpired, StateTimedOut, StateNetworkError:
		return true
	}
	return false
}

const resultSuccess = "tesSUCCESS"

// Outcome is where a submission ended up. Only Validated with tesSUCCESS
// is a success; Validated with another code means the ledger applied the
// transaction and charged the fee but the requested effect did not happen.
type Outcome struct {
	CorrelationID      string
	State              State
	Hash               string
	Account            string
	Sequence           uint32
	LastLedgerSequence uint32
	LedgerIndex        uint32 // Validated only
	ResultCode         string
	ResultMessage      string
	Attempts           int
	SequenceCorrected  bool
	Cause              error // last transport error for NetworkError
}

func (o *Outcome) Succeeded() bool {
	return o.State == StateValidated && o.ResultCode == resultSuccess
}

// Err maps the outcome to a typed error, nil on success. A Pending outcome
// from Status is not an error.
func (o *Outcome) Err() error {
	switch o.State {
	case StateValidated:
		if o.ResultCode == resultSuccess {
			return nil
		}
		return &FailedError{Code: o.ResultCode, LedgerIndex: o.LedgerIndex}
	case StateRejected:
		return &RejectedError{Code: o.ResultCode, Message: o.ResultMessage}
	case StateExpired:
		return errors.Wrapf(ErrExpired, "%s (last ledger %d)", o.Hash, o.LastLedgerSequence)
	case StateTimedOut:
		return errors.Wrapf(ErrTimedOut, "%s", o.Hash)
	case StateNetworkError:
		if o.Cause != nil {
			return o.Cause
		}
		return ledger.ErrNetwork
	}
	return nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (o *Outcome) MarshalZerologObject(e *zerolog.Event) {
	e.Str("correlation_id", o.CorrelationID).
		Str("state", string(o.State)).
		Str("hash", o.Hash).
		Str("account", o.Account).
		Uint32("sequence", o.Sequence).
		Uint32("last_ledger_sequence", o.LastLedgerSequence).
		Int("attempts", o.Attempts)
	if o.ResultCode != "" {
		e.Str("result", o.ResultCode)
	}
	if o.LedgerIndex != 0 {
		e.Uint32("ledger_index", o.LedgerIndex)
	}
}

// Transition is one state change reported to an Observer.
type Transition struct {
	CorrelationID string
	Hash          string
	From          State
	To            State
	ResultCode    string
	At            time.Time
}

// Observer receives every state transition. It is called synchronously
// from the submitting goroutine and must not block.
type Observer func(Transition)
