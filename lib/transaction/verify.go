package transaction

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
)

// await polls until out reaches Validated or Expired, or ctx ends (TimedOut).
func (s *Submitter) await(ctx context.Context, out *Outcome) {
	ticker := time.NewTicker(s.policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.transition(out, StateTimedOut)
			return
		case <-ticker.C:
		}

		if next, ok := s.check(ctx, out); ok {
			s.transition(out, next)
			return
		}
	}
}

// check does one poll. The validated index is read before the lookup so
// that a miss can be trusted: if the bound ledger was already validated
// and the transaction is not in it, it never will be.
func (s *Submitter) check(ctx context.Context, out *Outcome) (State, bool) {
	validated, err := s.ledger.ValidatedLedgerIndex(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("hash", out.Hash).Msg("poll: reading validated ledger failed")
		return "", false
	}

	st, err := s.ledger.Tx(ctx, out.Hash)
	switch {
	case err == nil && st.Validated:
		out.LedgerIndex = st.LedgerIndex
		out.ResultCode = st.Result
		out.ResultMessage = ""
		return StateValidated, true
	case err == nil, errors.Is(err, ledger.ErrNotFound):
		if out.LastLedgerSequence != 0 && validated > out.LastLedgerSequence {
			return StateExpired, true
		}
		s.log.Debug().Str("hash", out.Hash).Uint32("validated", validated).Msg("poll: not validated yet")
		return "", false
	default:
		s.log.Warn().Err(err).Str("hash", out.Hash).Msg("poll: transaction lookup failed")
		return "", false
	}
}

// Status checks a transaction once, for callers that stopped waiting
// (TimedOut) and want the eventual result. lastLedger may be zero when
// unknown; the outcome is then Pending until the transaction validates.
func (s *Submitter) Status(ctx context.Context, hash string, lastLedger uint32) (*Outcome, error) {
	out := &Outcome{
		State:              StatePending,
		Hash:               hash,
		LastLedgerSequence: lastLedger,
	}

	validated, err := s.ledger.ValidatedLedgerIndex(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read validated ledger")
	}
	st, err := s.ledger.Tx(ctx, hash)
	switch {
	case err == nil && st.Validated:
		out.State = StateValidated
		out.LedgerIndex = st.LedgerIndex
		out.ResultCode = st.Result
	case err == nil, errors.Is(err, ledger.ErrNotFound):
		if lastLedger != 0 && validated > lastLedger {
			out.State = StateExpired
		}
	default:
		return nil, errors.Wrap(err, "look up transaction")
	}
	return out, nil
}
