package transaction

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
)

type verdict int

const (
	verdictPending verdict = iota
	verdictRejected
	verdictBadSequence
	verdictPastBound
)

// classify interprets a preliminary engine result
func classify(code string) verdict {
	switch code {
	case "tefALREADY":
		// same signed blob already seen; it is in flight
		return verdictPending
	case "tefPAST_SEQ", "terPRE_SEQ":
		return verdictBadSequence
	case "tefMAX_LEDGER":
		// LastLedgerSequence already passed; only the validated ledger
		// can tell Expired apart from a copy that got in earlier
		return verdictPastBound
	}

	switch {
	case strings.HasPrefix(code, "tes"), strings.HasPrefix(code, "ter"):
		return verdictPending
	case strings.HasPrefix(code, "tec"):
		// fee claimed; the validated ledger carries the final code
		return verdictPending
	default:
		// tem, tef, tel and anything unknown
		return verdictRejected
	}
}

// drive runs one logical submission from Built to a terminal state.
// refresh rebuilds and re-signs with a fresh sequence; it is nil when the
// transaction cannot be re-signed.
func (s *Submitter) drive(ctx context.Context, signed *SignedTransaction, refresh func(context.Context) (*SignedTransaction, error)) (*Outcome, error) {
	out := newOutcome(signed)

	if _, ok := ctx.Deadline(); !ok && s.policy.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.ConfirmTimeout)
		defer cancel()
	}

	for {
		res, err := s.submit(ctx, out, signed)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				s.transition(out, StateTimedOut)
				return out, nil
			case errors.Is(err, ledger.ErrNetwork):
				out.Cause = err
				s.transition(out, StateNetworkError)
				return out, nil
			default:
				return out, err
			}
		}

		out.ResultCode = res.EngineResult
		out.ResultMessage = res.EngineResultMessage
		s.transition(out, StateSubmitted)

		switch classify(res.EngineResult) {
		case verdictPending, verdictPastBound:
			s.transition(out, StatePending)
			s.await(ctx, out)
			return out, nil

		case verdictBadSequence:
			if out.SequenceCorrected || refresh == nil {
				s.transition(out, StateRejected)
				return out, nil
			}
			out.SequenceCorrected = true
			s.log.Warn().
				Str("result", res.EngineResult).
				Str("account", out.Account).
				Uint32("sequence", out.Sequence).
				Msg("sequence mismatch, refreshing account sequence")

			next, err := refresh(ctx)
			if err != nil {
				if ctx.Err() != nil {
					s.transition(out, StateTimedOut)
					return out, nil
				}
				return out, errors.Wrap(err, "rebuild after sequence mismatch")
			}
			signed = next
			out.bind(signed)
			out.ResultCode, out.ResultMessage = "", ""
			s.transition(out, StateBuilt)

		default:
			s.transition(out, StateRejected)
			return out, nil
		}
	}
}

// submit sends the blob, retrying transport failures with exponential
// backoff up to MaxSubmitAttempts. Resending the same blob is safe: a
// duplicate comes back as tefALREADY.
func (s *Submitter) submit(ctx context.Context, out *Outcome, signed *SignedTransaction) (*ledger.SubmitResult, error) {
	delay := s.policy.BackoffInitial

	for attempt := 1; ; attempt++ {
		out.Attempts++
		res, err := s.ledger.Submit(ctx, signed.Blob())
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || !errors.Is(err, ledger.ErrNetwork) {
			return nil, err
		}
		if attempt >= s.policy.MaxSubmitAttempts {
			return nil, errors.Wrapf(err, "gave up after %d attempts", attempt)
		}

		s.log.Warn().Err(err).
			Str("hash", out.Hash).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("submit failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
		if delay > s.policy.BackoffMax {
			delay = s.policy.BackoffMax
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
