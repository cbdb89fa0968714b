package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
)

// Ledger is the part of the ledger facade the submitter uses.
type Ledger interface {
	CurrentLedger
	AccountInfo(ctx context.Context, account string) (*ledger.AccountState, error)
	ValidatedLedgerIndex(ctx context.Context) (uint32, error)
	Tx(ctx context.Context, hash string) (*ledger.TxStatus, error)
	Submit(ctx context.Context, txBlob string) (*ledger.SubmitResult, error)
}

// Policy holds the retry and polling knobs of the submitter.
// ConfirmTimeout bounds a submission whose context carries no deadline;
// a negative value leaves such a wait unbounded.
type Policy struct {
	MaxSubmitAttempts int
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	PollInterval      time.Duration
	ConfirmTimeout    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxSubmitAttempts: 5,
		BackoffInitial:    500 * time.Millisecond,
		BackoffMax:        8 * time.Second,
		PollInterval:      4 * time.Second,
		ConfirmTimeout:    2 * time.Minute,
	}
}

// Submitter drives signed transactions to a terminal outcome. At most one
// submission per account is in flight at a time.
type Submitter struct {
	ledger   Ledger
	builder  *Builder
	signer   *Signer
	fees     FeePolicy
	policy   Policy
	observer Observer
	locks    *xsync.MapOf[string, chan struct{}]
	log      zerolog.Logger
}

type SubmitterOption func(*Submitter)

func WithPolicy(p Policy) SubmitterOption {
	return func(s *Submitter) {
		d := DefaultPolicy()
		if p.MaxSubmitAttempts < 1 {
			p.MaxSubmitAttempts = d.MaxSubmitAttempts
		}
		if p.BackoffInitial <= 0 {
			p.BackoffInitial = d.BackoffInitial
		}
		if p.BackoffMax < p.BackoffInitial {
			p.BackoffMax = p.BackoffInitial
		}
		if p.PollInterval <= 0 {
			p.PollInterval = d.PollInterval
		}
		if p.ConfirmTimeout == 0 {
			p.ConfirmTimeout = d.ConfirmTimeout
		}
		s.policy = p
	}
}

func WithObserver(o Observer) SubmitterOption {
	return func(s *Submitter) { s.observer = o }
}

func WithSubmitterLogger(l zerolog.Logger) SubmitterOption {
	return func(s *Submitter) { s.log = l }
}

func NewSubmitter(l Ledger, builder *Builder, signer *Signer, fees FeePolicy, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		ledger:  l,
		builder: builder,
		signer:  signer,
		fees:    fees,
		policy:  DefaultPolicy(),
		locks:   xsync.NewMapOf[string, chan struct{}](),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send builds, signs and submits intent from the wallet's account and
// waits for a terminal outcome. Errors before the first submission
// (invalid intent, key mismatch, unreadable account) are returned as
// errors; everything after is reported through the Outcome. Without a
// ctx deadline the wait ends after Policy.ConfirmTimeout as TimedOut.
func (s *Submitter) Send(ctx context.Context, intent Intent, wallet Credentials) (*Outcome, error) {
	account := wallet.AccountAddress()

	unlock, err := s.lock(ctx, account)
	if err != nil {
		return nil, errors.Wrapf(ErrTimedOut, "waiting for the %s submission lock", account)
	}
	defer unlock()

	signed, err := s.prepare(ctx, intent, wallet)
	if err != nil {
		return nil, err
	}

	refresh := func(ctx context.Context) (*SignedTransaction, error) {
		return s.prepare(ctx, intent, wallet)
	}
	return s.drive(ctx, signed, refresh)
}

// SubmitSigned drives a transaction that is already signed. Sequence
// mismatches are rejected since the transaction cannot be re-signed here.
// A blob without LastLedgerSequence can only end Validated or TimedOut, so
// the wait is bounded by ctx or Policy.ConfirmTimeout.
func (s *Submitter) SubmitSigned(ctx context.Context, signed *SignedTransaction) (*Outcome, error) {
	if signed == nil {
		return nil, errors.New("no signed transaction given")
	}

	unlock, err := s.lock(ctx, signed.Account())
	if err != nil {
		return nil, errors.Wrapf(ErrTimedOut, "waiting for the %s submission lock", signed.Account())
	}
	defer unlock()

	return s.drive(ctx, signed, nil)
}

// prepare reads the account sequence fresh, then builds and signs
func (s *Submitter) prepare(ctx context.Context, intent Intent, wallet Credentials) (*SignedTransaction, error) {
	account := wallet.AccountAddress()
	if intent == nil {
		return nil, invalidf("no intent given")
	}
	if s.builder == nil || s.signer == nil {
		return nil, errors.New("submitter has no builder or signer configured")
	}

	// Validate before the first network call.
	if err := intent.validate(account); err != nil {
		return nil, err
	}

	state, err := s.ledger.AccountInfo(ctx, account)
	if err != nil {
		return nil, errors.Wrapf(err, "read account %s", account)
	}

	unsigned, err := s.builder.Build(ctx, intent, account, state.Sequence, s.fees)
	if err != nil {
		return nil, err
	}
	return s.signer.Sign(unsigned, wallet)
}

// lock takes the per-account submission slot, honouring ctx
func (s *Submitter) lock(ctx context.Context, account string) (func(), error) {
	slot, _ := s.locks.LoadOrCompute(account, func() chan struct{} {
		return make(chan struct{}, 1)
	})

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newOutcome(signed *SignedTransaction) *Outcome {
	out := &Outcome{
		CorrelationID: uuid.NewString(),
		State:         StateBuilt,
	}
	out.bind(signed)
	return out
}

func (o *Outcome) bind(signed *SignedTransaction) {
	o.Hash = signed.Hash()
	o.Account = signed.Account()
	o.Sequence = signed.Sequence()
	o.LastLedgerSequence = signed.LastLedgerSequence()
}

// transition moves out to state and notifies the observer
func (s *Submitter) transition(out *Outcome, to State) {
	from := out.State
	out.State = to

	ev := s.log.Debug()
	if to.Terminal() {
		ev = s.log.Info()
	}
	ev.Str("from", string(from)).EmbedObject(out).Msg("submission state changed")

	if s.observer != nil {
		s.observer(Transition{
			CorrelationID: out.CorrelationID,
			Hash:          out.Hash,
			From:          from,
			To:            to,
			ResultCode:    out.ResultCode,
			At:            time.Now(),
		})
	}
}
