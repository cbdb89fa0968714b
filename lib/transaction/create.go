package transaction

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// DefaultLedgerHorizon is how many ledgers past the current one a
// transaction stays valid.
const DefaultLedgerHorizon = 20

// CurrentLedger is the part of the ledger facade the builder reads.
type CurrentLedger interface {
	LedgerCurrent(ctx context.Context) (uint32, error)
}

// Builder turns intents into unsigned transactions.
type Builder struct {
	ledger  CurrentLedger
	horizon uint32
	log     zerolog.Logger
}

type BuilderOption func(*Builder)

func WithHorizon(ledgers uint32) BuilderOption {
	return func(b *Builder) {
		if ledgers > 0 {
			b.horizon = ledgers
		}
	}
}

func WithBuilderLogger(l zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.log = l }
}

func NewBuilder(l CurrentLedger, opts ...BuilderOption) *Builder {
	b := &Builder{ledger: l, horizon: DefaultLedgerHorizon, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates intent and binds it to account at sequence. The intent
// is checked before anything is read from the network.
func (b *Builder) Build(ctx context.Context, intent Intent, account string, sequence uint32, fees FeePolicy) (*UnsignedTransaction, error) {
	if intent == nil {
		return nil, invalidf("no intent given")
	}
	if !addresscodec.IsValidClassicAddress(account) {
		return nil, invalidf("source %q is not a valid address", account)
	}
	if sequence == 0 {
		return nil, invalidf("sequence must be positive")
	}
	if err := intent.validate(account); err != nil {
		return nil, err
	}
	if fees == nil {
		return nil, errors.New("no fee policy configured")
	}

	fee, err := fees.Fee(ctx)
	if err != nil {
		return nil, err
	}
	current, err := b.ledger.LedgerCurrent(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read current ledger index")
	}

	tx := &UnsignedTransaction{
		Intent:             intent,
		Account:            account,
		Sequence:           sequence,
		Fee:                fee,
		LastLedgerSequence: current + b.horizon,
	}

	b.log.Debug().
		Str("type", string(intent.Type())).
		Str("account", account).
		Uint32("sequence", sequence).
		Uint64("fee", fee).
		Uint32("last_ledger_sequence", tx.LastLedgerSequence).
		Msg("transaction built")
	return tx, nil
}
