package transaction

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
)

// FeePolicy decides the fee, in drops, for the next transaction.
type FeePolicy interface {
	Fee(ctx context.Context) (uint64, error)
}

// FeeSource is the part of the ledger facade NetworkFee reads.
type FeeSource interface {
	Fee(ctx context.Context) (*ledger.FeeInfo, error)
}

// FixedFee always pays Drops.
type FixedFee struct {
	Drops uint64
}

func (f FixedFee) Fee(context.Context) (uint64, error) {
	if f.Drops == 0 {
		return 0, errors.New("fixed fee must be positive")
	}
	return f.Drops, nil
}

// NetworkFee pays the open ledger fee times Multiplier, never less than the
// base fee and never more than Max (when Max is set).
type NetworkFee struct {
	Source     FeeSource
	Multiplier float64
	Max        uint64
}

func (n NetworkFee) Fee(ctx context.Context) (uint64, error) {
	info, err := n.Source.Fee(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "query network fee")
	}

	mult := n.Multiplier
	if mult <= 0 {
		mult = 1
	}
	fee := uint64(math.Ceil(float64(info.OpenLedgerFee) * mult))
	if fee < info.BaseFee {
		fee = info.BaseFee
	}
	if n.Max > 0 && fee > n.Max {
		fee = n.Max
	}
	if fee == 0 {
		return 0, errors.New("network reported a zero fee")
	}
	return fee, nil
}
