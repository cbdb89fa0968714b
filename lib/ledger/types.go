package ledger

import "encoding/json"

// AccountState is the account root as seen by one ledger. It is a snapshot
// and must be re-read before every submission attempt.
type AccountState struct {
	Account     string
	Sequence    uint32
	Balance     uint64 // drops
	OwnerCount  uint32
	Flags       uint32
	LedgerIndex uint32
	Validated   bool
}

// ServerState carries the validated ledger figures the builder and the
// reserve checks need. Raw holds the full result object.
type ServerState struct {
	State              string
	BuildVersion       string
	ValidatedLedgerSeq uint32
	BaseFee            uint64 // drops
	ReserveBase        uint64 // drops
	ReserveInc         uint64 // drops
	LoadFactor         float64
	Raw                json.RawMessage
}

// MinimumBalance returns the reserve an account with ownerCount objects must hold.
func (s *ServerState) MinimumBalance(ownerCount uint32) uint64 {
	return s.ReserveBase + uint64(ownerCount)*s.ReserveInc
}

type LedgerRef struct {
	Index uint32
	Hash  string
}

// FeeInfo is the fee section of the fee method, in drops.
type FeeInfo struct {
	BaseFee            uint64
	MedianFee          uint64
	MinimumFee         uint64
	OpenLedgerFee      uint64
	LedgerCurrentIndex uint32
}

// TxStatus is a transaction lookup result. Result is empty until the
// transaction has metadata.
type TxStatus struct {
	Hash        string
	Validated   bool
	LedgerIndex uint32
	Result      string
	Raw         json.RawMessage
}

// SubmitResult is the preliminary acknowledgement of a submitted blob.
type SubmitResult struct {
	EngineResult        string
	EngineResultCode    int
	EngineResultMessage string
	Hash                string
	TxJSON              json.RawMessage
}

// Issue names a currency in an order book. Issuer is empty for XRP.
type Issue struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}
