package transaction

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
)

// jsonCodec stands in for the binary codec: fields are JSON encoded with
// sorted keys, which is deterministic enough for signing in tests.
type jsonCodec struct{}

func (jsonCodec) EncodeForSigning(fields map[string]interface{}) ([]byte, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, txSignPrefix...), b...), nil
}

func (jsonCodec) Encode(fields map[string]interface{}) ([]byte, error) {
	return json.Marshal(fields)
}

// decodeBlob reverses jsonCodec.Encode on a signed blob
func decodeBlob(t *testing.T, blob string) map[string]interface{} {
	t.Helper()
	raw, err := hex.DecodeString(blob)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	return fields
}

type testWallet struct {
	addr, pub, priv string
}

func (w testWallet) AccountAddress() string    { return w.addr }
func (w testWallet) SigningPublicKey() string  { return w.pub }
func (w testWallet) SigningPrivateKey() string { return w.priv }

func edWallet(t *testing.T, fill byte) testWallet {
	t.Helper()
	seed := bytes.Repeat([]byte{fill}, ed25519.SeedSize)
	key := ed25519.NewKeyFromSeed(seed)
	pub := "ED" + upperHex(key.Public().(ed25519.PublicKey))
	addr, err := addresscodec.DeriveAddress(pub)
	require.NoError(t, err)
	return testWallet{addr: addr, pub: pub, priv: "ED" + upperHex(seed)}
}

func k1Wallet(t *testing.T, fill byte) testWallet {
	t.Helper()
	priv, pubKey := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{fill}, 32))
	pub := upperHex(pubKey.SerializeCompressed())
	addr, err := addresscodec.DeriveAddress(pub)
	require.NoError(t, err)
	return testWallet{addr: addr, pub: pub, priv: "00" + upperHex(priv.Serialize())}
}

type submitAnswer struct {
	code string
	err  error
}

type txAnswer struct {
	status *ledger.TxStatus
	err    error
}

// fakeLedger scripts the answers of the ledger facade. For each list the
// last entry repeats once the list is exhausted.
type fakeLedger struct {
	mu sync.Mutex

	current    uint32
	sequences  []uint32
	submits    []submitAnswer
	validated  []uint32
	txs        []txAnswer
	openFee    uint64
	submitHook func()

	accountCalls, currentCalls, feeCalls int
	submitCalls, validatedCalls, txCalls int
	blobs                                []string
	events                               []string
}

func pick[T any](list []T, i int) T {
	var none T
	if len(list) == 0 {
		return none
	}
	if i >= len(list) {
		return list[len(list)-1]
	}
	return list[i]
}

func (f *fakeLedger) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accountCalls + f.currentCalls + f.feeCalls + f.submitCalls + f.validatedCalls + f.txCalls
}

func (f *fakeLedger) LedgerCurrent(context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentCalls++
	return f.current, nil
}

func (f *fakeLedger) Fee(context.Context) (*ledger.FeeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeCalls++
	return &ledger.FeeInfo{BaseFee: 10, OpenLedgerFee: f.openFee, LedgerCurrentIndex: f.current}, nil
}

func (f *fakeLedger) AccountInfo(_ context.Context, account string) (*ledger.AccountState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := pick(f.sequences, f.accountCalls)
	f.accountCalls++
	f.events = append(f.events, "info")
	return &ledger.AccountState{Account: account, Sequence: seq, Balance: 100_000_000}, nil
}

func (f *fakeLedger) Submit(_ context.Context, blob string) (*ledger.SubmitResult, error) {
	if f.submitHook != nil {
		f.submitHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ans := pick(f.submits, f.submitCalls)
	f.submitCalls++
	f.blobs = append(f.blobs, blob)
	f.events = append(f.events, "submit")
	if ans.err != nil {
		return nil, ans.err
	}
	return &ledger.SubmitResult{EngineResult: ans.code}, nil
}

func (f *fakeLedger) ValidatedLedgerIndex(context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := pick(f.validated, f.validatedCalls)
	f.validatedCalls++
	return idx, nil
}

func (f *fakeLedger) Tx(_ context.Context, hash string) (*ledger.TxStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ans := pick(f.txs, f.txCalls)
	f.txCalls++
	f.events = append(f.events, "tx")
	if ans.err != nil {
		return nil, ans.err
	}
	st := *ans.status
	st.Hash = hash
	return &st, nil
}

var (
	errDropped  = errors.Wrap(ledger.ErrNetwork, "connection reset")
	txMissing   = txAnswer{err: &ledger.RPCError{Method: "tx", Code: "txnNotFound"}}
	txPending   = txAnswer{status: &ledger.TxStatus{Validated: false}}
	txValidated = func(idx uint32, code string) txAnswer {
		return txAnswer{status: &ledger.TxStatus{Validated: true, LedgerIndex: idx, Result: code}}
	}
)
