package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Maphikza/xrpl-wallet-custody/internal/config"
	walletstatedb "github.com/Maphikza/xrpl-wallet-custody/internal/database"
	"github.com/Maphikza/xrpl-wallet-custody/internal/logger"
	"github.com/Maphikza/xrpl-wallet-custody/internal/wallet"
	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
	"github.com/Maphikza/xrpl-wallet-custody/lib/transaction"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readPassphrase returns the configured passphrase, or asks for one when
// stdin is a terminal. An empty answer keeps the store unencrypted.
func readPassphrase() (string, error) {
	if cfg.WalletPassphrase != "" {
		return cfg.WalletPassphrase, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}

	fmt.Fprint(os.Stderr, "Enter wallet passphrase (empty for none): ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("error reading passphrase: %v", err)
	}
	return strings.TrimSpace(string(passwordBytes)), nil
}

func openStore() (*walletstatedb.Store, error) {
	passphrase, err := readPassphrase()
	if err != nil {
		return nil, err
	}

	opts := []walletstatedb.Option{walletstatedb.WithLogger(logger.Component("store"))}
	if passphrase != "" {
		opts = append(opts, walletstatedb.WithPassphrase(passphrase))
	}
	return walletstatedb.Open(cfg.WalletDBPath, opts...)
}

func openService() (*wallet.Service, func(), error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return wallet.NewService(store, logger.Component("wallet")), func() { store.Close() }, nil
}

func newLedgerClient(c *config.Config) *ledger.Client {
	return ledger.NewClient(c.RPCURL,
		ledger.WithTimeout(c.RPCTimeout),
		ledger.WithRateLimit(c.RPCRateLimit),
		ledger.WithLogger(logger.Component("ledger")),
	)
}

func feePolicy(c *config.Config, client *ledger.Client) transaction.FeePolicy {
	if c.Fee.Mode == config.FeeModeFixed {
		return transaction.FixedFee{Drops: c.Fee.FixedDrops}
	}
	return transaction.NetworkFee{
		Source:     client,
		Multiplier: c.Fee.Multiplier,
		Max:        c.Fee.MaxDrops,
	}
}

func newBuilder(c *config.Config, client *ledger.Client) *transaction.Builder {
	return transaction.NewBuilder(client,
		transaction.WithHorizon(c.Build.LedgerHorizon),
		transaction.WithBuilderLogger(logger.Component("builder")),
	)
}

// newSubmitter wires a submitter for already signed blobs; no codec is
// available to the CLI so it carries no signer.
func newSubmitter(c *config.Config, client *ledger.Client) *transaction.Submitter {
	policy := transaction.Policy{
		MaxSubmitAttempts: c.Submit.MaxAttempts,
		BackoffInitial:    c.Submit.BackoffInitial,
		BackoffMax:        c.Submit.BackoffMax,
		PollInterval:      c.Submit.PollInterval,
		ConfirmTimeout:    c.Submit.ConfirmTimeout,
	}
	return transaction.NewSubmitter(client, newBuilder(c, client), nil, feePolicy(c, client),
		transaction.WithPolicy(policy),
		transaction.WithSubmitterLogger(logger.Component("submitter")),
		transaction.WithObserver(func(tr transaction.Transition) {
			fmt.Fprintf(os.Stderr, "%s  %s -> %s %s\n", tr.At.Format(time.TimeOnly), tr.From, tr.To, tr.ResultCode)
		}),
	)
}

type walletView struct {
	ID        uint      `json:"id"`
	Label     string    `json:"label"`
	Address   string    `json:"address"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
	Seed      string    `json:"seed,omitempty"`
}

func viewOf(rec *walletstatedb.WalletRecord) walletView {
	return walletView{
		ID:        rec.ID,
		Label:     rec.Label,
		Address:   rec.Address,
		PublicKey: rec.PublicKey,
		CreatedAt: rec.CreatedAt,
	}
}

type outcomeView struct {
	CorrelationID      string `json:"correlation_id,omitempty"`
	State              string `json:"state"`
	Succeeded          bool   `json:"succeeded"`
	Hash               string `json:"hash"`
	Account            string `json:"account,omitempty"`
	Sequence           uint32 `json:"sequence,omitempty"`
	LastLedgerSequence uint32 `json:"last_ledger_sequence,omitempty"`
	LedgerIndex        uint32 `json:"ledger_index,omitempty"`
	ResultCode         string `json:"result_code,omitempty"`
	ResultMessage      string `json:"result_message,omitempty"`
	Attempts           int    `json:"attempts,omitempty"`
	SequenceCorrected  bool   `json:"sequence_corrected,omitempty"`
	Error              string `json:"error,omitempty"`
}

func outcomeOf(out *transaction.Outcome) outcomeView {
	v := outcomeView{
		CorrelationID:      out.CorrelationID,
		State:              string(out.State),
		Succeeded:          out.Succeeded(),
		Hash:               out.Hash,
		Account:            out.Account,
		Sequence:           out.Sequence,
		LastLedgerSequence: out.LastLedgerSequence,
		LedgerIndex:        out.LedgerIndex,
		ResultCode:         out.ResultCode,
		ResultMessage:      out.ResultMessage,
		Attempts:           out.Attempts,
		SequenceCorrected:  out.SequenceCorrected,
	}
	if err := out.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}
