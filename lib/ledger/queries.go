package ledger

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

func (c *Client) raw(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	res, err := c.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res.Raw), nil
}

// ledgerIndexParam accepts a ledger sequence or one of the shortcuts
// validated, closed and current.
func ledgerIndexParam(index string) interface{} {
	if index == "" {
		return "validated"
	}
	if n, err := strconv.ParseUint(index, 10, 32); err == nil {
		return n
	}
	return strings.ToLower(index)
}

func (c *Client) ServerInfo(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "server_info", nil)
}

// ServerState returns the node state with fee and reserve figures in drops
func (c *Client) ServerState(ctx context.Context) (*ServerState, error) {
	const method = "server_state"
	res, err := c.Call(ctx, method, nil)
	if err != nil {
		return nil, err
	}

	seq, err := lookup(method, res, "state.validated_ledger.seq")
	if err != nil {
		return nil, err
	}
	reserveBase, err := lookup(method, res, "state.validated_ledger.reserve_base")
	if err != nil {
		return nil, err
	}
	reserveInc, err := lookup(method, res, "state.validated_ledger.reserve_inc")
	if err != nil {
		return nil, err
	}

	return &ServerState{
		State:              res.Get("state.server_state").String(),
		BuildVersion:       res.Get("state.build_version").String(),
		ValidatedLedgerSeq: uint32(seq.Uint()),
		BaseFee:            res.Get("state.validated_ledger.base_fee").Uint(),
		ReserveBase:        reserveBase.Uint(),
		ReserveInc:         reserveInc.Uint(),
		LoadFactor:         res.Get("state.load_factor").Float(),
		Raw:                json.RawMessage(res.Raw),
	}, nil
}

// Ledger returns a ledger header and optionally its transactions
func (c *Client) Ledger(ctx context.Context, index string, transactions, expand bool) (json.RawMessage, error) {
	return c.raw(ctx, "ledger", map[string]interface{}{
		"ledger_index": ledgerIndexParam(index),
		"transactions": transactions,
		"expand":       expand,
	})
}

func (c *Client) LedgerClosed(ctx context.Context) (*LedgerRef, error) {
	const method = "ledger_closed"
	res, err := c.Call(ctx, method, nil)
	if err != nil {
		return nil, err
	}
	idx, err := lookup(method, res, "ledger_index")
	if err != nil {
		return nil, err
	}
	hash, err := lookup(method, res, "ledger_hash")
	if err != nil {
		return nil, err
	}
	return &LedgerRef{Index: uint32(idx.Uint()), Hash: hash.String()}, nil
}

// LedgerCurrent returns the index of the open ledger
func (c *Client) LedgerCurrent(ctx context.Context) (uint32, error) {
	const method = "ledger_current"
	res, err := c.Call(ctx, method, nil)
	if err != nil {
		return 0, err
	}
	idx, err := lookup(method, res, "ledger_current_index")
	if err != nil {
		return 0, err
	}
	return uint32(idx.Uint()), nil
}

// ValidatedLedgerIndex returns the index of the latest validated ledger
func (c *Client) ValidatedLedgerIndex(ctx context.Context) (uint32, error) {
	const method = "ledger"
	res, err := c.Call(ctx, method, map[string]interface{}{"ledger_index": "validated"})
	if err != nil {
		return 0, err
	}
	idx, err := lookup(method, res, "ledger_index")
	if err != nil {
		return 0, err
	}
	return uint32(idx.Uint()), nil
}

// AccountInfo reads the account root from the current ledger. An unfunded
// account fails with ErrNotFound.
func (c *Client) AccountInfo(ctx context.Context, account string) (*AccountState, error) {
	const method = "account_info"
	res, err := c.Call(ctx, method, map[string]interface{}{
		"account":      account,
		"ledger_index": "current",
	})
	if err != nil {
		return nil, err
	}

	seq, err := lookup(method, res, "account_data.Sequence")
	if err != nil {
		return nil, err
	}
	balance, err := lookup(method, res, "account_data.Balance")
	if err != nil {
		return nil, err
	}
	drops, err := strconv.ParseUint(balance.String(), 10, 64)
	if err != nil {
		return nil, &RPCError{Method: method, Code: CodeMalformedResponse, Message: "account_data.Balance is not an integer"}
	}

	ledgerIndex := res.Get("ledger_current_index")
	if !ledgerIndex.Exists() {
		ledgerIndex = res.Get("ledger_index")
	}

	return &AccountState{
		Account:     res.Get("account_data.Account").String(),
		Sequence:    uint32(seq.Uint()),
		Balance:     drops,
		OwnerCount:  uint32(res.Get("account_data.OwnerCount").Uint()),
		Flags:       uint32(res.Get("account_data.Flags").Uint()),
		LedgerIndex: uint32(ledgerIndex.Uint()),
		Validated:   res.Get("validated").Bool(),
	}, nil
}

func (c *Client) AccountCurrencies(ctx context.Context, account string) (json.RawMessage, error) {
	return c.raw(ctx, "account_currencies", map[string]interface{}{"account": account})
}

// AccountObjects lists ledger objects owned by account, optionally
// filtered by object type.
func (c *Client) AccountObjects(ctx context.Context, account, objectType string) (json.RawMessage, error) {
	params := map[string]interface{}{"account": account}
	if objectType != "" {
		params["type"] = objectType
	}
	return c.raw(ctx, "account_objects", params)
}

// AccountChannels lists the account's payment channels through
// account_objects with type payment_channel.
// TODO: compare against the account_channels method, which also takes a destination filter.
func (c *Client) AccountChannels(ctx context.Context, account string) (json.RawMessage, error) {
	return c.AccountObjects(ctx, account, "payment_channel")
}

// AccountLines lists trust lines, restricted to one counterparty when peer is set
func (c *Client) AccountLines(ctx context.Context, account, peer string) (json.RawMessage, error) {
	params := map[string]interface{}{"account": account}
	if peer != "" {
		params["peer"] = peer
	}
	return c.raw(ctx, "account_lines", params)
}

func (c *Client) AccountNFTs(ctx context.Context, account string) (json.RawMessage, error) {
	return c.raw(ctx, "account_nfts", map[string]interface{}{"account": account})
}

func (c *Client) AccountOffers(ctx context.Context, account string) (json.RawMessage, error) {
	return c.raw(ctx, "account_offers", map[string]interface{}{"account": account})
}

// PathFind runs a path_find subcommand (create, close or status). Extra
// request fields go in params.
func (c *Client) PathFind(ctx context.Context, subcommand string, params map[string]interface{}) (json.RawMessage, error) {
	req := map[string]interface{}{}
	for k, v := range params {
		req[k] = v
	}
	if subcommand == "" {
		subcommand = "create"
	}
	req["subcommand"] = subcommand
	return c.raw(ctx, "path_find", req)
}

// RipplePathFind looks up payment paths. amount is a drops string or an
// issued amount object.
func (c *Client) RipplePathFind(ctx context.Context, source, destination string, amount interface{}) (json.RawMessage, error) {
	return c.raw(ctx, "ripple_path_find", map[string]interface{}{
		"source_account":      source,
		"destination_account": destination,
		"destination_amount":  amount,
	})
}

func (c *Client) BookOffers(ctx context.Context, takerGets, takerPays Issue, limit int) (json.RawMessage, error) {
	params := map[string]interface{}{
		"taker_gets": takerGets,
		"taker_pays": takerPays,
	}
	if limit > 0 {
		params["limit"] = limit
	}
	return c.raw(ctx, "book_offers", params)
}

func (c *Client) NFTInfo(ctx context.Context, nftID string) (json.RawMessage, error) {
	return c.raw(ctx, "nft_info", map[string]interface{}{"nft_id": nftID})
}

func (c *Client) NFTBuyOffers(ctx context.Context, nftID string) (json.RawMessage, error) {
	return c.raw(ctx, "nft_buy_offers", map[string]interface{}{"nft_id": nftID})
}

func (c *Client) NFTSellOffers(ctx context.Context, nftID string) (json.RawMessage, error) {
	return c.raw(ctx, "nft_sell_offers", map[string]interface{}{"nft_id": nftID})
}

// LedgerData pages through the state of the validated ledger. marker is
// taken from the previous page; nil starts from the beginning.
func (c *Client) LedgerData(ctx context.Context, limit int, marker interface{}) (json.RawMessage, error) {
	params := map[string]interface{}{}
	if limit > 0 {
		params["limit"] = limit
	}
	if marker != nil {
		params["marker"] = marker
	}
	return c.raw(ctx, "ledger_data", params)
}

func (c *Client) Manifest(ctx context.Context, publicKey string) (json.RawMessage, error) {
	return c.raw(ctx, "manifest", map[string]interface{}{"public_key": publicKey})
}

// Fee returns the current transaction cost figures
func (c *Client) Fee(ctx context.Context) (*FeeInfo, error) {
	const method = "fee"
	res, err := c.Call(ctx, method, nil)
	if err != nil {
		return nil, err
	}
	open, err := lookup(method, res, "drops.open_ledger_fee")
	if err != nil {
		return nil, err
	}
	return &FeeInfo{
		BaseFee:            res.Get("drops.base_fee").Uint(),
		MedianFee:          res.Get("drops.median_fee").Uint(),
		MinimumFee:         res.Get("drops.minimum_fee").Uint(),
		OpenLedgerFee:      open.Uint(),
		LedgerCurrentIndex: uint32(res.Get("ledger_current_index").Uint()),
	}, nil
}

// Tx looks a transaction up by hash. Unknown hashes fail with ErrNotFound.
func (c *Client) Tx(ctx context.Context, hash string) (*TxStatus, error) {
	const method = "tx"
	res, err := c.Call(ctx, method, map[string]interface{}{"transaction": hash})
	if err != nil {
		return nil, err
	}

	status := &TxStatus{
		Hash:      res.Get("hash").String(),
		Validated: res.Get("validated").Bool(),
		Raw:       json.RawMessage(res.Raw),
	}
	if status.Hash == "" {
		status.Hash = hash
	}
	if !status.Validated {
		return status, nil
	}

	idx, err := lookup(method, res, "ledger_index")
	if err != nil {
		return nil, err
	}
	code, err := lookup(method, res, "meta.TransactionResult")
	if err != nil {
		return nil, err
	}
	status.LedgerIndex = uint32(idx.Uint())
	status.Result = code.String()
	return status, nil
}

// Submit sends a signed blob and returns the preliminary result
func (c *Client) Submit(ctx context.Context, txBlob string) (*SubmitResult, error) {
	const method = "submit"
	res, err := c.Call(ctx, method, map[string]interface{}{"tx_blob": txBlob})
	if err != nil {
		return nil, err
	}
	engine, err := lookup(method, res, "engine_result")
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		EngineResult:        engine.String(),
		EngineResultCode:    int(res.Get("engine_result_code").Int()),
		EngineResultMessage: res.Get("engine_result_message").String(),
		Hash:                res.Get("tx_json.hash").String(),
		TxJSON:              rawOrNil(res.Get("tx_json")),
	}, nil
}

func rawOrNil(r gjson.Result) json.RawMessage {
	if !r.Exists() {
		return nil
	}
	return json.RawMessage(r.Raw)
}
