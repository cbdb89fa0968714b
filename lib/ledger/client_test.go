package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// rpcServer answers each JSON-RPC method with a canned result body and
// records the params it received.
type rpcServer struct {
	t         *testing.T
	responses map[string]string
	params    map[string]gjson.Result
	calls     int32
}

func newRPCServer(t *testing.T, responses map[string]string) (*rpcServer, *Client) {
	rs := &rpcServer{t: t, responses: responses, params: map[string]gjson.Result{}}
	srv := httptest.NewServer(http.HandlerFunc(rs.handle))
	t.Cleanup(srv.Close)
	return rs, NewClient(srv.URL, WithTimeout(2*time.Second))
}

func (rs *rpcServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&rs.calls, 1)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	method := gjson.GetBytes(body, "method").String()
	rs.params[method] = gjson.GetBytes(body, "params.0")

	resp, ok := rs.responses[method]
	if !ok {
		http.Error(w, "unexpected method "+method, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, resp)
}

func TestAccountInfo(t *testing.T) {
	rs, c := newRPCServer(t, map[string]string{
		"account_info": `{"result":{"account_data":{"Account":"rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh","Balance":"99999999960","Flags":0,"OwnerCount":2,"Sequence":10},"ledger_current_index":1040,"status":"success","validated":false}}`,
	})

	st, err := c.AccountInfo(context.Background(), "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.NoError(t, err)
	assert.Equal(t, uint32(10), st.Sequence)
	assert.Equal(t, uint64(99999999960), st.Balance)
	assert.Equal(t, uint32(2), st.OwnerCount)
	assert.Equal(t, uint32(1040), st.LedgerIndex)
	assert.Equal(t, "current", rs.params["account_info"].Get("ledger_index").String())
}

func TestAccountInfoNotFound(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"account_info": `{"result":{"error":"actNotFound","error_code":19,"error_message":"Account not found.","status":"error"}}`,
	})

	_, err := c.AccountInfo(context.Background(), "rNotFunded")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "actNotFound", rpcErr.Code)
	assert.Equal(t, 19, rpcErr.ErrorCode)
}

func TestRPCErrorNotNotFound(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"account_info": `{"result":{"error":"actMalformed","error_message":"Account malformed.","status":"error"}}`,
	})

	_, err := c.AccountInfo(context.Background(), "bogus")
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "actMalformed", rpcErr.Code)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestMissingKeyIsMalformedResponse(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"account_info":   `{"result":{"account_data":{"Balance":"1"},"status":"success"}}`,
		"ledger_current": `{"result":{"status":"success"}}`,
		"submit":         `{"result":{"status":"success","tx_json":{}}}`,
	})
	ctx := context.Background()

	_, err := c.AccountInfo(ctx, "rAny")
	assertMalformed(t, err)

	_, err = c.LedgerCurrent(ctx)
	assertMalformed(t, err)

	_, err = c.Submit(ctx, "DEADBEEF")
	assertMalformed(t, err)
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr), "got %v", err)
	assert.Equal(t, CodeMalformedResponse, rpcErr.Code)
}

func TestHTTPFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).LedgerCurrent(context.Background())
	assert.True(t, errors.Is(err, ErrNetwork))

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	_, err = NewClient(url, WithTimeout(time.Second)).LedgerCurrent(context.Background())
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestLedgerIndexes(t *testing.T) {
	rs, c := newRPCServer(t, map[string]string{
		"ledger_current": `{"result":{"ledger_current_index":1041,"status":"success"}}`,
		"ledger_closed":  `{"result":{"ledger_hash":"17ACB57A0F73B5160713E81FE72B2AC9F6064541004E272BD09F257D57C30C02","ledger_index":1040,"status":"success"}}`,
		"ledger":         `{"result":{"ledger":{"ledger_index":"1039"},"ledger_hash":"AB","ledger_index":1039,"status":"success","validated":true}}`,
	})
	ctx := context.Background()

	cur, err := c.LedgerCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1041), cur)

	closed, err := c.LedgerClosed(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1040), closed.Index)

	validated, err := c.ValidatedLedgerIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1039), validated)
	assert.Equal(t, "validated", rs.params["ledger"].Get("ledger_index").String())

	_, err = c.Ledger(ctx, "1039", true, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1039), rs.params["ledger"].Get("ledger_index").Int())
	assert.True(t, rs.params["ledger"].Get("expand").Bool())
}

func TestServerState(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"server_state": `{"result":{"state":{"build_version":"2.2.0","server_state":"full","load_factor":256,"validated_ledger":{"base_fee":10,"reserve_base":10000000,"reserve_inc":2000000,"seq":1039}},"status":"success"}}`,
	})

	st, err := c.ServerState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "full", st.State)
	assert.Equal(t, uint32(1039), st.ValidatedLedgerSeq)
	assert.Equal(t, uint64(10000000), st.ReserveBase)
	assert.Equal(t, uint64(14000000), st.MinimumBalance(2))
}

func TestFee(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"fee": `{"result":{"current_ledger_size":"14","drops":{"base_fee":"10","median_fee":"11000","minimum_fee":"10","open_ledger_fee":"12"},"ledger_current_index":1041,"status":"success"}}`,
	})

	fee, err := c.Fee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), fee.OpenLedgerFee)
	assert.Equal(t, uint64(10), fee.BaseFee)
	assert.Equal(t, uint32(1041), fee.LedgerCurrentIndex)
}

func TestTx(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"tx": `{"result":{"hash":"C53ECF838647FA5A4C780377025FEC7999AB4182590510CA461444B207AB74A9","ledger_index":1042,"meta":{"TransactionResult":"tesSUCCESS"},"status":"success","validated":true}}`,
	})

	st, err := c.Tx(context.Background(), "C53ECF838647FA5A4C780377025FEC7999AB4182590510CA461444B207AB74A9")
	require.NoError(t, err)
	assert.True(t, st.Validated)
	assert.Equal(t, uint32(1042), st.LedgerIndex)
	assert.Equal(t, "tesSUCCESS", st.Result)
}

func TestTxNotFound(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"tx": `{"result":{"error":"txnNotFound","error_code":29,"error_message":"Transaction not found.","status":"error"}}`,
	})

	_, err := c.Tx(context.Background(), "00")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSubmit(t *testing.T) {
	rs, c := newRPCServer(t, map[string]string{
		"submit": `{"result":{"engine_result":"tesSUCCESS","engine_result_code":0,"engine_result_message":"The transaction was applied.","status":"success","tx_blob":"1200","tx_json":{"Account":"rA","hash":"ABCD"}}}`,
	})

	res, err := c.Submit(context.Background(), "1200")
	require.NoError(t, err)
	assert.Equal(t, "tesSUCCESS", res.EngineResult)
	assert.Equal(t, "ABCD", res.Hash)
	assert.Equal(t, "1200", rs.params["submit"].Get("tx_blob").String())
}

func TestPassThroughQueries(t *testing.T) {
	ok := `{"result":{"status":"success","marker":"x"}}`
	rs, c := newRPCServer(t, map[string]string{
		"server_info":        ok,
		"account_currencies": ok,
		"account_objects":    ok,
		"account_lines":      ok,
		"account_nfts":       ok,
		"account_offers":     ok,
		"path_find":          ok,
		"ripple_path_find":   ok,
		"book_offers":        ok,
		"nft_info":           ok,
		"nft_buy_offers":     ok,
		"nft_sell_offers":    ok,
		"ledger_data":        ok,
		"manifest":           ok,
	})
	ctx := context.Background()
	acct := "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

	calls := []func() (json.RawMessage, error){
		func() (json.RawMessage, error) { return c.ServerInfo(ctx) },
		func() (json.RawMessage, error) { return c.AccountCurrencies(ctx, acct) },
		func() (json.RawMessage, error) { return c.AccountLines(ctx, acct, "rPeer") },
		func() (json.RawMessage, error) { return c.AccountNFTs(ctx, acct) },
		func() (json.RawMessage, error) { return c.AccountOffers(ctx, acct) },
		func() (json.RawMessage, error) { return c.PathFind(ctx, "", map[string]interface{}{"source_account": acct}) },
		func() (json.RawMessage, error) { return c.RipplePathFind(ctx, acct, "rDest", "1000000") },
		func() (json.RawMessage, error) {
			return c.BookOffers(ctx, Issue{Currency: "XRP"}, Issue{Currency: "USD", Issuer: acct}, 10)
		},
		func() (json.RawMessage, error) { return c.NFTInfo(ctx, "0008") },
		func() (json.RawMessage, error) { return c.NFTBuyOffers(ctx, "0008") },
		func() (json.RawMessage, error) { return c.NFTSellOffers(ctx, "0008") },
		func() (json.RawMessage, error) { return c.LedgerData(ctx, 5, nil) },
		func() (json.RawMessage, error) { return c.Manifest(ctx, "nHB") },
		func() (json.RawMessage, error) { return c.AccountChannels(ctx, acct) },
	}
	for _, call := range calls {
		raw, err := call()
		require.NoError(t, err)
		assert.Equal(t, "x", gjson.GetBytes(raw, "marker").String())
	}

	assert.Equal(t, "payment_channel", rs.params["account_objects"].Get("type").String())
	assert.Equal(t, "create", rs.params["path_find"].Get("subcommand").String())
	assert.Equal(t, "rPeer", rs.params["account_lines"].Get("peer").String())
	assert.False(t, rs.params["book_offers"].Get("taker_gets.issuer").Exists())
	assert.EqualValues(t, len(calls), atomic.LoadInt32(&rs.calls))
}

func TestRateLimitHonoursContext(t *testing.T) {
	_, c := newRPCServer(t, map[string]string{
		"ledger_current": `{"result":{"ledger_current_index":1,"status":"success"}}`,
	})
	WithRateLimit(1)(c)

	_, err := c.LedgerCurrent(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.LedgerCurrent(ctx)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNetwork))
}
