// Package ledger is a read-only facade over a ledger node's JSON-RPC
// interface, plus the submit call.
package ledger

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const defaultTimeout = 20 * time.Second

// Client talks to one JSON-RPC endpoint. It is safe for concurrent use.
type Client struct {
	url     string
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the node at url
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url: url,
		http: resty.New().
			SetBaseURL(url).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string {
	return c.url
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// Call sends one JSON-RPC request and returns its result object. Server
// reported errors come back as *RPCError, transport failures wrap
// ErrNetwork.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (gjson.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, errors.Wrapf(err, "%s: rate limit wait", method)
		}
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{Method: method, Params: []interface{}{params}}).
		Post("/")
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Msg("rpc transport failure")
		return gjson.Result{}, errors.Wrapf(ErrNetwork, "%s: %v", method, err)
	}
	c.log.Debug().
		Str("method", method).
		Int("status", resp.StatusCode()).
		Dur("took", time.Since(start)).
		Msg("rpc call")

	if resp.IsError() {
		return gjson.Result{}, errors.Wrapf(ErrNetwork, "%s: http status %d", method, resp.StatusCode())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &RPCError{Method: method, Code: CodeMalformedResponse, Message: "response is not json"}
	}
	result := gjson.GetBytes(body, "result")
	if !result.IsObject() {
		return gjson.Result{}, malformed(method, "result")
	}

	if result.Get("status").String() == "error" || result.Get("error").Exists() {
		return gjson.Result{}, &RPCError{
			Method:    method,
			Code:      result.Get("error").String(),
			ErrorCode: int(result.Get("error_code").Int()),
			Message:   result.Get("error_message").String(),
		}
	}
	return result, nil
}

// lookup returns the value at path or a malformedResponse error
func lookup(method string, res gjson.Result, path string) (gjson.Result, error) {
	v := res.Get(path)
	if !v.Exists() {
		return v, malformed(method, path)
	}
	return v, nil
}
