package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNetwork wraps transport failures: connection errors, timeouts and
	// non-2xx HTTP responses. These are the only retryable errors.
	ErrNetwork = errors.New("ledger network error")

	// ErrNotFound is matched by RPC errors that report a missing account,
	// transaction, ledger or object.
	ErrNotFound = errors.New("ledger object not found")
)

// CodeMalformedResponse is used when the server answered but an expected
// key was absent.
const CodeMalformedResponse = "malformedResponse"

var notFoundCodes = map[string]bool{
	"actNotFound":    true,
	"txnNotFound":    true,
	"lgrNotFound":    true,
	"entryNotFound":  true,
	"objectNotFound": true,
}

// RPCError is an error reported by the server for a well-formed request.
type RPCError struct {
	Method    string
	Code      string // e.g. actNotFound
	ErrorCode int
	Message   string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rpc error %s", e.Method, e.Code)
	}
	return fmt.Sprintf("%s: rpc error %s: %s", e.Method, e.Code, e.Message)
}

func (e *RPCError) Is(target error) bool {
	return target == ErrNotFound && notFoundCodes[e.Code]
}

func malformed(method, key string) *RPCError {
	return &RPCError{
		Method:  method,
		Code:    CodeMalformedResponse,
		Message: fmt.Sprintf("missing key %q", key),
	}
}
