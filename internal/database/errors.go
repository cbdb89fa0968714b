package walletstatedb

import "github.com/pkg/errors"

var (
	ErrNotFound         = errors.New("wallet not found")
	ErrDuplicateAddress = errors.New("wallet address already stored")
	ErrIncompleteRecord = errors.New("wallet record is missing key material")
	ErrDecrypt          = errors.New("unable to decrypt wallet secrets")
)
