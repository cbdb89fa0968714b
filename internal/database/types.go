package walletstatedb

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// WalletRecord is the stored credential set for one account. Seed and
// PrivateKey are secret; String, JSON and log output leave them out.
type WalletRecord struct {
	ID         uint      `json:"id"`
	Label      string    `json:"label"`
	Address    string    `json:"address"`
	Seed       string    `json:"-"`
	PrivateKey string    `json:"-"`
	PublicKey  string    `json:"public_key"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r WalletRecord) String() string {
	return fmt.Sprintf("WalletRecord{ID: %d, Label: %q, Address: %s, PublicKey: %s}", r.ID, r.Label, r.Address, r.PublicKey)
}

func (r WalletRecord) GoString() string {
	return r.String()
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (r WalletRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Uint("id", r.ID).
		Str("label", r.Label).
		Str("address", r.Address).
		Str("public_key", r.PublicKey)
}

// AccountAddress, SigningPublicKey and SigningPrivateKey let a record be
// handed straight to the signer.
func (r WalletRecord) AccountAddress() string    { return r.Address }
func (r WalletRecord) SigningPublicKey() string  { return r.PublicKey }
func (r WalletRecord) SigningPrivateKey() string { return r.PrivateKey }

func (r WalletRecord) complete() bool {
	return r.Address != "" && r.Seed != "" && r.PrivateKey != "" && r.PublicKey != ""
}
