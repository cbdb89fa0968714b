package wallet

import (
	"fmt"

	"github.com/pkg/errors"

	walletstatedb "github.com/Maphikza/xrpl-wallet-custody/internal/database"
	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// DefaultDerivationPath is the BIP-44 path used for mnemonic wallets
// (coin type 144).
const DefaultDerivationPath = "m/44'/144'/0'/0/0"

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrKeyMismatch     = errors.New("keys do not belong together")
)

// Keys is a derived credential set. Seed holds the family seed, or the
// mnemonic for wallets derived from one.
type Keys struct {
	KeyType    addresscodec.KeyType
	Seed       string
	PrivateKey string
	PublicKey  string
	Address    string
}

func (k Keys) String() string {
	return fmt.Sprintf("Keys{KeyType: %s, Address: %s, PublicKey: %s}", k.KeyType, k.Address, k.PublicKey)
}

func (k Keys) GoString() string {
	return k.String()
}

// Record turns the keys into a store record under label.
func (k Keys) Record(label string) walletstatedb.WalletRecord {
	return walletstatedb.WalletRecord{
		Label:      label,
		Address:    k.Address,
		Seed:       k.Seed,
		PrivateKey: k.PrivateKey,
		PublicKey:  k.PublicKey,
	}
}
