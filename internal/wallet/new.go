package wallet

import (
	"crypto/rand"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// Generate creates a fresh family seed of the given key type and derives
// its keys.
func Generate(keyType addresscodec.KeyType) (*Keys, error) {
	entropy := make([]byte, addresscodec.SeedLength)
	if _, err := rand.Read(entropy); err != nil {
		return nil, errors.Wrap(err, "error generating entropy")
	}
	defer wipe(entropy)

	seed, err := addresscodec.EncodeSeed(entropy, keyType)
	if err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// NewMnemonic returns a fresh 24 word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.Wrap(err, "error generating entropy")
	}
	defer wipe(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "error generating mnemonic")
	}
	return mnemonic, nil
}
