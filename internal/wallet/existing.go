package wallet

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// FromSeed derives the keys of a family seed (s... or sEd...).
func FromSeed(seed string) (*Keys, error) {
	seed = strings.TrimSpace(seed)
	entropy, keyType, err := addresscodec.DecodeSeed(seed)
	if err != nil {
		return nil, err
	}
	defer wipe(entropy)

	keys := &Keys{KeyType: keyType, Seed: seed}
	switch keyType {
	case addresscodec.KeyTypeEd25519:
		keys.PrivateKey, keys.PublicKey = ed25519FromEntropy(entropy)
	default:
		keys.PrivateKey, keys.PublicKey, err = secp256k1FromEntropy(entropy)
		if err != nil {
			return nil, err
		}
	}

	keys.Address, err = addresscodec.DeriveAddress(keys.PublicKey)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// FromMnemonic derives a secp256k1 key at DefaultDerivationPath from a
// BIP-39 mnemonic with an empty passphrase.
func FromMnemonic(mnemonic string) (*Keys, error) {
	return FromMnemonicPath(mnemonic, DefaultDerivationPath)
}

func FromMnemonicPath(mnemonic, path string) (*Keys, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	defer wipe(seed)

	// The network params only select extended key version bytes, which
	// never leave this function.
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "error creating master key")
	}
	defer master.Zero()

	child, err := deriveKeyFromPath(master, path)
	if err != nil {
		return nil, err
	}
	defer child.Zero()

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "error reading derived private key")
	}
	defer priv.Zero()

	keys := &Keys{
		KeyType:    addresscodec.KeyTypeSecp256k1,
		Seed:       mnemonic,
		PrivateKey: "00" + upperHex(priv.Serialize()),
		PublicKey:  upperHex(priv.PubKey().SerializeCompressed()),
	}
	keys.Address, err = addresscodec.DeriveAddress(keys.PublicKey)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// FromKeys checks an externally supplied credential set: the private key
// must produce the public key and the public key must derive the address.
// A family seed, when given, must derive the same keys.
func FromKeys(address, seed, privateKey, publicKey string) (*Keys, error) {
	keyType, err := addresscodec.PublicKeyType(publicKey)
	if err != nil {
		return nil, err
	}

	derivedAddr, err := addresscodec.DeriveAddress(publicKey)
	if err != nil {
		return nil, err
	}
	if derivedAddr != address {
		return nil, errors.Wrapf(ErrKeyMismatch, "public key derives %s, not %s", derivedAddr, address)
	}

	pub, err := publicFromPrivate(privateKey, keyType)
	if err != nil {
		return nil, err
	}
	if !sameHex(pub, publicKey) {
		return nil, errors.Wrap(ErrKeyMismatch, "private key does not produce the public key")
	}

	if _, _, err := addresscodec.DecodeSeed(seed); err == nil {
		fromSeed, err := FromSeed(seed)
		if err != nil {
			return nil, err
		}
		if fromSeed.Address != address {
			return nil, errors.Wrap(ErrKeyMismatch, "seed derives a different account")
		}
	}

	return &Keys{
		KeyType:    keyType,
		Seed:       seed,
		PrivateKey: strings.ToUpper(privateKey),
		PublicKey:  strings.ToUpper(publicKey),
		Address:    address,
	}, nil
}
