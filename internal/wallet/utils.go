package wallet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/pkg/errors"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// deriveKeyFromPath walks a BIP-32 path such as m/44'/144'/0'/0/0
func deriveKeyFromPath(rootKey *hdkeychain.ExtendedKey, path string) (*hdkeychain.ExtendedKey, error) {
	path = strings.TrimPrefix(strings.TrimPrefix(path, "m"), "/")
	if path == "" {
		return rootKey, nil
	}

	key := rootKey
	for _, part := range strings.Split(path, "/") {
		var index uint32
		if strings.HasSuffix(part, "'") {
			index64, err := strconv.ParseUint(part[:len(part)-1], 10, 31)
			if err != nil {
				return nil, fmt.Errorf("invalid path component %s: %v", part, err)
			}
			index = hdkeychain.HardenedKeyStart + uint32(index64)
		} else {
			index64, err := strconv.ParseUint(part, 10, 31)
			if err != nil {
				return nil, fmt.Errorf("invalid path component %s: %v", part, err)
			}
			index = uint32(index64)
		}

		var err error
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive key: %v", err)
		}
	}
	return key, nil
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

func sha512Half(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:32]
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ed25519FromEntropy derives the ledger's ed25519 key pair from seed entropy
func ed25519FromEntropy(entropy []byte) (priv, pub string) {
	raw := sha512Half(entropy)
	defer wipe(raw)

	key := ed25519.NewKeyFromSeed(raw)
	defer wipe(key)

	return "ED" + upperHex(raw), "ED" + upperHex(key.Public().(ed25519.PublicKey))
}

// deriveScalar hashes data with an increasing counter until the first half
// of the digest is a valid secp256k1 private scalar.
func deriveScalar(data []byte, discriminator *uint32) (*btcec.ModNScalar, error) {
	var buf [4]byte
	for i := uint32(0); i < math.MaxUint32; i++ {
		h := sha512.New()
		h.Write(data)
		if discriminator != nil {
			binary.BigEndian.PutUint32(buf[:], *discriminator)
			h.Write(buf[:])
		}
		binary.BigEndian.PutUint32(buf[:], i)
		h.Write(buf[:])

		var s btcec.ModNScalar
		if overflow := s.SetByteSlice(h.Sum(nil)[:32]); !overflow && !s.IsZero() {
			return &s, nil
		}
	}
	return nil, errors.New("no valid scalar found")
}

// secp256k1FromEntropy derives account 0 of a secp256k1 family seed: the
// root key plus a scalar derived from the root public key.
func secp256k1FromEntropy(entropy []byte) (priv, pub string, err error) {
	root, err := deriveScalar(entropy, nil)
	if err != nil {
		return "", "", err
	}
	rootBytes := root.Bytes()
	rootKey, rootPub := btcec.PrivKeyFromBytes(rootBytes[:])
	defer rootKey.Zero()
	defer wipe(rootBytes[:])

	var account uint32
	tweak, err := deriveScalar(rootPub.SerializeCompressed(), &account)
	if err != nil {
		return "", "", err
	}
	tweak.Add(root)
	if tweak.IsZero() {
		return "", "", errors.New("derived a zero private key")
	}

	keyBytes := tweak.Bytes()
	defer wipe(keyBytes[:])
	key, pubKey := btcec.PrivKeyFromBytes(keyBytes[:])
	defer key.Zero()

	return "00" + upperHex(keyBytes[:]), upperHex(pubKey.SerializeCompressed()), nil
}

// publicFromPrivate returns the public key that a ledger-form private key
// (ED or 00 prefixed hex) produces.
func publicFromPrivate(privHex string, keyType addresscodec.KeyType) (string, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil || len(raw) != 33 {
		return "", errors.Wrap(ErrKeyMismatch, "private key must be 33 bytes of hex")
	}
	defer wipe(raw)

	switch keyType {
	case addresscodec.KeyTypeEd25519:
		if raw[0] != addresscodec.Ed25519Prefix {
			return "", errors.Wrap(ErrKeyMismatch, "ed25519 private key must start with ED")
		}
		key := ed25519.NewKeyFromSeed(raw[1:])
		defer wipe(key)
		return "ED" + upperHex(key.Public().(ed25519.PublicKey)), nil
	default:
		if raw[0] != 0 {
			return "", errors.Wrap(ErrKeyMismatch, "secp256k1 private key must start with 00")
		}
		key, pub := btcec.PrivKeyFromBytes(raw[1:])
		defer key.Zero()
		return upperHex(pub.SerializeCompressed()), nil
	}
}

func sameHex(a, b string) bool {
	x, errA := hex.DecodeString(a)
	y, errB := hex.DecodeString(b)
	return errA == nil && errB == nil && bytes.Equal(x, y)
}
