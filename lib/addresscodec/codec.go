// Package addresscodec encodes and decodes ledger identifiers: classic
// account addresses, account IDs and family seeds. All of them use
// base58check over the ledger alphabet.
package addresscodec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

const (
	AccountIDLength = 20
	SeedLength      = 16
	PublicKeyLength = 33

	// Ed25519Prefix marks an ed25519 key in its 33-byte ledger form.
	Ed25519Prefix byte = 0xED

	checksumLength = 4
)

var (
	ErrInvalidAddress   = errors.New("invalid classic address")
	ErrInvalidSeed      = errors.New("invalid family seed")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrChecksum         = errors.New("checksum mismatch")
)

var alphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

var (
	accountIDPrefix   = []byte{0x00}
	secp256k1SeedType = []byte{0x21}
	ed25519SeedType   = []byte{0x01, 0xE1, 0x4B}
)

// KeyType names the signing algorithm a seed or key belongs to.
type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "secp256k1"
	KeyTypeEd25519   KeyType = "ed25519"
)

func checksum(payload []byte) []byte {
	return chainhash.DoubleHashB(payload)[:checksumLength]
}

func encodeCheck(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+checksumLength)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.EncodeAlphabet(buf, alphabet)
}

func decodeCheck(encoded string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(encoded, alphabet)
	if err != nil {
		return nil, errors.Wrap(err, "base58 decode")
	}
	if len(raw) <= checksumLength {
		return nil, errors.Errorf("decoded value too short: %d bytes", len(raw))
	}

	body, sum := raw[:len(raw)-checksumLength], raw[len(raw)-checksumLength:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, ErrChecksum
	}
	return body, nil
}

// EncodeAccountID turns a 20-byte account ID into its classic address.
func EncodeAccountID(accountID []byte) (string, error) {
	if len(accountID) != AccountIDLength {
		return "", errors.Wrapf(ErrInvalidAddress, "account id must be %d bytes, got %d", AccountIDLength, len(accountID))
	}
	return encodeCheck(accountIDPrefix, accountID), nil
}

// DecodeClassicAddress returns the account ID behind a classic address.
func DecodeClassicAddress(address string) ([]byte, error) {
	if !strings.HasPrefix(address, "r") {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q does not start with r", address)
	}

	body, err := decodeCheck(address)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q: %v", address, err)
	}
	if len(body) != len(accountIDPrefix)+AccountIDLength || body[0] != accountIDPrefix[0] {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q has the wrong payload", address)
	}
	return body[1:], nil
}

// IsValidClassicAddress reports whether address decodes to an account ID.
func IsValidClassicAddress(address string) bool {
	_, err := DecodeClassicAddress(address)
	return err == nil
}

// AccountIDFromPublicKey hashes a 33-byte public key into an account ID
// (RIPEMD160 of SHA256).
func AccountIDFromPublicKey(publicKey []byte) ([]byte, error) {
	if len(publicKey) != PublicKeyLength {
		return nil, errors.Wrapf(ErrInvalidPublicKey, "expected %d bytes, got %d", PublicKeyLength, len(publicKey))
	}
	switch publicKey[0] {
	case 0x02, 0x03, Ed25519Prefix:
	default:
		return nil, errors.Wrapf(ErrInvalidPublicKey, "unknown key prefix 0x%02X", publicKey[0])
	}

	sha := sha256.Sum256(publicKey)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil), nil
}

// DeriveAddress computes the classic address owned by a hex public key.
func DeriveAddress(publicKeyHex string) (string, error) {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", errors.Wrap(ErrInvalidPublicKey, "not hex")
	}

	accountID, err := AccountIDFromPublicKey(pub)
	if err != nil {
		return "", err
	}
	return EncodeAccountID(accountID)
}

// PublicKeyType reports the algorithm of a hex public key.
func PublicKeyType(publicKeyHex string) (KeyType, error) {
	if len(publicKeyHex) != PublicKeyLength*2 {
		return "", errors.Wrapf(ErrInvalidPublicKey, "expected %d hex chars", PublicKeyLength*2)
	}
	if strings.HasPrefix(strings.ToUpper(publicKeyHex), "ED") {
		return KeyTypeEd25519, nil
	}
	return KeyTypeSecp256k1, nil
}

// EncodeSeed encodes 16 bytes of entropy as a family seed.
func EncodeSeed(entropy []byte, keyType KeyType) (string, error) {
	if len(entropy) != SeedLength {
		return "", errors.Wrapf(ErrInvalidSeed, "entropy must be %d bytes, got %d", SeedLength, len(entropy))
	}

	switch keyType {
	case KeyTypeEd25519:
		return encodeCheck(ed25519SeedType, entropy), nil
	case KeyTypeSecp256k1:
		return encodeCheck(secp256k1SeedType, entropy), nil
	default:
		return "", errors.Wrapf(ErrInvalidSeed, "unknown key type %q", keyType)
	}
}

// DecodeSeed returns the entropy and key type behind a family seed.
func DecodeSeed(seed string) ([]byte, KeyType, error) {
	body, err := decodeCheck(seed)
	if err != nil {
		return nil, "", errors.Wrap(ErrInvalidSeed, err.Error())
	}

	switch {
	case len(body) == len(ed25519SeedType)+SeedLength && bytes.HasPrefix(body, ed25519SeedType):
		return body[len(ed25519SeedType):], KeyTypeEd25519, nil
	case len(body) == len(secp256k1SeedType)+SeedLength && bytes.HasPrefix(body, secp256k1SeedType):
		return body[len(secp256k1SeedType):], KeyTypeSecp256k1, nil
	default:
		return nil, "", errors.Wrap(ErrInvalidSeed, "unknown seed prefix")
	}
}
