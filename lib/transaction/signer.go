package transaction

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// Credentials is the key material of one account. Keys are hex strings in
// ledger form: 33-byte public keys, ed25519 keys prefixed with ED.
type Credentials interface {
	AccountAddress() string
	SigningPublicKey() string
	SigningPrivateKey() string
}

// Signer binds unsigned transactions to a wallet's keys. Key material
// never appears in logs or errors.
type Signer struct {
	codec Codec
}

func NewSigner(codec Codec) *Signer {
	return &Signer{codec: codec}
}

// Sign signs unsigned with creds. It fails with ErrKeyMismatch when the
// public key does not derive the transaction account, or the private key
// does not produce the public key.
func (s *Signer) Sign(unsigned *UnsignedTransaction, creds Credentials) (*SignedTransaction, error) {
	pubHex := strings.ToUpper(creds.SigningPublicKey())
	derived, err := addresscodec.DeriveAddress(pubHex)
	if err != nil {
		return nil, errors.Wrap(ErrKeyMismatch, "public key does not decode")
	}
	if derived != unsigned.Account {
		return nil, errors.Wrapf(ErrKeyMismatch, "public key derives %s, transaction account is %s", derived, unsigned.Account)
	}
	if addr := creds.AccountAddress(); addr != "" && addr != derived {
		return nil, errors.Wrapf(ErrKeyMismatch, "wallet address %s does not match its public key", addr)
	}

	key, err := loadSigningKey(pubHex, creds.SigningPrivateKey())
	if err != nil {
		return nil, err
	}
	defer key.wipe()

	fields := unsigned.Fields()
	fields["SigningPubKey"] = pubHex

	payload, err := s.codec.EncodeForSigning(fields)
	if err != nil {
		return nil, errors.Wrap(err, "encode for signing")
	}
	if !bytes.HasPrefix(payload, txSignPrefix) {
		return nil, errors.New("codec returned a signing payload without the STX prefix")
	}

	sig := key.sign(payload)
	fields["TxnSignature"] = upperHex(sig)

	blob, err := s.codec.Encode(fields)
	if err != nil {
		return nil, errors.Wrap(err, "encode signed transaction")
	}

	return &SignedTransaction{
		account:            unsigned.Account,
		sequence:           unsigned.Sequence,
		lastLedgerSequence: unsigned.LastLedgerSequence,
		signingPubKey:      pubHex,
		txnSignature:       upperHex(sig),
		blob:               upperHex(blob),
		hash:               TransactionHash(blob),
		unsigned:           unsigned,
	}, nil
}

// ParseSigned adopts a blob signed elsewhere so it can be driven by the
// submitter. lastLedger may be zero when the blob carries no bound; such a
// transaction can only time out, never expire.
func ParseSigned(blobHex, account string, sequence, lastLedger uint32) (*SignedTransaction, error) {
	blob, err := hex.DecodeString(blobHex)
	if err != nil || len(blob) == 0 {
		return nil, errors.New("signed blob is not hex")
	}
	if !addresscodec.IsValidClassicAddress(account) {
		return nil, errors.Wrapf(addresscodec.ErrInvalidAddress, "%q", account)
	}
	return &SignedTransaction{
		account:            account,
		sequence:           sequence,
		lastLedgerSequence: lastLedger,
		blob:               upperHex(blob),
		hash:               TransactionHash(blob),
	}, nil
}

// TransactionHash computes the identifier of a binary transaction
func TransactionHash(blob []byte) string {
	return upperHex(sha512Half(txIDPrefix, blob))
}

type signingKey struct {
	ed  ed25519.PrivateKey
	k1  *btcec.PrivateKey
	raw []byte
}

// loadSigningKey parses the private key and checks it against pubHex
func loadSigningKey(pubHex, privHex string) (*signingKey, error) {
	pub, _ := hex.DecodeString(pubHex)
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, errors.Wrap(ErrKeyMismatch, "private key is not hex")
	}
	// keys in ledger form carry a one byte prefix: ED or 00
	if len(raw) == 33 {
		raw = raw[1:]
	}
	if len(raw) != 32 {
		zero(raw)
		return nil, errors.Wrap(ErrKeyMismatch, "private key has the wrong length")
	}

	key := &signingKey{raw: raw}
	if pub[0] == addresscodec.Ed25519Prefix {
		key.ed = ed25519.NewKeyFromSeed(raw)
		if !bytes.Equal(key.ed.Public().(ed25519.PublicKey), pub[1:]) {
			key.wipe()
			return nil, errors.Wrap(ErrKeyMismatch, "private key does not produce the public key")
		}
		return key, nil
	}

	key.k1, _ = btcec.PrivKeyFromBytes(raw)
	if !bytes.Equal(key.k1.PubKey().SerializeCompressed(), pub) {
		key.wipe()
		return nil, errors.Wrap(ErrKeyMismatch, "private key does not produce the public key")
	}
	return key, nil
}

// sign signs the raw payload with ed25519, or its SHA512Half digest with
// secp256k1 (canonical DER).
func (k *signingKey) sign(payload []byte) []byte {
	if k.ed != nil {
		return ed25519.Sign(k.ed, payload)
	}
	return ecdsa.Sign(k.k1, sha512Half(payload)).Serialize()
}

func (k *signingKey) wipe() {
	zero(k.raw)
	zero(k.ed)
	if k.k1 != nil {
		k.k1.Zero()
	}
}
