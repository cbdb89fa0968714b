package transaction

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

type TransactionType string

const (
	TypePayment     TransactionType = "Payment"
	TypeTrustSet    TransactionType = "TrustSet"
	TypeNFTokenMint TransactionType = "NFTokenMint"
	TypeAccountSet  TransactionType = "AccountSet"
)

// NFTokenMint flags
const (
	TfBurnable     uint32 = 0x00000001
	TfOnlyXRP      uint32 = 0x00000002
	TfTrustLine    uint32 = 0x00000004
	TfTransferable uint32 = 0x00000008
)

const (
	MaxTransferFee = 50000
	MaxURILength   = 256
)

// Intent is the economic effect a caller asks for. The concrete types are
// Payment, TrustSet, TokenMint and AccountSettingsChange.
type Intent interface {
	Type() TransactionType
	validate(source string) error
	fields() map[string]interface{}
}

// Amount is either a native amount in drops or an issued currency amount.
type Amount struct {
	Drops  uint64
	Issued *IssuedAmount
}

type IssuedAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

func XRP(drops uint64) Amount {
	return Amount{Drops: drops}
}

func Issued(currency, issuer, value string) Amount {
	return Amount{Issued: &IssuedAmount{Currency: currency, Issuer: issuer, Value: value}}
}

func (a Amount) IsNative() bool {
	return a.Issued == nil
}

// ledgerValue is the amount as it appears in transaction JSON
func (a Amount) ledgerValue() interface{} {
	if a.IsNative() {
		return strconv.FormatUint(a.Drops, 10)
	}
	return map[string]interface{}{
		"currency": a.Issued.Currency,
		"issuer":   a.Issued.Issuer,
		"value":    a.Issued.Value,
	}
}

type Payment struct {
	Destination    string
	Amount         Amount
	DestinationTag *uint32
	AllowSelf      bool // permit paying the source account itself
}

func (p Payment) Type() TransactionType { return TypePayment }

func (p Payment) validate(source string) error {
	if !addresscodec.IsValidClassicAddress(p.Destination) {
		return invalidf("destination %q is not a valid address", p.Destination)
	}
	if p.Destination == source && !p.AllowSelf {
		return invalidf("destination equals the source account")
	}

	if p.Amount.IsNative() {
		if p.Amount.Drops == 0 {
			return invalidf("amount must be greater than zero")
		}
		if p.Amount.Drops > MaxDrops {
			return invalidf("amount exceeds the native supply")
		}
		return nil
	}

	iss := p.Amount.Issued
	if err := validateCurrency(iss.Currency); err != nil {
		return err
	}
	if !addresscodec.IsValidClassicAddress(iss.Issuer) {
		return invalidf("issuer %q is not a valid address", iss.Issuer)
	}
	v, err := parseDecimal(iss.Value)
	if err != nil {
		return invalidf("amount value %q is not a decimal number", iss.Value)
	}
	if v.Sign() <= 0 {
		return invalidf("amount must be greater than zero")
	}
	return nil
}

func (p Payment) fields() map[string]interface{} {
	f := map[string]interface{}{
		"Destination": p.Destination,
		"Amount":      p.Amount.ledgerValue(),
	}
	if p.DestinationTag != nil {
		f["DestinationTag"] = *p.DestinationTag
	}
	return f
}

// TrustSet creates or changes a trust line to Issuer for Currency.
type TrustSet struct {
	Currency string
	Issuer   string
	Limit    string
}

func (t TrustSet) Type() TransactionType { return TypeTrustSet }

func (t TrustSet) validate(source string) error {
	if err := validateCurrency(t.Currency); err != nil {
		return err
	}
	if !addresscodec.IsValidClassicAddress(t.Issuer) {
		return invalidf("issuer %q is not a valid address", t.Issuer)
	}
	if t.Issuer == source {
		return invalidf("cannot extend a trust line to the source account")
	}
	if _, err := parseDecimal(t.Limit); err != nil {
		return invalidf("limit %q is not a non-negative decimal", t.Limit)
	}
	return nil
}

func (t TrustSet) fields() map[string]interface{} {
	return map[string]interface{}{
		"LimitAmount": map[string]interface{}{
			"currency": t.Currency,
			"issuer":   t.Issuer,
			"value":    t.Limit,
		},
	}
}

// TokenMint mints an NFToken. URI is plain text; it is hex-encoded on build.
type TokenMint struct {
	Taxon       int64
	URI         string
	Flags       uint32
	TransferFee uint16
	Issuer      string // mint on behalf of another account
}

// NewTokenMint returns a transferable mint intent.
func NewTokenMint(taxon int64, uri string) TokenMint {
	return TokenMint{Taxon: taxon, URI: uri, Flags: TfTransferable}
}

func (m TokenMint) Type() TransactionType { return TypeNFTokenMint }

func (m TokenMint) validate(source string) error {
	if m.Taxon < 0 || m.Taxon > 0xFFFFFFFF {
		return invalidf("taxon %d is outside [0, 2^32)", m.Taxon)
	}
	if len(m.URI) > MaxURILength {
		return invalidf("uri is %d bytes, limit is %d", len(m.URI), MaxURILength)
	}
	if m.TransferFee > MaxTransferFee {
		return invalidf("transfer fee %d exceeds %d", m.TransferFee, MaxTransferFee)
	}
	if m.TransferFee > 0 && m.Flags&TfTransferable == 0 {
		return invalidf("transfer fee requires the transferable flag")
	}
	if m.Issuer != "" && !addresscodec.IsValidClassicAddress(m.Issuer) {
		return invalidf("issuer %q is not a valid address", m.Issuer)
	}
	return nil
}

func (m TokenMint) fields() map[string]interface{} {
	f := map[string]interface{}{
		"NFTokenTaxon": uint32(m.Taxon),
	}
	if m.URI != "" {
		f["URI"] = upperHex([]byte(m.URI))
	}
	if m.Flags != 0 {
		f["Flags"] = m.Flags
	}
	if m.TransferFee != 0 {
		f["TransferFee"] = m.TransferFee
	}
	if m.Issuer != "" {
		f["Issuer"] = m.Issuer
	}
	return f
}

// AccountSettingsChange sets or clears one account flag (asf*).
type AccountSettingsChange struct {
	SetFlag   *uint32
	ClearFlag *uint32
}

func (a AccountSettingsChange) Type() TransactionType { return TypeAccountSet }

func (a AccountSettingsChange) validate(string) error {
	if a.SetFlag != nil && a.ClearFlag != nil {
		return invalidf("set flag and clear flag are mutually exclusive")
	}
	if a.SetFlag == nil && a.ClearFlag == nil {
		return invalidf("one of set flag or clear flag is required")
	}
	return nil
}

func (a AccountSettingsChange) fields() map[string]interface{} {
	f := map[string]interface{}{}
	if a.SetFlag != nil {
		f["SetFlag"] = *a.SetFlag
	}
	if a.ClearFlag != nil {
		f["ClearFlag"] = *a.ClearFlag
	}
	return f
}

var (
	isoCurrency = regexp.MustCompile(`^[A-Za-z0-9?!@#$%^&*<>(){}\[\]|]{3}$`)
	hexCurrency = regexp.MustCompile(`^[0-9A-Fa-f]{40}$`)
)

func validateCurrency(code string) error {
	switch {
	case isoCurrency.MatchString(code):
		if strings.EqualFold(code, "XRP") {
			return invalidf("XRP is not an issued currency")
		}
		return nil
	case hexCurrency.MatchString(code):
		if strings.Trim(code, "0") == "" {
			return invalidf("currency code is all zeros")
		}
		return nil
	default:
		return invalidf("currency code %q must be 3 characters or 40 hex digits", code)
	}
}

var scientificDecimal = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseDecimal accepts a non-negative decimal in plain or exponent notation
func parseDecimal(s string) (*big.Rat, error) {
	if !scientificDecimal.MatchString(s) {
		return nil, ErrInvalidAmount
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, ErrInvalidAmount
	}
	return r, nil
}

// UnsignedTransaction is an intent bound to an account, sequence, fee and
// last ledger bound. It cannot be submitted; see Signer.
type UnsignedTransaction struct {
	Intent             Intent
	Account            string
	Sequence           uint32
	Fee                uint64 // drops
	LastLedgerSequence uint32
}

func (u *UnsignedTransaction) Type() TransactionType {
	return u.Intent.Type()
}

// Fields returns the transaction in its JSON field form, without signing
// fields.
func (u *UnsignedTransaction) Fields() map[string]interface{} {
	f := u.Intent.fields()
	f["TransactionType"] = string(u.Intent.Type())
	f["Account"] = u.Account
	f["Sequence"] = u.Sequence
	f["Fee"] = strconv.FormatUint(u.Fee, 10)
	f["LastLedgerSequence"] = u.LastLedgerSequence
	return f
}

// SignedTransaction is produced only by the signer and is the only thing
// the submitter accepts.
type SignedTransaction struct {
	account            string
	sequence           uint32
	lastLedgerSequence uint32
	signingPubKey      string
	txnSignature       string
	blob               string
	hash               string
	unsigned           *UnsignedTransaction // nil when signed elsewhere
}

func (s *SignedTransaction) Account() string            { return s.account }
func (s *SignedTransaction) Sequence() uint32           { return s.sequence }
func (s *SignedTransaction) LastLedgerSequence() uint32 { return s.lastLedgerSequence }
func (s *SignedTransaction) SigningPubKey() string      { return s.signingPubKey }
func (s *SignedTransaction) TxnSignature() string       { return s.txnSignature }

// Blob is the hex wire form passed to submit.
func (s *SignedTransaction) Blob() string { return s.blob }

// Hash is the transaction identifier.
func (s *SignedTransaction) Hash() string { return s.hash }
