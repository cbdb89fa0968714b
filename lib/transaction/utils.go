package transaction

import (
	"crypto/sha512"
	"encoding/hex"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DropsPerXRP = 1_000_000
	// MaxDrops is the total native supply, 100 billion XRP.
	MaxDrops uint64 = 100_000_000_000 * DropsPerXRP
)

var decimalPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// XRPToDrops converts a decimal XRP string into drops. It never rounds:
// amounts finer than one drop are an error.
func XRPToDrops(xrp string) (uint64, error) {
	s := strings.TrimSpace(xrp)
	if strings.HasPrefix(s, "-") {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q is negative", xrp)
	}
	if !decimalPattern.MatchString(s) {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q is not a decimal number", xrp)
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q is not a decimal number", xrp)
	}
	r.Mul(r, new(big.Rat).SetInt64(DropsPerXRP))
	if !r.IsInt() {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q is not a whole number of drops", xrp)
	}

	n := r.Num()
	if !n.IsUint64() || n.Uint64() > MaxDrops {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q exceeds the native supply", xrp)
	}
	return n.Uint64(), nil
}

// DropsToXRP formats drops as a decimal XRP string without trailing zeros.
func DropsToXRP(drops uint64) string {
	whole := strconv.FormatUint(drops/DropsPerXRP, 10)
	frac := drops % DropsPerXRP
	if frac == 0 {
		return whole
	}
	fs := strings.TrimRight(strconv.FormatUint(frac+DropsPerXRP, 10)[1:], "0")
	return whole + "." + fs
}

// ParseDrops parses an integer drops string
func ParseDrops(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n > MaxDrops {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q is not a drops amount", s)
	}
	return n, nil
}

// sha512Half is the first 32 bytes of SHA-512 over the concatenated parts.
func sha512Half(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)[:32]
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// zero overwrites key material once it is no longer needed
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
