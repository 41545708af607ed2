package tagv

import (
	"fmt"
	"math/big"
)

// U128, U256 and U512 are fixed-width unsigned integers backed by
// big.Int. Width bounds are enforced at construction, so a held value
// always fits the declared width.
type U128 struct{ n big.Int }

type U256 struct{ n big.Int }

type U512 struct{ n big.Int }

func checkWidth(n *big.Int, bits int) error {
	if n.Sign() < 0 {
		return fmt.Errorf("u%d cannot hold negative value %s", bits, n)
	}
	if n.BitLen() > bits {
		return fmt.Errorf("value %s exceeds %d bits", n, bits)
	}
	return nil
}

// NewU128 constructs a U128, rejecting negative or oversized values.
func NewU128(n *big.Int) (U128, error) {
	if err := checkWidth(n, 128); err != nil {
		return U128{}, err
	}
	var v U128
	v.n.Set(n)
	return v, nil
}

// NewU256 constructs a U256, rejecting negative or oversized values.
func NewU256(n *big.Int) (U256, error) {
	if err := checkWidth(n, 256); err != nil {
		return U256{}, err
	}
	var v U256
	v.n.Set(n)
	return v, nil
}

// NewU512 constructs a U512, rejecting negative or oversized values.
func NewU512(n *big.Int) (U512, error) {
	if err := checkWidth(n, 512); err != nil {
		return U512{}, err
	}
	var v U512
	v.n.Set(n)
	return v, nil
}

// U128FromUint64 wraps a uint64 as a U128.
func U128FromUint64(u uint64) U128 {
	var v U128
	v.n.SetUint64(u)
	return v
}

// U256FromUint64 wraps a uint64 as a U256.
func U256FromUint64(u uint64) U256 {
	var v U256
	v.n.SetUint64(u)
	return v
}

// U512FromUint64 wraps a uint64 as a U512.
func U512FromUint64(u uint64) U512 {
	var v U512
	v.n.SetUint64(u)
	return v
}

// MustU512 is NewU512 for known-good constants; it panics on error.
func MustU512(n *big.Int) U512 {
	v, err := NewU512(n)
	if err != nil {
		panic(err)
	}
	return v
}

// U512FromDecimal parses a base-10 string into a U512.
func U512FromDecimal(s string) (U512, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U512{}, fmt.Errorf("invalid decimal %q", s)
	}
	return NewU512(n)
}

// U256FromDecimal parses a base-10 string into a U256.
func U256FromDecimal(s string) (U256, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U256{}, fmt.Errorf("invalid decimal %q", s)
	}
	return NewU256(n)
}

// U128FromDecimal parses a base-10 string into a U128.
func U128FromDecimal(s string) (U128, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U128{}, fmt.Errorf("invalid decimal %q", s)
	}
	return NewU128(n)
}

// Int returns a copy of the held value.
func (v U128) Int() *big.Int { return new(big.Int).Set(&v.n) }

func (v U256) Int() *big.Int { return new(big.Int).Set(&v.n) }

func (v U512) Int() *big.Int { return new(big.Int).Set(&v.n) }

func (v U128) String() string { return v.n.String() }

func (v U256) String() string { return v.n.String() }

func (v U512) String() string { return v.n.String() }

// appendBig appends the canonical encoding of a width-checked unsigned
// integer: a count byte N followed by exactly N little-endian magnitude
// bytes with no trailing zero. Zero encodes as the single byte 0x00.
func appendBig(dst []byte, n *big.Int) []byte {
	be := n.Bytes()
	dst = append(dst, byte(len(be)))
	for i := len(be) - 1; i >= 0; i-- {
		dst = append(dst, be[i])
	}
	return dst
}

// decodeBig reads the canonical unsigned integer encoding bounded by
// maxBits. It rejects truncated input, oversized counts and
// non-minimal encodings (a trailing zero magnitude byte).
func decodeBig(b []byte, maxBits int) (*big.Int, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("big integer count byte missing: %w", ErrTruncated)
	}
	count := int(b[0])
	if count > maxBits/8 {
		return nil, 0, fmt.Errorf("big integer count %d exceeds u%d", count, maxBits)
	}
	if len(b) < 1+count {
		return nil, 0, fmt.Errorf("big integer needs %d magnitude bytes: %w", count, ErrTruncated)
	}
	if count > 0 && b[count] == 0 {
		return nil, 0, fmt.Errorf("big integer encoding is not minimal")
	}
	be := make([]byte, count)
	for i := 0; i < count; i++ {
		be[i] = b[count-i]
	}
	return new(big.Int).SetBytes(be), 1 + count, nil
}
