package id

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
)

// Size is the byte length of a ChainID.
const Size = 32

// MaxDeviceID is the largest identifier that survives a round trip through
// an IEEE-754 double (2^53 - 1).
const MaxDeviceID = 1<<53 - 1

// ErrInvalid is returned by Parse for anything other than 64 lowercase hex
// characters.
var ErrInvalid = errors.New("id: invalid chain id")

// ChainID is the 256-bit random identifier of a sync chain. Its string form
// is the lowercase hex sync code handed to clients.
type ChainID [Size]byte

// Random is the entropy source. Tests replace it for determinism.
var Random io.Reader = rand.Reader

// New returns a fresh random ChainID.
func New() (ChainID, error) {
	var c ChainID
	if _, err := io.ReadFull(Random, c[:]); err != nil {
		return ChainID{}, err
	}
	return c, nil
}

// Parse decodes a sync code. Uppercase hex is rejected so that every chain
// has exactly one textual name.
func Parse(s string) (ChainID, error) {
	var c ChainID
	if len(s) != Size*2 {
		return c, ErrInvalid
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f') {
			return c, ErrInvalid
		}
	}
	if _, err := hex.Decode(c[:], []byte(s)); err != nil {
		return ChainID{}, ErrInvalid
	}
	return c, nil
}

// Valid reports whether s is a well-formed sync code.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the 64-character lowercase hex form.
func (c ChainID) String() string { return fmtHex(c[:]) }

// Bytes returns a copy of the raw bytes.
func (c ChainID) Bytes() []byte { b := make([]byte, Size); copy(b, c[:]); return b }

// IsZero reports whether c is the zero value.
func (c ChainID) IsZero() bool { return c == ChainID{} }

// Compare returns -1, 0, 1 based on lexical comparison.
func (c ChainID) Compare(other ChainID) int {
	for i := 0; i < Size; i++ {
		if c[i] < other[i] {
			return -1
		}
		if c[i] > other[i] {
			return 1
		}
	}
	return 0
}

// NewDeviceID returns a random identifier in [1, MaxDeviceID].
func NewDeviceID() (int64, error) {
	var b [8]byte
	for {
		if _, err := io.ReadFull(Random, b[:]); err != nil {
			return 0, err
		}
		v := int64(binary.BigEndian.Uint64(b[:]) & MaxDeviceID)
		if v != 0 {
			return v, nil
		}
	}
}

func fmtHex(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}
