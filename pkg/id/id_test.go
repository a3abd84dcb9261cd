package id

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
)

func withRandom(t *testing.T, b []byte) {
	t.Helper()
	prev := Random
	Random = bytes.NewReader(b)
	t.Cleanup(func() { Random = prev })
}

func TestNewRoundTrip(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s := c.String()
	if len(s) != 64 || strings.ToLower(s) != s {
		t.Fatalf("unexpected sync code %q", s)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Compare(c) != 0 {
		t.Fatalf("round trip mismatch")
	}
}

func TestParseRejects(t *testing.T) {
	good := strings.Repeat("ab", 32)
	cases := []string{
		"",
		good[:63],
		good + "a",
		strings.ToUpper(good),
		strings.Repeat("zz", 32),
	}
	for _, s := range cases {
		if Valid(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
	if !Valid(good) {
		t.Fatalf("expected %q to be accepted", good)
	}
}

func TestNewDeviceIDRange(t *testing.T) {
	withRandom(t, bytes.Repeat([]byte{0xff}, 8))
	v, err := NewDeviceID()
	if err != nil {
		t.Fatalf("device id: %v", err)
	}
	if v != MaxDeviceID {
		t.Fatalf("expected mask to MaxDeviceID, got %d", v)
	}
}

func TestNewDeviceIDSkipsZero(t *testing.T) {
	withRandom(t, append(make([]byte, 8), 0, 0, 0, 0, 0, 0, 0, 9))
	v, err := NewDeviceID()
	if err != nil {
		t.Fatalf("device id: %v", err)
	}
	if v != 9 {
		t.Fatalf("expected 9, got %d", v)
	}
}

func TestNewDistinct(t *testing.T) {
	Random = rand.Reader
	a, _ := New()
	b, _ := New()
	if a == b || a.IsZero() {
		t.Fatalf("expected distinct non-zero ids")
	}
}
