// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"strings"
	"testing"
)

func TestStringParseRoundTrip(t *testing.T) {
	original := New(0xdeadbeefcafe0001, 0x0123456789abcdef)

	s := original.String()
	if len(s) != 32 {
		t.Fatalf("String() has %d digits, want 32: %q", len(s), s)
	}
	if s != strings.ToLower(s) {
		t.Errorf("String() is not lowercase: %q", s)
	}

	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	if parsed != original {
		t.Errorf("Parse(String()) = %v, want %v", parsed, original)
	}
}

func TestZeroPadding(t *testing.T) {
	f := New(0, 1)
	want := "0000000000000000" + "0000000000000001"
	if f.String() != want {
		t.Errorf("String() = %q, want %q", f.String(), want)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "deadbeef"},
		{"long", strings.Repeat("a", 33)},
		{"non-hex", strings.Repeat("g", 32)},
		{"uppercase mixed garbage", strings.Repeat("Z", 32)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.input); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tc.input)
			}
		})
	}
}

func TestFromDigest(t *testing.T) {
	digest := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
		// Trailing digest bytes beyond 16 are ignored.
		0xff, 0xff,
	}
	f := FromDigest(digest)
	if f.Hi != 0x0102030405060708 {
		t.Errorf("Hi = %016x, want 0102030405060708", f.Hi)
	}
	if f.Lo != 0x090a0b0c0d0e0f10 {
		t.Errorf("Lo = %016x, want 090a0b0c0d0e0f10", f.Lo)
	}

	bytes := f.Bytes()
	for i, want := range digest[:16] {
		if bytes[i] != want {
			t.Errorf("Bytes()[%d] = %02x, want %02x", i, bytes[i], want)
		}
	}
}

func TestFromDigestShortPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FromDigest with a short digest should panic")
		}
	}()
	FromDigest([]byte{1, 2, 3})
}

func TestIsZero(t *testing.T) {
	if !(Fingerprint{}).IsZero() {
		t.Error("zero Fingerprint should report IsZero")
	}
	if New(0, 1).IsZero() {
		t.Error("non-zero Fingerprint should not report IsZero")
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	original := New(42, 0xffffffffffffffff)
	text, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var restored Fingerprint
	if err := restored.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if restored != original {
		t.Errorf("round-trip = %v, want %v", restored, original)
	}
}
