// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Size is the width of a Fingerprint in bytes.
const Size = 16

// hexDigits is the length of the canonical hex representation.
const hexDigits = 2 * Size

// Fingerprint is a 128-bit opaque identity value. The zero
// Fingerprint is never produced by hashing and can be used as a
// "not set" sentinel.
//
// Fingerprints are comparable; use == for equality. No ordering is
// defined.
type Fingerprint struct {
	Hi uint64
	Lo uint64
}

// New constructs a Fingerprint from its two words.
func New(hi, lo uint64) Fingerprint {
	return Fingerprint{Hi: hi, Lo: lo}
}

// FromDigest derives a Fingerprint from the leading 16 bytes of a
// hash digest, interpreted big-endian. Panics if the digest is
// shorter than 16 bytes — callers always pass full hash outputs, so
// a short digest is a programming error, not an input error.
func FromDigest(digest []byte) Fingerprint {
	if len(digest) < Size {
		panic(fmt.Sprintf("fingerprint: digest is %d bytes, need at least %d", len(digest), Size))
	}
	return Fingerprint{
		Hi: binary.BigEndian.Uint64(digest[0:8]),
		Lo: binary.BigEndian.Uint64(digest[8:16]),
	}
}

// IsZero reports whether the fingerprint is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Bytes returns the big-endian 16-byte representation.
func (f Fingerprint) Bytes() [Size]byte {
	var b [Size]byte
	binary.BigEndian.PutUint64(b[0:8], f.Hi)
	binary.BigEndian.PutUint64(b[8:16], f.Lo)
	return b
}

// String returns the canonical 32-digit lowercase hex form.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x%016x", f.Hi, f.Lo)
}

// Parse parses the canonical 32-digit hex form produced by String.
// Returns an error for any other length or encoding.
func Parse(s string) (Fingerprint, error) {
	if len(s) != hexDigits {
		return Fingerprint{}, fmt.Errorf("fingerprint is %d hex digits, want %d", len(s), hexDigits)
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("parsing fingerprint: %w", err)
	}
	return FromDigest(decoded), nil
}

// MarshalText implements encoding.TextMarshaler using the canonical
// hex form. This is what lets fingerprints serialize as plain strings
// in CBOR manifests and YAML output.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, mirroring
// MarshalText for round-trip correctness.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
