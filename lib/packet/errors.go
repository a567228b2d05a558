// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"errors"
	"fmt"

	"github.com/heappack/heappack/lib/fingerprint"
	"github.com/heappack/heappack/lib/graph"
)

// The error taxonomy. Every failure surfaced by this package wraps
// exactly one of these sentinels; callers branch with errors.Is and
// never see a raw status code.
var (
	// ErrBlackHole: the graph references a computation currently being
	// evaluated by another goroutine. Recoverable — retry once the
	// evaluation finishes. TrySerialize returns this without blocking.
	ErrBlackHole = errors.New("graph references a computation under evaluation")

	// ErrNoBuffer: the packed graph exceeded the codec's buffer limit.
	ErrNoBuffer = errors.New("packing buffer exhausted")

	// ErrCannotPack: the graph contains an inherently unpackable
	// value, such as a channel.
	ErrCannotPack = errors.New("graph contains an unpackable value")

	// ErrUnsupported: the graph contains a value kind without packing
	// support.
	ErrUnsupported = errors.New("graph contains an unsupported value kind")

	// ErrImpossible: internal invariant violation in the graph codec.
	// A bug signal; callers should treat it as non-recoverable.
	ErrImpossible = errors.New("internal invariant violation in graph codec")

	// ErrGarbled: the buffer failed structural validation during
	// reconstruction.
	ErrGarbled = errors.New("buffer failed structural validation")

	// ErrParse: a text or binary record is malformed or ambiguous.
	ErrParse = errors.New("malformed serialization record")

	// ErrBinaryMismatch: the record was produced by a different
	// compiled binary than the one now running.
	ErrBinaryMismatch = errors.New("record produced by a different binary")

	// ErrTypeMismatch: the record holds a different type than the one
	// requested.
	ErrTypeMismatch = errors.New("record holds a different type")
)

// packErrorFor translates a pack-side status. Only called for failed
// statuses.
func packErrorFor(status graph.Status) error {
	switch status {
	case graph.StatusBlackHole:
		return ErrBlackHole
	case graph.StatusNoBuffer:
		return ErrNoBuffer
	case graph.StatusCannotPack:
		return ErrCannotPack
	case graph.StatusUnsupported:
		return ErrUnsupported
	case graph.StatusGarbled:
		// Pack never reports Garbled; a codec that does is broken.
		return fmt.Errorf("%w: pack reported status %v", ErrImpossible, status)
	default:
		return ErrImpossible
	}
}

// ParseError reports where a record failed structural validation.
// Matches ErrParse under errors.Is.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return "malformed serialization record: " + e.Detail
}

func (e *ParseError) Unwrap() error { return ErrParse }

func parseErrorf(format string, args ...any) error {
	return &ParseError{Detail: fmt.Sprintf(format, args...)}
}

// MismatchError reports a fingerprint comparison failure during
// decode. Matches ErrBinaryMismatch or ErrTypeMismatch under
// errors.Is, depending on which identity disagreed.
type MismatchError struct {
	// Record is the fingerprint embedded in the decoded record.
	Record fingerprint.Fingerprint

	// Current is the corresponding fingerprint of this process (the
	// running binary's, or the requested type's).
	Current fingerprint.Fingerprint

	sentinel error
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: record has %s, this process has %s", e.sentinel, e.Record, e.Current)
}

func (e *MismatchError) Unwrap() error { return e.sentinel }
