// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import "fmt"

// Status is the result code of a pack or unpack operation. The values
// and their order are protocol constants shared with the packet
// layer's error taxonomy — changing them changes the meaning of
// statuses already baked into calling code.
type Status int

const (
	// StatusOK indicates success.
	StatusOK Status = iota

	// StatusBlackHole indicates the graph references a computation
	// currently being evaluated by another goroutine. Recoverable:
	// retry after the evaluation completes.
	StatusBlackHole

	// StatusNoBuffer indicates the packed graph exceeded the codec's
	// buffer limit.
	StatusNoBuffer

	// StatusCannotPack indicates the graph contains a value kind that
	// is inherently unpackable, such as a channel.
	StatusCannotPack

	// StatusUnsupported indicates the graph contains a value kind the
	// codec has no packing support for.
	StatusUnsupported

	// StatusImpossible indicates an internal invariant violation in
	// the codec. A bug signal, not an expected condition.
	StatusImpossible

	// StatusGarbled indicates a buffer failed structural validation
	// during unpacking.
	StatusGarbled
)

// Failed reports whether the status denotes a failure.
func (s Status) Failed() bool {
	return s != StatusOK
}

// String returns the status name used in errors and logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBlackHole:
		return "blackhole"
	case StatusNoBuffer:
		return "no-buffer"
	case StatusCannotPack:
		return "cannot-pack"
	case StatusUnsupported:
		return "unsupported"
	case StatusImpossible:
		return "impossible"
	case StatusGarbled:
		return "garbled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}
