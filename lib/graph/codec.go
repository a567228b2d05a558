// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package graph

// WordSize is the machine word size in bytes. Packed buffers are
// always a whole number of words, and the packet wire formats count
// payload length in words.
const WordSize = 8

// Codec flattens object graphs into relocatable word buffers and
// reconstructs them. Implementations must be safe for concurrent use:
// pack and unpack calls on independent values are independent
// transactions.
type Codec interface {
	// Pack flattens the graph rooted at root into a word-aligned
	// buffer. On failure the returned buffer is nil. Pack never
	// blocks on a computation under evaluation elsewhere; it reports
	// StatusBlackHole instead.
	Pack(root any) (Status, []byte)

	// Unpack reconstructs a graph from a buffer previously produced
	// by Pack into root, which must be a non-nil pointer whose
	// element type matches the packed root's type. Reconstruction is
	// type-directed; a buffer that does not match the destination's
	// shape reports StatusGarbled.
	Unpack(buffer []byte, root any) Status
}

// DefaultMaxBufferBytes bounds packed buffer size when Options leaves
// MaxBufferBytes zero.
const DefaultMaxBufferBytes = 64 << 20

// Options configures the reference codec.
type Options struct {
	// MaxBufferBytes is the largest packed buffer Pack will produce.
	// Exceeding it reports StatusNoBuffer. Zero means
	// DefaultMaxBufferBytes.
	MaxBufferBytes int
}

// New returns the in-memory reference codec.
func New(opts Options) Codec {
	limit := opts.MaxBufferBytes
	if limit == 0 {
		limit = DefaultMaxBufferBytes
	}
	return &memCodec{maxBufferBytes: limit}
}

// memCodec is the reflection-based reference implementation. It is
// stateless apart from configuration, so a single instance may be
// shared freely.
type memCodec struct {
	maxBufferBytes int
}
