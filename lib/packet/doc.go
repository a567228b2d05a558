// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package packet implements the typed serialization-packet protocol:
// the identity-checked encode/decode layer on top of the graph
// packing boundary (lib/graph).
//
// A [Packet] is an opaque, immutable, word-aligned buffer holding a
// flattened object graph, tagged at compile time with the type it was
// packed from. The tag is not only compile-time: every wire record
// embeds the producing binary's fingerprint (lib/binident) and the
// packed type's fingerprint (lib/typeident), and decoding re-checks
// both against the current process before a Packet is ever
// constructed. Reconstructing a graph from a foreign binary's buffer
// would materialize invalid code pointers, so the identity checks are
// a safety requirement and always run before any reconstruction — not
// an optimization.
//
// Data flows in one direction and back:
//
//	value --TrySerialize--> Packet --EncodeText/EncodeBinary--> bytes
//	bytes --DecodeText/DecodeBinary--> Packet --Deserialize--> value
//
// Two wire encodings carry the same logical record (program
// fingerprint, type fingerprint, word count, payload words): a
// line-oriented, eyeball-readable text form and a compact fixed-layout
// binary form. Each round-trips exactly; they are not interchangeable
// byte for byte.
//
// # Errors
//
// Every failure is a distinct member of the taxonomy in errors.go,
// matched with errors.Is. Pack-side statuses from the graph codec are
// translated here, once, and never re-interpreted upstream. Decode
// validation failures (ErrParse, ErrBinaryMismatch, ErrTypeMismatch)
// are raised as soon as detected, in a fixed order: structural parse,
// then binary identity, then word count, then type identity.
//
// # Packet reuse
//
// A Packet may be deserialized more than once; each call reconstructs
// an independent graph. This is safe with the reference codec because
// reconstruction never consumes the payload. Callers that treat
// packets as single-shot messages lose nothing by doing so.
//
// [TrySerialize] never blocks: if part of the graph is being
// evaluated by another goroutine at pack time, it returns
// ErrBlackHole immediately.
package packet
