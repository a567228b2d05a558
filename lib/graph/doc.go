// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package graph defines the graph-packing boundary and provides the
// in-memory reference codec behind it.
//
// A graph is everything reachable from a root value: scalars,
// pointers (possibly shared or cyclic), containers, and suspended
// computations ([Thunk]). Packing flattens a graph into a relocatable
// word-aligned buffer; unpacking reconstructs an equivalent,
// independently-rooted graph from one.
//
// # The boundary
//
// [Codec] is the contract the packet layer consumes. Its operations
// report a [Status] rather than an error: the packet layer owns the
// translation of statuses into its error taxonomy, and this layer
// never wraps, logs, or re-interprets them. Pack must not block when
// it encounters a computation under evaluation by another goroutine —
// it reports [StatusBlackHole] immediately. That non-blocking
// guarantee is the reason serialization can be attempted from latency
// sensitive callers without coordination.
//
// # The reference codec
//
// [New] returns the reflection-based implementation. It walks the
// root type-directedly and supports booleans, integers, floats,
// strings, arrays, slices, maps, structs (exported fields, as
// encoding/json treats them), and pointers. Pointer identity is
// preserved: aliased pointers unpack aliased, and cyclic graphs
// round-trip. Node payloads are deterministic CBOR (lib/cborenc),
// framed into a leading length word plus padding so the buffer is
// always a whole number of 64-bit words.
//
// Value kinds that cannot be relocated are rejected, not skipped:
//
//   - channels report [StatusCannotPack] — a channel is an
//     externally-synchronized mutable cell whose peers live outside
//     the graph;
//   - non-nil funcs, unsafe pointers, uintptrs, complex numbers, and
//     non-nil interface data report [StatusUnsupported];
//   - a buffer larger than the configured limit reports
//     [StatusNoBuffer].
//
// # Suspended computations
//
// A [Thunk] is a memoized deferred computation bound to a recipe
// registered with [RegisterRecipe]. An unevaluated thunk packs as its
// recipe name plus arguments and unpacks suspended — forcing it after
// reconstruction runs the recipe in the consuming process. An
// evaluated thunk packs as its cached value. A thunk whose recipe is
// currently running in another goroutine is a black hole: Pack
// detects it with a try-lock and reports StatusBlackHole without
// waiting for the evaluation to finish.
package graph
