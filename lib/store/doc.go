// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists serialized heap records on disk under
// symbolic names.
//
// A Store is a directory of binary-encoded records plus a CBOR
// manifest. Records are compressed on the way in (lz4 by default,
// zstd or none configurable) and digest-checked on the way out: every
// stored blob carries a keyed BLAKE3 digest in the manifest, and Load
// refuses bytes that no longer match it.
//
// The store inherits the serialization boundary's guarantees rather
// than adding its own: a record written by one build of the program is
// rejected by the next build at decode time, so a store directory
// doubles as a per-binary memo cache. Memoize builds directly on that
// property — it recomputes and overwrites whenever the stored record
// is missing, stale, or from a different binary.
package store
