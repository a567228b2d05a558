// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package binident identifies the running executable by the BLAKE3
// hash of its file contents.
//
// A packet record embeds the producing binary's fingerprint, and every
// decode compares it against [Current]. Two processes can exchange
// packets only when they run byte-identical binaries: a packet carries
// flattened graph structure whose reconstruction materializes code
// pointers, and code pointers are only meaningful inside the exact
// binary that produced them. Recompiling — even without source changes
// that affect the types involved — may move code, so the comparison is
// on file contents, not on version strings or build metadata.
//
// [Current] resolves the executable via os.Executable (on Linux this
// reads /proc/self/exe, which keeps pointing at the original binary
// even if the file is replaced on disk after startup), streams it
// through a keyed BLAKE3 hash, and caches the result for the process
// lifetime. The cache is initialized at most once, including under
// concurrent first use, and is never re-evaluated.
//
// [HashFile] is exposed separately for tools that need to fingerprint
// a binary other than their own (e.g. checking whether a stored
// checkpoint belongs to a binary sitting in a release directory).
package binident
