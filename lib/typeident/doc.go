// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package typeident fingerprints Go types by their runtime
// descriptors.
//
// [Of] walks a reflect.Type structurally — kind, package path, name,
// and the full shape of elements, fields (including tags), keys,
// parameters, and methods — and hashes the walk with a keyed BLAKE3
// digest. Recursive types are handled with back-references, so the
// walk terminates and two structurally identical recursive types hash
// identically.
//
// The resulting fingerprint is deterministic within one compiled
// binary and changes whenever the type's definition changes, even if
// its name does not. It is not stable across binaries in general (a
// type referring to another package's type picks up that type's
// shape too), which is exactly the property packet decoding relies
// on: a record is only accepted by the same binary, for the same
// type, that produced it.
//
// Fingerprints are cheap to compute and idempotent; there is no
// global cache. [For] is the generic convenience over [Of].
package typeident
