// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint provides the 128-bit opaque identity value used
// throughout heappack.
//
// A [Fingerprint] is two unsigned 64-bit words with equality as its
// only meaningful operation. Heappack uses fingerprints for two
// identities: the running executable's file contents (lib/binident)
// and a type's runtime descriptor (lib/typeident). Both are embedded
// in every encoded packet record and compared on decode, so a buffer
// produced by a different binary — or packed from a different type —
// is rejected before any graph reconstruction is attempted.
//
// The API surface:
//
//   - [Fingerprint] -- comparable value type; use == for equality
//   - [Fingerprint.String] -- canonical 32-digit lowercase hex form,
//     used in text records, manifests, and log output
//   - [Parse] -- parses the canonical hex form back, validating
//     length and encoding
//   - [FromDigest] -- derives a Fingerprint from the leading 16 bytes
//     of a hash digest
//
// No ordering, bucketing, or arithmetic is defined on fingerprints.
// This package has no dependencies on other heappack packages.
package fingerprint
