// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"github.com/heappack/heappack/lib/fingerprint"
	"github.com/heappack/heappack/lib/graph"
	"github.com/heappack/heappack/lib/typeident"
)

// Packet is a successfully packed graph of a value of type T. The
// payload is opaque and immutable: the only legal operations are
// encoding (EncodeText, EncodeBinary) and consumption (Deserialize).
//
// There is no public constructor. A Packet comes into existence in
// exactly two ways: a successful TrySerialize of a live T, or a
// decode whose embedded identities matched this process and this T.
// That invariant is what makes Deserialize safe without further
// checks.
type Packet[T any] struct {
	payload []byte
}

// WordCount returns the payload length in machine words.
func (p *Packet[T]) WordCount() int {
	return len(p.payload) / graph.WordSize
}

// TypeFingerprint returns the fingerprint of T. Recomputed on demand;
// type fingerprints are cheap and idempotent.
func (p *Packet[T]) TypeFingerprint() fingerprint.Fingerprint {
	return typeident.For[T]()
}
