// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"fmt"

	"github.com/heappack/heappack/lib/graph"
)

// Service binds the packet protocol to a graph codec. A Service is
// stateless beyond its codec and safe for concurrent use; serialize
// and deserialize calls on independent values are independent
// transactions.
//
// The operations are free functions rather than methods because they
// are generic over the packed type, and Go methods cannot introduce
// type parameters.
type Service struct {
	codec graph.Codec
}

// NewService returns a Service using the given codec. A nil codec
// selects the reference codec with default options.
func NewService(codec graph.Codec) *Service {
	if codec == nil {
		codec = graph.New(graph.Options{})
	}
	return &Service{codec: codec}
}

// TrySerialize packs the graph rooted at value into a Packet. It
// never blocks the calling goroutine: a graph overlapping a
// computation that another goroutine is currently evaluating yields
// ErrBlackHole immediately. Exactly one of the packet and the error
// is non-nil.
func TrySerialize[T any](s *Service, value T) (*Packet[T], error) {
	status, buffer := s.codec.Pack(value)
	if status.Failed() {
		return nil, packErrorFor(status)
	}
	if len(buffer) == 0 || len(buffer)%graph.WordSize != 0 {
		return nil, fmt.Errorf("%w: codec produced a %d-byte buffer", ErrImpossible, len(buffer))
	}
	return &Packet[T]{payload: buffer}, nil
}

// Deserialize reconstructs a live value from a Packet. The packet's
// identities were validated when it was constructed, so the only
// failure the codec itself can raise here is structural damage
// (ErrGarbled) — or, for a buggy codec, ErrImpossible.
//
// Deserializing the same Packet again yields another independent
// graph.
func Deserialize[T any](s *Service, p *Packet[T]) (T, error) {
	var value T
	status := s.codec.Unpack(p.payload, &value)
	switch status {
	case graph.StatusOK:
		return value, nil
	case graph.StatusImpossible:
		var zero T
		return zero, fmt.Errorf("%w: unpack reported %v", ErrImpossible, status)
	default:
		var zero T
		return zero, fmt.Errorf("%w: unpack reported %v", ErrGarbled, status)
	}
}
