// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"errors"
	"testing"
	"time"

	"github.com/heappack/heappack/lib/graph"
	"github.com/heappack/heappack/lib/testutil"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := NewService(nil)

	p, err := TrySerialize(s, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("TrySerialize: %v", err)
	}
	if p.WordCount() == 0 {
		t.Error("packet has zero words")
	}

	restored, err := Deserialize(s, p)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(restored) != 3 || restored[0] != 1 || restored[1] != 2 || restored[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", restored)
	}
}

func TestDeserializeTwiceYieldsIndependentGraphs(t *testing.T) {
	s := NewService(nil)
	type box struct{ N *int }
	n := 7

	p, err := TrySerialize(s, box{N: &n})
	if err != nil {
		t.Fatalf("TrySerialize: %v", err)
	}

	first, err := Deserialize(s, p)
	if err != nil {
		t.Fatalf("first Deserialize: %v", err)
	}
	second, err := Deserialize(s, p)
	if err != nil {
		t.Fatalf("second Deserialize: %v", err)
	}

	*first.N = 100
	if *second.N != 7 {
		t.Error("graphs from repeated Deserialize share cells")
	}
}

func TestTrySerializeCannotPack(t *testing.T) {
	s := NewService(nil)
	type withChan struct{ C chan int }

	p, err := TrySerialize(s, withChan{C: make(chan int)})
	if !errors.Is(err, ErrCannotPack) {
		t.Errorf("err = %v, want ErrCannotPack", err)
	}
	if p != nil {
		t.Error("failed TrySerialize returned a packet")
	}
}

func TestTrySerializeUnsupported(t *testing.T) {
	s := NewService(nil)
	type withFunc struct{ F func() }

	if _, err := TrySerialize(s, withFunc{F: func() {}}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestTrySerializeNoBuffer(t *testing.T) {
	s := NewService(graph.New(graph.Options{MaxBufferBytes: 32}))

	if _, err := TrySerialize(s, make([]int, 1000)); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("err = %v, want ErrNoBuffer", err)
	}
}

func TestTrySerializeBlackHoleDoesNotBlock(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	graph.RegisterRecipe("packet.test-blackhole", func(args ...any) (any, error) {
		close(entered)
		<-release
		return "slow", nil
	})
	defer close(release)

	thunk := graph.NewThunk("packet.test-blackhole")
	go thunk.Force()
	testutil.RequireClosed(t, entered, 5*time.Second, "recipe should start")

	s := NewService(nil)
	result := make(chan error, 1)
	go func() {
		_, err := TrySerialize(s, thunk)
		result <- err
	}()

	err := testutil.RequireReceive(t, result, 5*time.Second,
		"TrySerialize should return while the evaluation is still parked")
	if !errors.Is(err, ErrBlackHole) {
		t.Errorf("err = %v, want ErrBlackHole", err)
	}
}

func TestDeserializeGarbled(t *testing.T) {
	s := NewService(nil)
	// Hand-build a packet with a structurally damaged payload; only
	// this package can do that, which is the point of the opaque
	// payload.
	p := &Packet[int]{payload: []byte{0, 0, 0, 0, 0, 0, 0, 4, 'j', 'u', 'n', 'k', 0, 0, 0, 0}}

	if _, err := Deserialize(s, p); !errors.Is(err, ErrGarbled) {
		t.Errorf("err = %v, want ErrGarbled", err)
	}
}
