// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time for testability.
//
// The checkpoint store records when each entry was written; tests
// asserting on manifest contents need those timestamps to be
// deterministic. Production code injects [Real]; tests inject [Fake]
// and advance it explicitly. Only Now is abstracted — nothing in
// heappack sleeps, ticks, or schedules.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by time.Now.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// FakeClock is a Clock whose time only moves when told to. Safe for
// concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Fake returns a FakeClock frozen at start.
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
