// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"github.com/heappack/heappack/lib/packet"
)

// Memoize returns the value stored under name, or computes, stores,
// and returns it. A stored record that fails validation for any
// reason — absent, corrupt, written by a different build of the
// program, or written for a different type — is treated as a miss
// and recomputed, so a store directory survives binary upgrades
// without manual invalidation.
//
// Errors from compute are returned as-is and nothing is stored. A
// failure to persist the freshly computed value is logged and
// swallowed: the memo is an optimization, and the caller still gets
// the value.
func Memoize[T any](st *Store, svc *packet.Service, name string, compute func() (T, error)) (T, error) {
	if p, err := Load[T](st, name); err == nil {
		value, err := packet.Deserialize(svc, p)
		if err == nil {
			st.log("memo hit", "name", name)
			return value, nil
		}
		st.warn("memo record failed to deserialize", "name", name, "error", err.Error())
	} else if err != ErrNotFound {
		st.warn("memo record rejected", "name", name, "error", err.Error())
	}

	value, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}

	p, err := packet.TrySerialize(svc, value)
	if err != nil {
		st.warn("memo value not serializable", "name", name, "error", err.Error())
		return value, nil
	}
	if err := Save(st, name, p); err != nil {
		st.warn("memo write failed", "name", name, "error", err.Error())
	}
	return value, nil
}
