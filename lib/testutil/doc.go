// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for heappack packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. The
// non-blocking properties of the pack path — a serialize attempt must
// return promptly even while another goroutine is mid-evaluation —
// are exactly the kind of assertion that hangs forever when it fails,
// so every cross-goroutine wait in the test suite goes through these
// helpers.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies on other heappack packages.
package testutil
