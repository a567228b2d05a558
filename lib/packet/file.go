// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"fmt"
	"os"
)

// File wrappers combine serialization with a codec and storage access
// in one call. They add no semantics of their own: the encode side is
// TrySerialize then encode then write, the decode side is read then
// decode then Deserialize. Read failures on the decode path surface
// as ErrParse — from the caller's point of view an unreadable record
// and an unparseable record are the same condition.

// EncodeTextFile serializes value and writes it to path as a text
// record.
func EncodeTextFile[T any](s *Service, path string, value T) error {
	p, err := TrySerialize(s, value)
	if err != nil {
		return err
	}
	data, err := EncodeText(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// DecodeTextFile reads a text record from path, validates it, and
// reconstructs the value.
func DecodeTextFile[T any](s *Service, path string) (T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, parseErrorf("reading %s: %v", path, err)
	}
	p, err := DecodeText[T](data)
	if err != nil {
		return zero, err
	}
	return Deserialize(s, p)
}

// EncodeBinaryFile serializes value and writes it to path as a
// binary record.
func EncodeBinaryFile[T any](s *Service, path string, value T) error {
	p, err := TrySerialize(s, value)
	if err != nil {
		return err
	}
	data, err := EncodeBinary(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// DecodeBinaryFile reads a binary record from path, validates it,
// and reconstructs the value.
func DecodeBinaryFile[T any](s *Service, path string) (T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, parseErrorf("reading %s: %v", path, err)
	}
	p, err := DecodeBinary[T](data)
	if err != nil {
		return zero, err
	}
	return Deserialize(s, p)
}
