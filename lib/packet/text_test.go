// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/heappack/heappack/lib/binident"
)

// encodeIntList is shared setup: serialize [1,2,3] and text-encode it.
func encodeIntList(t *testing.T) (*Service, []byte) {
	t.Helper()
	s := NewService(nil)
	p, err := TrySerialize(s, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("TrySerialize: %v", err)
	}
	data, err := EncodeText(p)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	return s, data
}

func TestTextEndToEnd(t *testing.T) {
	s, data := encodeIntList(t)

	p, err := DecodeText[[]int](data)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	restored, err := Deserialize(s, p)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(restored) != 3 || restored[0] != 1 || restored[1] != 2 || restored[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", restored)
	}
}

func TestTextFormat(t *testing.T) {
	_, data := encodeIntList(t)
	text := string(data)

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("record has %d lines:\n%s", len(lines), text)
	}

	current, err := binident.Current()
	if err != nil {
		t.Fatalf("binident.Current: %v", err)
	}
	if !strings.HasPrefix(lines[0], "Serialization Packet, size ") {
		t.Errorf("header line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], ", program "+current.String()) {
		t.Errorf("header line does not carry the current binary fingerprint: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], ", type ") {
		t.Errorf("type line: %q", lines[1])
	}

	// Rows: index prefix, then up to four 0x-prefixed 16-digit words.
	for i, line := range lines[2:] {
		index, wordsText, ok := strings.Cut(line, ":")
		if !ok {
			t.Fatalf("row %d has no index: %q", i, line)
		}
		if index != fmt.Sprint(i*4) {
			t.Errorf("row %d has index %s, want %d", i, index, i*4)
		}
		words := strings.Split(wordsText, "\t")[1:]
		if len(words) == 0 || len(words) > 4 {
			t.Errorf("row %d carries %d words", i, len(words))
		}
		for _, word := range words {
			if len(word) != 18 || !strings.HasPrefix(word, "0x") {
				t.Errorf("row %d: malformed word %q", i, word)
			}
		}
	}
}

func TestTextReparseYieldsIdenticalRecord(t *testing.T) {
	_, data := encodeIntList(t)

	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	reencoded, err := Transcode(data, EncodingText)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if string(reencoded) != string(data) {
		t.Errorf("re-encode differs from original:\n%s\nvs\n%s", reencoded, data)
	}

	current, err := binident.Current()
	if err != nil {
		t.Fatalf("binident.Current: %v", err)
	}
	if info.Program != current {
		t.Errorf("Inspect program = %v, want %v", info.Program, current)
	}
	if info.Encoding != EncodingText {
		t.Errorf("Inspect encoding = %v, want text", info.Encoding)
	}
}

func TestTextBinaryMismatchRejected(t *testing.T) {
	_, data := encodeIntList(t)
	current, err := binident.Current()
	if err != nil {
		t.Fatalf("binident.Current: %v", err)
	}

	foreign := flipFingerprintHex(current.String())
	tampered := strings.Replace(string(data), current.String(), foreign, 1)

	_, err = DecodeText[[]int]([]byte(tampered))
	if !errors.Is(err, ErrBinaryMismatch) {
		t.Fatalf("err = %v, want ErrBinaryMismatch", err)
	}
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatal("error does not expose MismatchError details")
	}
	if mismatch.Record.String() != foreign || mismatch.Current != current {
		t.Errorf("mismatch details: record %v, current %v", mismatch.Record, mismatch.Current)
	}
}

func TestTextTypeMismatchRejected(t *testing.T) {
	_, data := encodeIntList(t)

	// Same bytes, requested as the wrong type.
	if _, err := DecodeText[string](data); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
	// The right type still works.
	if _, err := DecodeText[[]int](data); err != nil {
		t.Errorf("decode with matching type failed: %v", err)
	}
}

func TestTextSizeMismatchIsParseError(t *testing.T) {
	_, data := encodeIntList(t)
	text := string(data)

	// Declare one word more than the record carries.
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	declared := fmt.Sprintf("size %d", len(info.Words))
	inflated := fmt.Sprintf("size %d", len(info.Words)+1)
	tampered := strings.Replace(text, declared, inflated, 1)

	if _, err := DecodeText[[]int]([]byte(tampered)); !errors.Is(err, ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestTextValidationOrder(t *testing.T) {
	_, data := encodeIntList(t)
	current, err := binident.Current()
	if err != nil {
		t.Fatalf("binident.Current: %v", err)
	}
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	// Wrong binary AND wrong size: the binary check fires first.
	tampered := strings.Replace(string(data), current.String(), flipFingerprintHex(current.String()), 1)
	tampered = strings.Replace(tampered,
		fmt.Sprintf("size %d", len(info.Words)),
		fmt.Sprintf("size %d", len(info.Words)+1), 1)
	if _, err := DecodeText[[]int]([]byte(tampered)); !errors.Is(err, ErrBinaryMismatch) {
		t.Errorf("err = %v, want ErrBinaryMismatch before the size check", err)
	}

	// Wrong size AND wrong type: the size check fires first.
	inflated := strings.Replace(string(data),
		fmt.Sprintf("size %d", len(info.Words)),
		fmt.Sprintf("size %d", len(info.Words)+1), 1)
	if _, err := DecodeText[string]([]byte(inflated)); !errors.Is(err, ErrParse) {
		t.Errorf("err = %v, want ErrParse before the type check", err)
	}
}

func TestTextMalformedRecords(t *testing.T) {
	_, data := encodeIntList(t)
	text := string(data)

	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not a record at all\n"},
		{"missing type line", strings.SplitAfter(text, "\n")[0]},
		{"truncated row", text[:len(text)-6]},
		{"duplicated row", text + strings.SplitAfter(text, "\n")[2]},
		{"non-hex word", strings.Replace(text, "0x", "0z", 1)},
		{"short fingerprint", strings.Replace(text, ", type ", ", type abc", 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeText[[]int]([]byte(tc.input)); !errors.Is(err, ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
		})
	}
}

// flipFingerprintHex produces a valid but different 32-digit hex
// string from one.
func flipFingerprintHex(s string) string {
	replacement := byte('0')
	if s[0] == '0' {
		replacement = '1'
	}
	return string(replacement) + s[1:]
}
