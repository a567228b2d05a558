// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/heappack/heappack/lib/fingerprint"
)

// The text encoding is a line-oriented record meant to be read by
// eye as much as by machine:
//
//	Serialization Packet, size 5, program 6ee6...e06a
//	, type 86b2...9d01
//	0:	0x0000000000000021	0x83010203a1616b01	0x00000000deadbeef	0x0123456789abcdef
//	4:	0x00000000000000ff
//
// Four words per row, each 0x-prefixed and zero-padded to the full
// word width, tab-separated, with each row prefixed by its starting
// word index. Parsing is strict: a record that is short, long, or
// reordered fails rather than being repaired.

const textHeaderPrefix = "Serialization Packet, size "

const wordsPerRow = 4

// EncodeText encodes a packet as a text record stamped with this
// process's binary fingerprint and T's type fingerprint.
func EncodeText[T any](p *Packet[T]) ([]byte, error) {
	rec, err := currentRecord(p)
	if err != nil {
		return nil, err
	}
	return rec.encodeText(), nil
}

// DecodeText parses and validates a text record, yielding a Packet
// ready for Deserialize. Validation order is fixed: structural parse,
// binary identity, word count, type identity. The identity checks run
// before any graph reconstruction is possible.
func DecodeText[T any](data []byte) (*Packet[T], error) {
	rec, declared, err := parseText(data)
	if err != nil {
		return nil, err
	}
	return buildPacket[T](rec, declared)
}

func (rec record) encodeText() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%d, program %s\n", textHeaderPrefix, len(rec.words), rec.program)
	fmt.Fprintf(&buf, ", type %s\n", rec.typ)
	for start := 0; start < len(rec.words); start += wordsPerRow {
		fmt.Fprintf(&buf, "%d:", start)
		for _, word := range rec.words[start:min(start+wordsPerRow, len(rec.words))] {
			fmt.Fprintf(&buf, "\t0x%016x", word)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// parseText performs the structural parse only. It returns the
// declared word count separately so the caller can sequence the
// count check after the binary identity check.
func parseText(data []byte) (record, uint64, error) {
	lines := strings.Split(string(data), "\n")
	// A well-formed record ends in a newline, leaving one empty
	// trailing element.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 2 {
		return record{}, 0, parseErrorf("record has %d lines, want at least 2", len(lines))
	}

	rest, ok := strings.CutPrefix(lines[0], textHeaderPrefix)
	if !ok {
		return record{}, 0, parseErrorf("header line does not start with %q", textHeaderPrefix)
	}
	sizeText, programText, ok := strings.Cut(rest, ", program ")
	if !ok {
		return record{}, 0, parseErrorf("header line has no program field")
	}
	declared, err := strconv.ParseUint(sizeText, 10, 64)
	if err != nil {
		return record{}, 0, parseErrorf("header size %q: %v", sizeText, err)
	}
	var rec record
	if rec.program, err = parseFingerprintField(programText); err != nil {
		return record{}, 0, parseErrorf("header program fingerprint: %v", err)
	}

	typeText, ok := strings.CutPrefix(lines[1], ", type ")
	if !ok {
		return record{}, 0, parseErrorf("second line does not start with %q", ", type ")
	}
	if rec.typ, err = parseFingerprintField(typeText); err != nil {
		return record{}, 0, parseErrorf("type fingerprint: %v", err)
	}

	for _, line := range lines[2:] {
		if err := rec.parseRow(line); err != nil {
			return record{}, 0, err
		}
	}
	return rec, declared, nil
}

// parseRow parses one word row and appends its words. The row's
// index prefix must equal the number of words already parsed, which
// rejects reordered, duplicated, or dropped rows.
func (rec *record) parseRow(line string) error {
	indexText, wordsText, ok := strings.Cut(line, ":")
	if !ok {
		return parseErrorf("row %q has no index prefix", line)
	}
	index, err := strconv.ParseUint(indexText, 10, 64)
	if err != nil {
		return parseErrorf("row index %q: %v", indexText, err)
	}
	if index != uint64(len(rec.words)) {
		return parseErrorf("row index %d, want %d", index, len(rec.words))
	}

	fields := strings.Split(wordsText, "\t")
	// The index prefix is followed by a tab, so the first field is
	// empty.
	if len(fields) < 2 || fields[0] != "" {
		return parseErrorf("row %d carries no words", index)
	}
	fields = fields[1:]
	if len(fields) > wordsPerRow {
		return parseErrorf("row %d carries %d words, max %d", index, len(fields), wordsPerRow)
	}
	for _, field := range fields {
		digits, ok := strings.CutPrefix(field, "0x")
		if !ok || len(digits) != 16 {
			return parseErrorf("row %d: malformed word %q", index, field)
		}
		word, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return parseErrorf("row %d: word %q: %v", index, field, err)
		}
		rec.words = append(rec.words, word)
	}
	return nil
}

// parseFingerprintField parses a 32-digit hex fingerprint occupying
// the remainder of a header line.
func parseFingerprintField(s string) (fingerprint.Fingerprint, error) {
	return fingerprint.Parse(s)
}
