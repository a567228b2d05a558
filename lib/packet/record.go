// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/heappack/heappack/lib/binident"
	"github.com/heappack/heappack/lib/fingerprint"
	"github.com/heappack/heappack/lib/graph"
	"github.com/heappack/heappack/lib/typeident"
)

// record is the logical wire content shared by both encodings:
// producing binary, packed type, and the payload as machine words.
type record struct {
	program fingerprint.Fingerprint
	typ     fingerprint.Fingerprint
	words   []uint64
}

// payloadWords splits a word-aligned payload into big-endian words.
func payloadWords(payload []byte) []uint64 {
	words := make([]uint64, len(payload)/graph.WordSize)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(payload[i*graph.WordSize:])
	}
	return words
}

// wordsPayload is the exact inverse of payloadWords.
func wordsPayload(words []uint64) []byte {
	payload := make([]byte, len(words)*graph.WordSize)
	for i, word := range words {
		binary.BigEndian.PutUint64(payload[i*graph.WordSize:], word)
	}
	return payload
}

// currentRecord assembles the wire record for a packet produced in
// this process.
func currentRecord[T any](p *Packet[T]) (record, error) {
	program, err := binident.Current()
	if err != nil {
		return record{}, fmt.Errorf("resolving current binary fingerprint: %w", err)
	}
	return record{
		program: program,
		typ:     typeident.For[T](),
		words:   payloadWords(p.payload),
	}, nil
}

// buildPacket performs the decode-side validation shared by both
// codecs, in the required order: the record is already structurally
// parsed; now (2) binary identity, (3) declared word count, (4) type
// identity. Identity failures are raised here, before any graph
// reconstruction can be attempted — a Packet is only constructed once
// all checks pass.
func buildPacket[T any](rec record, declaredWords uint64) (*Packet[T], error) {
	current, err := binident.Current()
	if err != nil {
		return nil, fmt.Errorf("resolving current binary fingerprint: %w", err)
	}
	if rec.program != current {
		return nil, &MismatchError{Record: rec.program, Current: current, sentinel: ErrBinaryMismatch}
	}
	if uint64(len(rec.words)) != declaredWords {
		return nil, parseErrorf("record declares %d words but carries %d", declaredWords, len(rec.words))
	}
	want := typeident.For[T]()
	if rec.typ != want {
		return nil, &MismatchError{Record: rec.typ, Current: want, sentinel: ErrTypeMismatch}
	}
	return &Packet[T]{payload: wordsPayload(rec.words)}, nil
}

// Encoding identifies one of the two wire encodings.
type Encoding int

const (
	// EncodingText is the line-oriented, human-readable record form.
	EncodingText Encoding = iota

	// EncodingBinary is the fixed-layout compact record form.
	EncodingBinary
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingText:
		return "text"
	case EncodingBinary:
		return "binary"
	default:
		return fmt.Sprintf("unknown(%d)", int(e))
	}
}

// RecordInfo is the decoded header of a wire record, for inspection
// tooling. Unlike DecodeText and DecodeBinary, inspection performs no
// identity validation: tools routinely examine records produced by
// other binaries, and looking at a header materializes nothing.
type RecordInfo struct {
	// Encoding is the detected wire encoding.
	Encoding Encoding

	// Program is the fingerprint of the binary that produced the
	// record.
	Program fingerprint.Fingerprint

	// Type is the fingerprint of the packed type.
	Type fingerprint.Fingerprint

	// Words is the payload as machine words.
	Words []uint64
}

// Inspect structurally parses a wire record in either encoding,
// auto-detected. Structural failures (including a word count that
// disagrees with the declared size) report ErrParse; identities are
// not checked.
func Inspect(data []byte) (*RecordInfo, error) {
	encoding, rec, declared, err := parseAny(data)
	if err != nil {
		return nil, err
	}
	if uint64(len(rec.words)) != declared {
		return nil, parseErrorf("record declares %d words but carries %d", declared, len(rec.words))
	}
	return &RecordInfo{
		Encoding: encoding,
		Program:  rec.program,
		Type:     rec.typ,
		Words:    rec.words,
	}, nil
}

// Transcode re-encodes a wire record into the target encoding,
// carrying the embedded fingerprints through verbatim. Like Inspect,
// it performs no identity validation: converting a foreign record
// between encodings is a storage operation, not a reconstruction.
func Transcode(data []byte, to Encoding) ([]byte, error) {
	_, rec, declared, err := parseAny(data)
	if err != nil {
		return nil, err
	}
	if uint64(len(rec.words)) != declared {
		return nil, parseErrorf("record declares %d words but carries %d", declared, len(rec.words))
	}
	switch to {
	case EncodingText:
		return rec.encodeText(), nil
	case EncodingBinary:
		return rec.encodeBinary(), nil
	default:
		return nil, fmt.Errorf("unknown target encoding %v", to)
	}
}

// parseAny structurally parses either encoding, detecting which by
// the leading bytes.
func parseAny(data []byte) (Encoding, record, uint64, error) {
	if bytes.HasPrefix(data, []byte(textHeaderPrefix)) {
		rec, declared, err := parseText(data)
		return EncodingText, rec, declared, err
	}
	if bytes.HasPrefix(data, binaryMagic[:]) {
		rec, declared, err := parseBinary(data)
		return EncodingBinary, rec, declared, err
	}
	return 0, record{}, 0, parseErrorf("data is neither a text nor a binary serialization record")
}
