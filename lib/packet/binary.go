// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"encoding/binary"

	"github.com/heappack/heappack/lib/fingerprint"
)

// The binary encoding is a fixed layout, big-endian throughout:
//
//	magic+version   8 bytes
//	program         16 bytes
//	type            16 bytes
//	word count      8 bytes
//	payload words   count * 8 bytes
//
// The magic word lets a structurally damaged or misrouted file fail
// as ErrParse instead of as a fingerprint mismatch against garbage.
// Intended for compact storage and transport within one binary, not
// for cross-binary portability.

// binaryMagic identifies a binary record, with a format version in
// the fifth byte. Bump the version on any layout change.
var binaryMagic = [8]byte{'h', 'p', 'a', 'k', 0x01, 0x00, 0x00, 0x00}

const binaryHeaderSize = len(binaryMagic) + 16 + 16 + 8

// EncodeBinary encodes a packet as a binary record stamped with this
// process's binary fingerprint and T's type fingerprint.
func EncodeBinary[T any](p *Packet[T]) ([]byte, error) {
	rec, err := currentRecord(p)
	if err != nil {
		return nil, err
	}
	return rec.encodeBinary(), nil
}

// DecodeBinary parses and validates a binary record, yielding a
// Packet ready for Deserialize. Validation semantics and order are
// identical to DecodeText: structural parse, binary identity, word
// count, type identity.
func DecodeBinary[T any](data []byte) (*Packet[T], error) {
	rec, declared, err := parseBinary(data)
	if err != nil {
		return nil, err
	}
	return buildPacket[T](rec, declared)
}

func (rec record) encodeBinary() []byte {
	out := make([]byte, 0, binaryHeaderSize+8*len(rec.words))
	out = append(out, binaryMagic[:]...)

	program := rec.program.Bytes()
	out = append(out, program[:]...)
	typ := rec.typ.Bytes()
	out = append(out, typ[:]...)

	out = binary.BigEndian.AppendUint64(out, uint64(len(rec.words)))
	for _, word := range rec.words {
		out = binary.BigEndian.AppendUint64(out, word)
	}
	return out
}

// parseBinary performs the structural parse only: header layout and
// word alignment. The declared count is returned separately so the
// caller can sequence the count check after the binary identity
// check.
func parseBinary(data []byte) (record, uint64, error) {
	if len(data) < binaryHeaderSize {
		return record{}, 0, parseErrorf("binary record is %d bytes, header alone is %d", len(data), binaryHeaderSize)
	}
	if [8]byte(data[:8]) != binaryMagic {
		return record{}, 0, parseErrorf("bad magic % x", data[:8])
	}

	var rec record
	rec.program = fingerprintAt(data, 8)
	rec.typ = fingerprintAt(data, 24)
	declared := binary.BigEndian.Uint64(data[40:48])

	body := data[binaryHeaderSize:]
	if len(body)%8 != 0 {
		return record{}, 0, parseErrorf("payload is %d bytes, not word-aligned", len(body))
	}
	rec.words = payloadWords(body)
	return rec, declared, nil
}

func fingerprintAt(data []byte, offset int) fingerprint.Fingerprint {
	return fingerprint.FromDigest(data[offset : offset+fingerprint.Size])
}
