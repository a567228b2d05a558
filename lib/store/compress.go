// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression algorithm applied to a
// stored record. Tags are recorded in the manifest (1 byte each).
// These values are format constants — changing them breaks existing
// store directories.
type CompressionTag uint8

const (
	// CompressionNone stores the record bytes verbatim. Also used as
	// the fallback when the configured algorithm cannot make the
	// record smaller.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression. The default: record
	// payloads are CBOR node tables with a lot of small-integer
	// structure, which LZ4 shrinks well at negligible CPU cost.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at its default level. Better ratios
	// for large records at more CPU; worth it for stores that are
	// written rarely and read often.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's manifest name.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a tag from its manifest name.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// errIncompressible reports that compression could not beat the
// input size. Callers fall back to CompressionNone.
var errIncompressible = fmt.Errorf("data is incompressible")

// zstdEncoder and zstdDecoder are reused across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// compress applies the configured algorithm to a record, falling back
// to CompressionNone when the output would not be smaller. It returns
// the bytes to store and the tag actually used.
func compress(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	var compressed []byte
	var err error

	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported compression tag: %d", tag)
	}

	if err == errIncompressible {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, tag, nil
}

// decompress reverses compress. The payloadSize must match the
// original record length exactly; a mismatch is an error.
func decompress(stored []byte, tag CompressionTag, payloadSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != payloadSize {
			return nil, fmt.Errorf("uncompressed record: size %d does not match expected %d",
				len(stored), payloadSize)
		}
		return stored, nil

	case CompressionLZ4:
		destination := make([]byte, payloadSize)
		read, err := lz4.UncompressBlock(stored, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != payloadSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, payloadSize)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, payloadSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != payloadSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), payloadSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when it determines the data is
	// incompressible.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}
