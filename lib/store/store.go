// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/heappack/heappack/lib/cborenc"
	"github.com/heappack/heappack/lib/clock"
	"github.com/heappack/heappack/lib/packet"
)

// ErrNotFound reports that no record is stored under the requested
// name.
var ErrNotFound = errors.New("record not found in store")

// digestDomainKey is the keyed-hash domain for stored blobs. Blob
// digests must never collide with fingerprint domains, so the store
// hashes under its own key.
var digestDomainKey = [32]byte{'h', 'e', 'a', 'p', 'p', 'a', 'c', 'k', '.', 's', 't', 'o', 'r', 'e'}

const manifestFile = "manifest.cbor"

// entry is one manifest row. StoredSize and Digest describe the blob
// file as written (post-compression); RecordSize is the decompressed
// record length.
type entry struct {
	File        string         `cbor:"f"`
	StoredSize  int64          `cbor:"s"`
	RecordSize  int64          `cbor:"r"`
	Compression CompressionTag `cbor:"c"`
	Digest      []byte         `cbor:"d"`
	Created     time.Time      `cbor:"t"`
}

type manifest struct {
	Entries map[string]entry `cbor:"e"`
}

// Store is a directory of compressed, digest-checked serialization
// records addressed by symbolic name. Safe for concurrent use.
type Store struct {
	dir         string
	compression CompressionTag
	clock       clock.Clock
	logger      *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

// Open opens (creating if necessary) the store directory named by
// opts and loads its manifest.
func Open(opts *Options) (*Store, error) {
	tag, clk, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	st := &Store{
		dir:         opts.Dir,
		compression: tag,
		clock:       clk,
		logger:      opts.Logger,
		entries:     map[string]entry{},
	}

	data, err := os.ReadFile(filepath.Join(opts.Dir, manifestFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fresh store.
	case err != nil:
		return nil, fmt.Errorf("reading store manifest: %w", err)
	default:
		var m manifest
		if err := cborenc.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing store manifest: %w", err)
		}
		if m.Entries != nil {
			st.entries = m.Entries
		}
	}
	return st, nil
}

// Names returns the names of all stored records, sorted.
func (st *Store) Names() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	names := make([]string, 0, len(st.entries))
	for name := range st.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Delete removes the record stored under name. Deleting an absent
// name reports ErrNotFound.
func (st *Store) Delete(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	ent, ok := st.entries[name]
	if !ok {
		return ErrNotFound
	}
	delete(st.entries, name)
	if err := st.writeManifestLocked(); err != nil {
		return err
	}
	// Blob removal is best-effort: the manifest is authoritative.
	os.Remove(filepath.Join(st.dir, ent.File))
	st.log("deleted record", "name", name)
	return nil
}

// put stores an encoded record under name, replacing any previous
// record with that name.
func (st *Store) put(name string, record []byte) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid record name %q", name)
	}

	stored, tag, err := compress(record, st.compression)
	if err != nil {
		return fmt.Errorf("compressing record %q: %w", name, err)
	}
	digest := blobDigest(stored)
	file := hex.EncodeToString(digest[:16]) + ".rec"

	if err := os.WriteFile(filepath.Join(st.dir, file), stored, 0o644); err != nil {
		return fmt.Errorf("writing record %q: %w", name, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	previous, replaced := st.entries[name]
	st.entries[name] = entry{
		File:        file,
		StoredSize:  int64(len(stored)),
		RecordSize:  int64(len(record)),
		Compression: tag,
		Digest:      digest[:],
		Created:     st.clock.Now(),
	}
	if err := st.writeManifestLocked(); err != nil {
		return err
	}
	if replaced && previous.File != file {
		os.Remove(filepath.Join(st.dir, previous.File))
	}

	st.log("stored record",
		"name", name,
		"record_bytes", len(record),
		"stored_bytes", len(stored),
		"compression", tag.String(),
	)
	return nil
}

// get retrieves and verifies the encoded record stored under name.
func (st *Store) get(name string) ([]byte, error) {
	st.mu.Lock()
	ent, ok := st.entries[name]
	st.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	stored, err := os.ReadFile(filepath.Join(st.dir, ent.File))
	if err != nil {
		return nil, &packet.ParseError{Detail: fmt.Sprintf("reading record %q: %v", name, err)}
	}
	digest := blobDigest(stored)
	if string(digest[:]) != string(ent.Digest) {
		return nil, &packet.ParseError{Detail: fmt.Sprintf("record %q does not match its stored digest", name)}
	}
	record, err := decompress(stored, ent.Compression, int(ent.RecordSize))
	if err != nil {
		return nil, &packet.ParseError{Detail: fmt.Sprintf("record %q: %v", name, err)}
	}
	return record, nil
}

// writeManifestLocked persists the manifest. Callers hold st.mu. The
// write goes through a temporary file so a crash never leaves a
// half-written manifest.
func (st *Store) writeManifestLocked() error {
	data, err := cborenc.Marshal(manifest{Entries: st.entries})
	if err != nil {
		return fmt.Errorf("encoding store manifest: %w", err)
	}
	path := filepath.Join(st.dir, manifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing store manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing store manifest: %w", err)
	}
	return nil
}

func (st *Store) log(msg string, args ...any) {
	if st.logger != nil {
		st.logger.Info(msg, args...)
	}
}

func (st *Store) warn(msg string, args ...any) {
	if st.logger != nil {
		st.logger.Warn(msg, args...)
	}
}

func blobDigest(data []byte) [32]byte {
	hasher, err := blake3.NewKeyed(digestDomainKey[:])
	if err != nil {
		panic("store: keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest [32]byte
	hasher.Sum(digest[:0])
	return digest
}

// Save encodes a packet into the store's binary wire form and stores
// it under name.
func Save[T any](st *Store, name string, p *packet.Packet[T]) error {
	record, err := packet.EncodeBinary(p)
	if err != nil {
		return err
	}
	return st.put(name, record)
}

// Load retrieves the packet stored under name. The record passes the
// full decode validation: a record written by a different build of
// the program reports packet.ErrBinaryMismatch, and one written for a
// different type reports packet.ErrTypeMismatch.
func Load[T any](st *Store, name string) (*packet.Packet[T], error) {
	record, err := st.get(name)
	if err != nil {
		return nil, err
	}
	return packet.DecodeBinary[T](record)
}
