// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heappack/heappack/lib/clock"
	"github.com/heappack/heappack/lib/packet"
)

func testStore(t *testing.T, compression string) (*Store, *packet.Service) {
	t.Helper()
	st, err := Open(&Options{
		Dir:         t.TempDir(),
		Compression: compression,
		Clock:       clock.Fake(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return st, packet.NewService(nil)
}

func mustSerialize[T any](t *testing.T, svc *packet.Service, value T) *packet.Packet[T] {
	t.Helper()
	p, err := packet.TrySerialize(svc, value)
	if err != nil {
		t.Fatalf("TrySerialize: %v", err)
	}
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, svc := testStore(t, "")

	if err := Save(st, "squares", mustSerialize(t, svc, []int{1, 4, 9})); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load[[]int](st, "squares")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	restored, err := packet.Deserialize(svc, loaded)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(restored) != 3 || restored[2] != 9 {
		t.Errorf("got %v, want [1 4 9]", restored)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	svc := packet.NewService(nil)

	st, err := Open(&Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := Save(st, "value", mustSerialize(t, svc, 42)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(&Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	loaded, err := Load[int](reopened, "value")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	restored, err := packet.Deserialize(svc, loaded)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if restored != 42 {
		t.Errorf("got %d, want 42", restored)
	}
}

func TestCompressionShrinksRepetitiveRecords(t *testing.T) {
	for _, compression := range []string{"lz4", "zstd"} {
		t.Run(compression, func(t *testing.T) {
			st, svc := testStore(t, compression)

			big := make([]int, 4096)
			p := mustSerialize(t, svc, big)
			record, err := packet.EncodeBinary(p)
			if err != nil {
				t.Fatalf("EncodeBinary: %v", err)
			}
			if err := Save(st, "zeros", p); err != nil {
				t.Fatalf("Save: %v", err)
			}

			st.mu.Lock()
			ent := st.entries["zeros"]
			st.mu.Unlock()
			if ent.StoredSize >= int64(len(record)) {
				t.Errorf("stored %d bytes for a %d-byte record", ent.StoredSize, len(record))
			}

			loaded, err := Load[[]int](st, "zeros")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			restored, err := packet.Deserialize(svc, loaded)
			if err != nil {
				t.Fatalf("Deserialize: %v", err)
			}
			if len(restored) != 4096 {
				t.Errorf("restored %d elements", len(restored))
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	st, _ := testStore(t, "")
	if _, err := Load[int](st, "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadWrongType(t *testing.T) {
	st, svc := testStore(t, "")
	if err := Save(st, "value", mustSerialize(t, svc, []int{1})); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load[string](st, "value"); !errors.Is(err, packet.ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestLoadCorruptBlob(t *testing.T) {
	st, svc := testStore(t, "none")
	if err := Save(st, "value", mustSerialize(t, svc, []int{1, 2})); err != nil {
		t.Fatalf("Save: %v", err)
	}

	blobs, err := filepath.Glob(filepath.Join(st.dir, "*.rec"))
	if err != nil || len(blobs) != 1 {
		t.Fatalf("blob files: %v (%v)", blobs, err)
	}
	data, err := os.ReadFile(blobs[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(blobs[0], data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load[[]int](st, "value"); !errors.Is(err, packet.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestDelete(t *testing.T) {
	st, svc := testStore(t, "")
	if err := Save(st, "value", mustSerialize(t, svc, 1)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Delete("value"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Load[int](st, "value"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete: %v, want ErrNotFound", err)
	}
	if err := st.Delete("value"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v, want ErrNotFound", err)
	}
}

func TestNamesSorted(t *testing.T) {
	st, svc := testStore(t, "")
	for _, name := range []string{"c", "a", "b"} {
		if err := Save(st, name, mustSerialize(t, svc, 1)); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}
	names := st.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Names() = %v", names)
	}
}

func TestInvalidNamesRejected(t *testing.T) {
	st, svc := testStore(t, "")
	p := mustSerialize(t, svc, 1)
	for _, name := range []string{"", "a/b", "../escape"} {
		if err := Save(st, name, p); err == nil {
			t.Errorf("Save(%q) succeeded, want error", name)
		}
	}
}

func TestOpenRejectsCorruptManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte("junk"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(&Options{Dir: dir}); err == nil {
		t.Error("Open succeeded on a corrupt manifest")
	}
}

func TestLoadOptionsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	content := "dir: /tmp/checkpoints\ncompression: zstd\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.Dir != "/tmp/checkpoints" || opts.Compression != "zstd" {
		t.Errorf("parsed %+v", opts)
	}

	tag, _, err := opts.normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if tag != CompressionZstd {
		t.Errorf("tag = %v, want zstd", tag)
	}
}

func TestMemoizeComputesOnce(t *testing.T) {
	st, svc := testStore(t, "")

	calls := 0
	compute := func() ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	first, err := Memoize(st, svc, "memo", compute)
	if err != nil {
		t.Fatalf("first Memoize: %v", err)
	}
	second, err := Memoize(st, svc, "memo", compute)
	if err != nil {
		t.Fatalf("second Memoize: %v", err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	if len(first) != 3 || len(second) != 3 || second[2] != 3 {
		t.Errorf("values: %v, %v", first, second)
	}
}

func TestMemoizeRecomputesOnCorruptRecord(t *testing.T) {
	st, svc := testStore(t, "none")

	calls := 0
	compute := func() (int, error) {
		calls++
		return 7, nil
	}

	if _, err := Memoize(st, svc, "memo", compute); err != nil {
		t.Fatalf("Memoize: %v", err)
	}

	blobs, err := filepath.Glob(filepath.Join(st.dir, "*.rec"))
	if err != nil || len(blobs) != 1 {
		t.Fatalf("blob files: %v (%v)", blobs, err)
	}
	if err := os.WriteFile(blobs[0], []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	value, err := Memoize(st, svc, "memo", compute)
	if err != nil {
		t.Fatalf("Memoize after corruption: %v", err)
	}
	if value != 7 || calls != 2 {
		t.Errorf("value %d after %d calls, want 7 after 2", value, calls)
	}
}

func TestMemoizePropagatesComputeError(t *testing.T) {
	st, svc := testStore(t, "")

	boom := errors.New("boom")
	if _, err := Memoize(st, svc, "memo", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, err := Load[int](st, "memo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed compute left a record: %v", err)
	}
}
