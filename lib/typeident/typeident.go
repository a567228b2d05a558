// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package typeident

import (
	"encoding/binary"
	"reflect"

	"github.com/zeebo/blake3"

	"github.com/heappack/heappack/lib/fingerprint"
)

// typeDomainKey is the 32-byte key for BLAKE3 keyed hashing of type
// descriptors. Separate from the binary-hash domain so that the same
// byte sequence can never produce both a type fingerprint and a
// binary fingerprint.
var typeDomainKey = [32]byte{
	'h', 'e', 'a', 'p', 'p', 'a', 'c', 'k', '.',
	't', 'y', 'p', 'e',
}

// For returns the fingerprint of the type argument T.
func For[T any]() fingerprint.Fingerprint {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// Of returns the structural fingerprint of t.
func Of(t reflect.Type) fingerprint.Fingerprint {
	hasher, err := blake3.NewKeyed(typeDomainKey[:])
	if err != nil {
		panic("typeident: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	w := &descWalker{hasher: hasher, seen: make(map[reflect.Type]int)}
	w.writeType(t)
	return fingerprint.FromDigest(hasher.Sum(nil))
}

// descWalker streams an unambiguous encoding of a type descriptor
// into the hash. Every variable-length item is length-prefixed and
// every branch starts with a distinct tag byte, so no two distinct
// descriptors produce the same byte stream.
type descWalker struct {
	hasher *blake3.Hasher
	seen   map[reflect.Type]int
}

// Tags for non-kind items in the descriptor stream. Kind tags use the
// reflect.Kind value directly, offset so the two ranges cannot
// collide.
const (
	tagBackref byte = 0xf0
	tagKindBase byte = 0x01
)

func (w *descWalker) writeByte(b byte) {
	w.hasher.Write([]byte{b})
}

func (w *descWalker) writeInt(v int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	w.hasher.Write(buf[:])
}

func (w *descWalker) writeString(s string) {
	w.writeInt(len(s))
	w.hasher.Write([]byte(s))
}

func (w *descWalker) writeBool(b bool) {
	if b {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
}

func (w *descWalker) writeType(t reflect.Type) {
	// Recursive types terminate via back-references: the second time
	// a type appears on the walk it is written as its first-visit
	// ordinal instead of being expanded again.
	if ordinal, ok := w.seen[t]; ok {
		w.writeByte(tagBackref)
		w.writeInt(ordinal)
		return
	}
	w.seen[t] = len(w.seen)

	kind := t.Kind()
	w.writeByte(tagKindBase + byte(kind))
	w.writeString(t.PkgPath())
	w.writeString(t.Name())

	switch kind {
	case reflect.Pointer, reflect.Slice:
		w.writeType(t.Elem())

	case reflect.Array:
		w.writeInt(t.Len())
		w.writeType(t.Elem())

	case reflect.Map:
		w.writeType(t.Key())
		w.writeType(t.Elem())

	case reflect.Chan:
		w.writeInt(int(t.ChanDir()))
		w.writeType(t.Elem())

	case reflect.Func:
		w.writeInt(t.NumIn())
		for i := 0; i < t.NumIn(); i++ {
			w.writeType(t.In(i))
		}
		w.writeBool(t.IsVariadic())
		w.writeInt(t.NumOut())
		for i := 0; i < t.NumOut(); i++ {
			w.writeType(t.Out(i))
		}

	case reflect.Interface:
		w.writeInt(t.NumMethod())
		for i := 0; i < t.NumMethod(); i++ {
			method := t.Method(i)
			w.writeString(method.Name)
			w.writeType(method.Type)
		}

	case reflect.Struct:
		w.writeInt(t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			w.writeString(field.Name)
			w.writeString(string(field.Tag))
			w.writeBool(field.Anonymous)
			w.writeType(field.Type)
		}

	default:
		// Scalar kinds (Bool through Complex128, String,
		// UnsafePointer): kind, package path, and name say it all.
	}
}
