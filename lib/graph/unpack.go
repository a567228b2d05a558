// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/heappack/heappack/lib/cborenc"
)

// unpackFailure aborts reconstruction; Unpack recovers it into
// StatusGarbled. Structural damage of any shape — bad framing, CBOR
// that does not parse, node indices out of range, wire kinds that do
// not match the destination type — is uniformly garbled: the caller
// cannot distinguish causes of corruption and should not try.
type unpackFailure struct {
	detail string
}

func (c *memCodec) Unpack(buffer []byte, root any) (status Status) {
	rv := reflect.ValueOf(root)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		// Boundary misuse, not buffer damage.
		return StatusImpossible
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unpackFailure); ok {
				status = StatusGarbled
				return
			}
			status = StatusImpossible
		}
	}()

	g := unframe(buffer)
	u := &unpacker{nodes: g.Nodes, resolved: make(map[uint64]reflect.Value)}
	u.into(g.Root, rv.Elem())
	return StatusOK
}

// unframe validates the buffer framing and decodes the node table.
func unframe(buffer []byte) wireGraph {
	if len(buffer) < WordSize || len(buffer)%WordSize != 0 {
		garbled("buffer length %d is not word-aligned", len(buffer))
	}
	bodyLen := binary.BigEndian.Uint64(buffer[:WordSize])
	body := buffer[WordSize:]
	if bodyLen > uint64(len(body)) || uint64(len(body))-bodyLen >= WordSize {
		garbled("length word %d inconsistent with buffer size %d", bodyLen, len(buffer))
	}

	var g wireGraph
	if err := cborenc.Unmarshal(body[:bodyLen], &g); err != nil {
		garbled("decoding node table: %v", err)
	}
	if g.Root >= uint64(len(g.Nodes)) {
		garbled("root index %d out of range (%d nodes)", g.Root, len(g.Nodes))
	}
	return g
}

func garbled(format string, args ...any) {
	panic(unpackFailure{detail: fmt.Sprintf(format, args...)})
}

type unpacker struct {
	nodes []wireNode

	// resolved maps shared node indices (pointers, maps, thunks) to
	// the already-reconstructed value, so aliasing in the packed
	// graph reconstructs as aliasing, and cycles terminate.
	resolved map[uint64]reflect.Value
}

func (u *unpacker) node(id uint64) wireNode {
	if id >= uint64(len(u.nodes)) {
		garbled("node index %d out of range (%d nodes)", id, len(u.nodes))
	}
	return u.nodes[id]
}

// into reconstructs node id into v, which must be addressable and of
// the static type the graph was packed from.
func (u *unpacker) into(id uint64, v reflect.Value) {
	node := u.node(id)

	switch node.Kind {
	case kindNil:
		v.SetZero()

	case kindScalar:
		if err := cborenc.Unmarshal(node.Value, v.Addr().Interface()); err != nil {
			garbled("decoding %s leaf: %v", v.Type(), err)
		}

	case kindPointer:
		if v.Kind() != reflect.Pointer {
			garbled("pointer node into %s destination", v.Type())
		}
		if cached, ok := u.resolved[id]; ok {
			if cached.Type() != v.Type() {
				garbled("shared node %d seen as both %s and %s", id, cached.Type(), v.Type())
			}
			v.Set(cached)
			return
		}
		if len(node.Child) != 1 {
			garbled("pointer node %d has %d children", id, len(node.Child))
		}
		pointee := reflect.New(v.Type().Elem())
		// Register before recursing so cycles resolve to this cell.
		u.resolved[id] = pointee
		u.into(node.Child[0], pointee.Elem())
		v.Set(pointee)

	case kindSlice:
		if v.Kind() != reflect.Slice {
			garbled("slice node into %s destination", v.Type())
		}
		slice := reflect.MakeSlice(v.Type(), len(node.Child), len(node.Child))
		for i, child := range node.Child {
			u.into(child, slice.Index(i))
		}
		v.Set(slice)

	case kindArray:
		if v.Kind() != reflect.Array {
			garbled("array node into %s destination", v.Type())
		}
		if len(node.Child) != v.Len() {
			garbled("array node has %d elements, destination %s wants %d", len(node.Child), v.Type(), v.Len())
		}
		for i, child := range node.Child {
			u.into(child, v.Index(i))
		}

	case kindMap:
		if v.Kind() != reflect.Map {
			garbled("map node into %s destination", v.Type())
		}
		if len(node.Child)%2 != 0 {
			garbled("map node %d has odd child count %d", id, len(node.Child))
		}
		if cached, ok := u.resolved[id]; ok {
			if cached.Type() != v.Type() {
				garbled("shared node %d seen as both %s and %s", id, cached.Type(), v.Type())
			}
			v.Set(cached)
			return
		}
		m := reflect.MakeMapWithSize(v.Type(), len(node.Child)/2)
		u.resolved[id] = m
		key := reflect.New(v.Type().Key()).Elem()
		elem := reflect.New(v.Type().Elem()).Elem()
		for i := 0; i < len(node.Child); i += 2 {
			u.into(node.Child[i], key)
			u.into(node.Child[i+1], elem)
			m.SetMapIndex(key, elem)
		}
		v.Set(m)

	case kindStruct:
		if v.Kind() != reflect.Struct {
			garbled("struct node into %s destination", v.Type())
		}
		t := v.Type()
		next := 0
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if next >= len(node.Child) {
				garbled("struct node has %d children, destination %s wants more", len(node.Child), t)
			}
			u.into(node.Child[next], v.Field(i))
			next++
		}
		if next != len(node.Child) {
			garbled("struct node has %d children, destination %s consumed %d", len(node.Child), t, next)
		}

	case kindThunkEvaluated, kindThunkSuspended:
		u.thunkInto(id, node, v)

	default:
		garbled("unknown node kind %d", node.Kind)
	}
}

func (u *unpacker) thunkInto(id uint64, node wireNode, v reflect.Value) {
	if v.Type() != thunkPointerType {
		garbled("thunk node into %s destination", v.Type())
	}
	if cached, ok := u.resolved[id]; ok {
		v.Set(cached)
		return
	}

	var t *Thunk
	if node.Kind == kindThunkEvaluated {
		var value any
		if err := cborenc.Unmarshal(node.Value, &value); err != nil {
			garbled("decoding evaluated thunk value: %v", err)
		}
		t = evaluatedThunk(value)
	} else {
		if node.Recipe == "" {
			garbled("suspended thunk node %d has no recipe name", id)
		}
		var args []any
		if err := cborenc.Unmarshal(node.Args, &args); err != nil {
			garbled("decoding arguments of thunk %q: %v", node.Recipe, err)
		}
		t = NewThunk(node.Recipe, args...)
	}

	tv := reflect.ValueOf(t)
	u.resolved[id] = tv
	v.Set(tv)
}
