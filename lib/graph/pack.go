// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/heappack/heappack/lib/cborenc"
)

// nodeKind discriminates wire nodes. The values are baked into packed
// buffers; do not renumber.
type nodeKind uint8

const (
	kindScalar         nodeKind = 0 // Value: CBOR of a scalar or byte slice
	kindNil            nodeKind = 1 // zero pointer, slice, map, func, or interface
	kindPointer        nodeKind = 2 // Child[0]: pointee
	kindSlice          nodeKind = 3 // Child: elements
	kindArray          nodeKind = 4 // Child: elements
	kindMap            nodeKind = 5 // Child: alternating key, value
	kindStruct         nodeKind = 6 // Child: exported fields in declaration order
	kindThunkEvaluated nodeKind = 7 // Value: CBOR of the cached value
	kindThunkSuspended nodeKind = 8 // Recipe, Args
)

// wireNode is one flattened graph node. Field names are single
// letters because node counts dominate buffer size for large graphs.
type wireNode struct {
	Kind   nodeKind           `cbor:"k"`
	Value  cborenc.RawMessage `cbor:"v,omitempty"`
	Child  []uint64           `cbor:"c,omitempty"`
	Recipe string             `cbor:"p,omitempty"`
	Args   cborenc.RawMessage `cbor:"a,omitempty"`
}

// wireGraph is the packed form before framing: a node table plus the
// root's index. Shared substructure appears once in the table and is
// referenced by index, which is what makes aliasing and cycles
// representable in a flat buffer.
type wireGraph struct {
	Root  uint64     `cbor:"r"`
	Nodes []wireNode `cbor:"n"`
}

// packFailure aborts a walk. The packer propagates failures by panic
// because walks are deeply recursive; Pack recovers it at the top and
// turns it into the status.
type packFailure struct {
	status Status
	detail string
}

var thunkPointerType = reflect.TypeOf((*Thunk)(nil))

func (c *memCodec) Pack(root any) (status Status, buffer []byte) {
	defer func() {
		if r := recover(); r != nil {
			if failure, ok := r.(packFailure); ok {
				status, buffer = failure.status, nil
				return
			}
			// Anything else escaping the walk is a codec bug.
			status, buffer = StatusImpossible, nil
		}
	}()

	p := &packer{shared: make(map[sharedKey]uint64)}
	g := wireGraph{}
	if root == nil {
		g.Root = p.reserve(wireNode{Kind: kindNil})
	} else {
		g.Root = p.walk(reflect.ValueOf(root))
	}
	g.Nodes = p.nodes

	body, err := cborenc.Marshal(&g)
	if err != nil {
		// The wire model is always marshalable; an error here is a
		// codec bug, not an input problem.
		return StatusImpossible, nil
	}
	if len(body) > c.maxBufferBytes {
		return StatusNoBuffer, nil
	}
	return StatusOK, frame(body)
}

// frame prepends the body length word and pads the result to a whole
// number of machine words.
func frame(body []byte) []byte {
	padded := (WordSize + len(body) + WordSize - 1) / WordSize * WordSize
	buffer := make([]byte, padded)
	binary.BigEndian.PutUint64(buffer[:WordSize], uint64(len(body)))
	copy(buffer[WordSize:], body)
	return buffer
}

// sharedKey identifies a heap cell for deduplication. The address
// alone is not enough: a struct and its first field share an address
// while being distinct values, so the type participates in the key.
type sharedKey struct {
	addr uintptr
	typ  reflect.Type
}

type packer struct {
	nodes  []wireNode
	shared map[sharedKey]uint64
}

// reserve appends a node and returns its index. For container nodes
// the caller fills in children after recursing, which is what allows
// cycles: the node index exists (and is registered in p.shared)
// before its pointee is walked.
func (p *packer) reserve(node wireNode) uint64 {
	p.nodes = append(p.nodes, node)
	return uint64(len(p.nodes) - 1)
}

func (p *packer) fail(status Status, format string, args ...any) {
	panic(packFailure{status: status, detail: fmt.Sprintf(format, args...)})
}

// scalar encodes v's current value as a CBOR leaf.
func (p *packer) scalar(v reflect.Value) uint64 {
	encoded, err := cborenc.Marshal(v.Interface())
	if err != nil {
		p.fail(StatusCannotPack, "encoding %s value: %v", v.Type(), err)
	}
	return p.reserve(wireNode{Kind: kindScalar, Value: encoded})
}

func (p *packer) walk(v reflect.Value) uint64 {
	if !v.IsValid() {
		return p.reserve(wireNode{Kind: kindNil})
	}

	// Thunks are graph citizens with their own wire representation,
	// recognized by concrete type ahead of the kind switch.
	if v.Type() == thunkPointerType {
		return p.walkThunk(v)
	}

	switch v.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return p.scalar(v)

	case reflect.Pointer:
		if v.IsNil() {
			return p.reserve(wireNode{Kind: kindNil})
		}
		key := sharedKey{addr: v.Pointer(), typ: v.Type()}
		if id, ok := p.shared[key]; ok {
			return id
		}
		id := p.reserve(wireNode{Kind: kindPointer})
		p.shared[key] = id
		child := p.walk(v.Elem())
		p.nodes[id].Child = []uint64{child}
		return id

	case reflect.Slice:
		if v.IsNil() {
			return p.reserve(wireNode{Kind: kindNil})
		}
		// Byte slices travel as a single CBOR byte string rather than
		// one node per element.
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return p.scalar(v)
		}
		children := make([]uint64, v.Len())
		id := p.reserve(wireNode{Kind: kindSlice})
		for i := range children {
			children[i] = p.walk(v.Index(i))
		}
		p.nodes[id].Child = children
		return id

	case reflect.Array:
		children := make([]uint64, v.Len())
		id := p.reserve(wireNode{Kind: kindArray})
		for i := range children {
			children[i] = p.walk(v.Index(i))
		}
		p.nodes[id].Child = children
		return id

	case reflect.Map:
		if v.IsNil() {
			return p.reserve(wireNode{Kind: kindNil})
		}
		key := sharedKey{addr: v.Pointer(), typ: v.Type()}
		if id, ok := p.shared[key]; ok {
			return id
		}
		id := p.reserve(wireNode{Kind: kindMap})
		p.shared[key] = id
		children := make([]uint64, 0, 2*v.Len())
		iter := v.MapRange()
		for iter.Next() {
			children = append(children, p.walk(iter.Key()))
			children = append(children, p.walk(iter.Value()))
		}
		p.nodes[id].Child = children
		return id

	case reflect.Struct:
		t := v.Type()
		id := p.reserve(wireNode{Kind: kindStruct})
		var children []uint64
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			children = append(children, p.walk(v.Field(i)))
		}
		p.nodes[id].Child = children
		return id

	case reflect.Interface:
		if v.IsNil() {
			return p.reserve(wireNode{Kind: kindNil})
		}
		// A non-nil interface slot has no static type to direct
		// reconstruction with.
		p.fail(StatusUnsupported, "interface value of dynamic type %s", v.Elem().Type())

	case reflect.Chan:
		p.fail(StatusCannotPack, "channel of type %s: externally-synchronized mutable cell", v.Type())

	case reflect.Func:
		if v.IsNil() {
			return p.reserve(wireNode{Kind: kindNil})
		}
		p.fail(StatusUnsupported, "func value of type %s", v.Type())

	case reflect.Complex64, reflect.Complex128, reflect.Uintptr, reflect.UnsafePointer:
		p.fail(StatusUnsupported, "value of kind %s", v.Kind())
	}

	p.fail(StatusImpossible, "unhandled kind %s", v.Kind())
	panic("unreachable")
}

// walkThunk packs a *Thunk. The three thunk states map to three wire
// outcomes: evaluated thunks carry their cached value, suspended
// thunks carry recipe plus arguments, and thunks under evaluation
// abort the pack with StatusBlackHole — without blocking on the
// evaluation.
func (p *packer) walkThunk(v reflect.Value) uint64 {
	if v.IsNil() {
		return p.reserve(wireNode{Kind: kindNil})
	}
	key := sharedKey{addr: v.Pointer(), typ: v.Type()}
	if id, ok := p.shared[key]; ok {
		return id
	}

	t := v.Interface().(*Thunk)
	node := p.thunkNode(t)
	id := p.reserve(node)
	p.shared[key] = id
	return id
}

func (p *packer) thunkNode(t *Thunk) wireNode {
	if t.done.Load() {
		return p.evaluatedThunkNode(t)
	}

	if !t.mu.TryLock() {
		p.fail(StatusBlackHole, "thunk %q is under evaluation", t.recipe)
	}
	defer t.mu.Unlock()

	// The evaluation may have completed between the done check and
	// the TryLock; re-check while holding the lock.
	if t.done.Load() {
		return p.evaluatedThunkNode(t)
	}

	args, err := cborenc.Marshal(t.args)
	if err != nil {
		p.fail(StatusCannotPack, "encoding arguments of thunk %q: %v", t.recipe, err)
	}
	return wireNode{Kind: kindThunkSuspended, Recipe: t.recipe, Args: args}
}

func (p *packer) evaluatedThunkNode(t *Thunk) wireNode {
	value, err := cborenc.Marshal(t.value)
	if err != nil {
		p.fail(StatusCannotPack, "encoding value of thunk %q: %v", t.recipe, err)
	}
	return wireNode{Kind: kindThunkEvaluated, Value: value}
}
