// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Recipe computes a thunk's value. Recipes must be deterministic with
// respect to their arguments if packed thunks are to mean the same
// thing after reconstruction. A recipe reconstructed from a packed
// buffer receives its arguments in CBOR-generic form: integers as
// int64 or uint64, maps as map[string]any, byte strings as []byte.
// Recipes that want richer argument types decode them themselves.
type Recipe func(args ...any) (any, error)

// recipes is the process-wide recipe registry. Registration happens
// at init time; lookup happens on every Force and on unpacking of
// suspended thunks. Names are the unit of cross-process agreement:
// both ends of a packet exchange run the same binary, so both see the
// same registrations.
var recipes = struct {
	sync.RWMutex
	byName map[string]Recipe
}{byName: make(map[string]Recipe)}

// RegisterRecipe registers a named recipe. Panics on an empty name or
// a duplicate registration — both are programming errors that should
// fail loudly at init, not surface as pack failures later.
func RegisterRecipe(name string, recipe Recipe) {
	if name == "" {
		panic("graph: RegisterRecipe with empty name")
	}
	if recipe == nil {
		panic("graph: RegisterRecipe(" + name + ") with nil recipe")
	}
	recipes.Lock()
	defer recipes.Unlock()
	if _, exists := recipes.byName[name]; exists {
		panic("graph: duplicate recipe registration: " + name)
	}
	recipes.byName[name] = recipe
}

func recipeFor(name string) (Recipe, bool) {
	recipes.RLock()
	defer recipes.RUnlock()
	recipe, ok := recipes.byName[name]
	return recipe, ok
}

// Thunk is a memoized deferred computation. It exists so that graphs
// containing not-yet-performed work can be packed: an unevaluated
// thunk travels as its recipe name plus arguments, and the consuming
// process performs the work on first Force.
//
// A Thunk has three observable states: suspended (recipe not yet
// run), under evaluation (a goroutine is inside the recipe), and
// evaluated (value cached; the recipe never runs again). Packing a
// thunk under evaluation yields StatusBlackHole rather than waiting.
type Thunk struct {
	// mu is held for the duration of the recipe call. Pack probes it
	// with TryLock to detect evaluation in progress without blocking.
	mu sync.Mutex

	// done flips to true exactly once, after value is written. Reads
	// of value are gated on done, which gives the usual
	// store-release/load-acquire pairing.
	done atomic.Bool

	recipe string
	args   []any
	value  any
}

// NewThunk returns a suspended thunk bound to a registered recipe
// name. The name is not validated here — a thunk may be constructed
// before its recipe is registered, as long as registration happens
// before the first Force.
func NewThunk(recipe string, args ...any) *Thunk {
	return &Thunk{recipe: recipe, args: args}
}

// evaluatedThunk reconstructs a thunk in the evaluated state. Used by
// the unpacker for thunks that were already forced when packed.
func evaluatedThunk(value any) *Thunk {
	t := &Thunk{value: value}
	t.done.Store(true)
	return t
}

// Force returns the thunk's value, running the recipe on first use.
// Concurrent callers block until the single evaluation completes. A
// recipe error is returned without being memoized, so a later Force
// retries.
func (t *Thunk) Force() (any, error) {
	if t.done.Load() {
		return t.value, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done.Load() {
		return t.value, nil
	}

	recipe, ok := recipeFor(t.recipe)
	if !ok {
		return nil, fmt.Errorf("graph: no recipe registered under %q", t.recipe)
	}
	value, err := recipe(t.args...)
	if err != nil {
		return nil, fmt.Errorf("graph: recipe %q: %w", t.recipe, err)
	}

	t.value = value
	t.done.Store(true)
	return value, nil
}

// Evaluated reports whether the thunk's value has been computed.
func (t *Thunk) Evaluated() bool {
	return t.done.Load()
}
