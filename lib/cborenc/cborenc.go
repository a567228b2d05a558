// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// Package cborenc provides heappack's standard CBOR encoding
// configuration.
//
// Two consumers share it: the reference graph codec (node payloads
// and thunk arguments inside packed buffers) and the checkpoint store
// (its on-disk manifest). Both need the same property: the same
// logical data must always produce identical bytes, so content
// digests of encoded records are meaningful. The encoder therefore
// uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items.
//
// Types implementing encoding.TextMarshaler (fingerprint.Fingerprint)
// serialize as CBOR text strings, and mirror back through
// TextUnmarshaler on decode.
package cborenc

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cborenc: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When the decode target is any (thunk arguments), pick
		// map[string]any over the CBOR default of
		// map[interface{}]interface{}; heappack never uses non-string
		// map keys in self-describing positions, and map[string]any is
		// what recipe code expects to receive.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("cborenc: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value, used to delay decoding.
// Type alias so consumers import only lib/cborenc, not fxamacker/cbor
// directly.
type RawMessage = cbor.RawMessage
