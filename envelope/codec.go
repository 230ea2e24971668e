// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package envelope

import (
	"encoding/json"
	"io"
)

// Codec is the single JSON configuration shared by the server and the client.
// Nulls are never emitted for envelope fields (see MarshalJSON), and time.Time
// values encode as RFC 3339 strings.
type Codec struct {
	// DisallowUnknownFields rejects request bodies carrying fields the target
	// type does not declare. Off by default: unknown fields are ignored.
	DisallowUnknownFields bool
	// EscapeHTML mirrors json.Encoder.SetEscapeHTML.
	EscapeHTML bool
}

// Default is constructed once and only ever read.
var Default = Codec{}

// Encode writes v followed by a newline.
func (c Codec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(c.EscapeHTML)
	return enc.Encode(v)
}

// Decode reads a single JSON value into v.
func (c Codec) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if c.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}
