// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingSuccess = errors.New("envelope: missing success flag")
	ErrBothFields     = errors.New("envelope: data and errorMessage are mutually exclusive")
	ErrMissingData    = errors.New("envelope: successful envelope without data")
	ErrMissingMessage = errors.New("envelope: failed envelope without errorMessage")
)

// Envelope is the uniform wrapper returned by every endpoint.
// Exactly one of Data and ErrorMessage is meaningful, selected by Success.
type Envelope[T any] struct {
	Success      bool
	Data         T
	ErrorMessage string
}

// Success wraps a payload.
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Error wraps a failure message. The payload type is irrelevant for failures.
func Error(message string) Envelope[any] {
	return Envelope[any]{ErrorMessage: message}
}

type successWire[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type errorWire struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

// MarshalJSON emits {"success":true,"data":...} or {"success":false,"errorMessage":"..."}.
// The absent field is left out entirely rather than written as null.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	if e.Success {
		return json.Marshal(successWire[T]{Success: true, Data: e.Data})
	}
	return json.Marshal(errorWire{Success: false, ErrorMessage: e.ErrorMessage})
}

type rawWire struct {
	Success      *bool           `json:"success"`
	Data         json.RawMessage `json:"data"`
	ErrorMessage *string         `json:"errorMessage"`
}

// UnmarshalJSON decodes an envelope and rejects bodies that break the
// data/errorMessage exclusivity rule.
func (e *Envelope[T]) UnmarshalJSON(b []byte) error {
	var raw rawWire
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Success == nil {
		return ErrMissingSuccess
	}
	hasData := len(raw.Data) > 0
	hasMessage := raw.ErrorMessage != nil
	if hasData && hasMessage {
		return ErrBothFields
	}

	var out Envelope[T]
	out.Success = *raw.Success
	if out.Success {
		if !hasData {
			return ErrMissingData
		}
		if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
			return fmt.Errorf("envelope: decode data: %w", err)
		}
	} else {
		if !hasMessage {
			return ErrMissingMessage
		}
		out.ErrorMessage = *raw.ErrorMessage
	}
	*e = out
	return nil
}

// Decode parses a response body into an envelope carrying T.
func Decode[T any](b []byte) (Envelope[T], error) {
	var env Envelope[T]
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope[T]{}, err
	}
	return env, nil
}
