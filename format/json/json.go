// Package json provides a JSON format adapter backed by encoding/json.
package json

import (
	"encoding/json"
	"io"

	"github.com/mivra/onefile/format"
)

// Format encodes values as JSON. The zero value writes indented JSON with
// two-space indentation and a trailing newline; use Compact for the
// single-line wire form.
type Format[T any] struct {
	compact bool
}

// compile-time interface checks.
var (
	_ format.Format[int]      = Format[int]{}
	_ format.BytesFormat[int] = Format[int]{}
	_ format.TextFormat[int]  = Format[int]{}
)

// New returns an indented JSON format.
func New[T any]() Format[T] {
	return Format[T]{}
}

// Compact returns a JSON format without indentation.
func Compact[T any]() Format[T] {
	return Format[T]{compact: true}
}

func (f Format[T]) Encode(w io.Writer, value T) error {
	enc := json.NewEncoder(w)
	if !f.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(value)
}

func (f Format[T]) Decode(r io.Reader) (T, error) {
	var value T
	err := json.NewDecoder(r).Decode(&value)
	return value, err
}

func (f Format[T]) EncodeBytes(value T) ([]byte, error) {
	if f.compact {
		return json.Marshal(value)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (f Format[T]) DecodeBytes(data []byte) (T, error) {
	var value T
	err := json.Unmarshal(data, &value)
	return value, err
}

func (f Format[T]) EncodeString(value T) (string, error) {
	data, err := f.EncodeBytes(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f Format[T]) DecodeString(data string) (T, error) {
	return f.DecodeBytes([]byte(data))
}
