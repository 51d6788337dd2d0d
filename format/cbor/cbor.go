// Package cbor provides a CBOR format adapter backed by fxamacker/cbor.
package cbor

import (
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/mivra/onefile/format"
)

// Format encodes values as canonical CBOR.
type Format[T any] struct{}

// compile-time interface checks.
var (
	_ format.Format[int]      = Format[int]{}
	_ format.BytesFormat[int] = Format[int]{}
)

// New returns a CBOR format.
func New[T any]() Format[T] {
	return Format[T]{}
}

func (Format[T]) Encode(w io.Writer, value T) error {
	return cbor.NewEncoder(w).Encode(value)
}

func (Format[T]) Decode(r io.Reader) (T, error) {
	var value T
	err := cbor.NewDecoder(r).Decode(&value)
	return value, err
}

func (Format[T]) EncodeBytes(value T) ([]byte, error) {
	return cbor.Marshal(value)
}

func (Format[T]) DecodeBytes(data []byte) (T, error) {
	var value T
	err := cbor.Unmarshal(data, &value)
	return value, err
}
