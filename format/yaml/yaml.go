// Package yaml provides a YAML format adapter backed by gopkg.in/yaml.v3.
package yaml

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mivra/onefile/format"
)

// Format encodes values as YAML documents.
type Format[T any] struct{}

// compile-time interface checks.
var (
	_ format.Format[int]     = Format[int]{}
	_ format.TextFormat[int] = Format[int]{}
)

// New returns a YAML format.
func New[T any]() Format[T] {
	return Format[T]{}
}

func (Format[T]) Encode(w io.Writer, value T) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(value); err != nil {
		enc.Close() //nolint:errcheck
		return err
	}
	return enc.Close()
}

func (Format[T]) Decode(r io.Reader) (T, error) {
	var value T
	err := yaml.NewDecoder(r).Decode(&value)
	return value, err
}

func (f Format[T]) EncodeString(value T) (string, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f Format[T]) DecodeString(data string) (T, error) {
	var value T
	err := yaml.Unmarshal([]byte(data), &value)
	return value, err
}
