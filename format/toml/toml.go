// Package toml provides a TOML format adapter backed by BurntSushi/toml.
package toml

import (
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mivra/onefile/format"
)

// Format encodes values as TOML documents.
type Format[T any] struct{}

// compile-time interface checks.
var (
	_ format.Format[struct{}]         = Format[struct{}]{}
	_ format.BufferedFormat[struct{}] = Format[struct{}]{}
	_ format.TextFormat[struct{}]     = Format[struct{}]{}
)

// New returns a TOML format.
func New[T any]() Format[T] {
	return Format[T]{}
}

func (Format[T]) Encode(w io.Writer, value T) error {
	return toml.NewEncoder(w).Encode(value)
}

func (Format[T]) Decode(r io.Reader) (T, error) {
	var value T
	_, err := toml.NewDecoder(r).Decode(&value)
	return value, err
}

// EncodeBuffered writes directly: the TOML encoder builds its output in
// memory before writing, so an extra bufio layer buys nothing.
func (f Format[T]) EncodeBuffered(w io.Writer, value T) error {
	return f.Encode(w, value)
}

// DecodeBuffered reads directly: the TOML decoder slurps the whole input.
func (f Format[T]) DecodeBuffered(r io.Reader) (T, error) {
	return f.Decode(r)
}

func (f Format[T]) EncodeString(value T) (string, error) {
	var sb strings.Builder
	if err := f.Encode(&sb, value); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (f Format[T]) DecodeString(data string) (T, error) {
	var value T
	err := toml.Unmarshal([]byte(data), &value)
	return value, err
}
