// Package msgpack provides a MessagePack format adapter backed by
// vmihailenco/msgpack. It is the compact binary option for containers
// whose files are not meant to be edited by hand.
package msgpack

import (
	"bufio"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mivra/onefile/format"
)

// Format encodes values as MessagePack.
type Format[T any] struct{}

// compile-time interface checks.
var (
	_ format.Format[int]         = Format[int]{}
	_ format.BufferedFormat[int] = Format[int]{}
	_ format.BytesFormat[int]    = Format[int]{}
)

// New returns a MessagePack format.
func New[T any]() Format[T] {
	return Format[T]{}
}

func (Format[T]) Encode(w io.Writer, value T) error {
	return msgpack.NewEncoder(w).Encode(value)
}

func (Format[T]) Decode(r io.Reader) (T, error) {
	var value T
	err := msgpack.NewDecoder(r).Decode(&value)
	return value, err
}

// EncodeBuffered writes through a bufio layer; the encoder emits many
// small writes.
func (f Format[T]) EncodeBuffered(w io.Writer, value T) error {
	bw := bufio.NewWriter(w)
	if err := f.Encode(bw, value); err != nil {
		return err
	}
	return bw.Flush()
}

// DecodeBuffered reads directly: the msgpack decoder buffers its input
// itself.
func (f Format[T]) DecodeBuffered(r io.Reader) (T, error) {
	return f.Decode(r)
}

func (Format[T]) EncodeBytes(value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (Format[T]) DecodeBytes(data []byte) (T, error) {
	var value T
	err := msgpack.Unmarshal(data, &value)
	return value, err
}
