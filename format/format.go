// Package format defines the codec contract between a typed value and its
// on-disk byte representation, plus helpers used by file managers.
//
// A Format is the only thing the core requires of an encoding: stream a
// value out, stream a value in, report the codec's own error on failure.
// Concrete adapters live in the subpackages (json, yaml, toml, cbor,
// msgpack, base64) and in package compress.
package format

import (
	"bufio"
	"bytes"
	"io"
)

// Format converts values of type T to and from a byte stream.
type Format[T any] interface {
	// Encode serializes value into w.
	Encode(w io.Writer, value T) error
	// Decode deserializes a value from r.
	Decode(r io.Reader) (T, error)
}

// BufferedFormat is implemented by formats whose codec already buffers
// internally. EncodeBuffered and DecodeBuffered call these overrides
// instead of wrapping the stream in bufio, avoiding double-buffering.
type BufferedFormat[T any] interface {
	Format[T]
	EncodeBuffered(w io.Writer, value T) error
	DecodeBuffered(r io.Reader) (T, error)
}

// BytesFormat is implemented by formats with a native in-memory
// marshal/unmarshal path. EncodeBytes and DecodeBytes call these
// overrides instead of going through a bytes.Buffer.
type BytesFormat[T any] interface {
	Format[T]
	EncodeBytes(value T) ([]byte, error)
	DecodeBytes(data []byte) (T, error)
}

// TextFormat is implemented by formats whose wire form is guaranteed
// valid UTF-8 text.
type TextFormat[T any] interface {
	Format[T]
	EncodeString(value T) (string, error)
	DecodeString(data string) (T, error)
}

// EncodeBuffered encodes value into w through a buffered writer, unless f
// buffers internally. The buffer flush happens before returning, so a
// flush failure surfaces here rather than being lost.
func EncodeBuffered[T any](f Format[T], w io.Writer, value T) error {
	if bf, ok := f.(BufferedFormat[T]); ok {
		return bf.EncodeBuffered(w, value)
	}
	bw := bufio.NewWriter(w)
	if err := f.Encode(bw, value); err != nil {
		return err
	}
	return bw.Flush()
}

// DecodeBuffered decodes a value from r through a buffered reader, unless
// f buffers internally.
func DecodeBuffered[T any](f Format[T], r io.Reader) (T, error) {
	if bf, ok := f.(BufferedFormat[T]); ok {
		return bf.DecodeBuffered(r)
	}
	return f.Decode(bufio.NewReader(r))
}

// EncodeBytes serializes value into a byte slice.
func EncodeBytes[T any](f Format[T], value T) ([]byte, error) {
	if bf, ok := f.(BytesFormat[T]); ok {
		return bf.EncodeBytes(value)
	}
	var buf bytes.Buffer
	if err := f.Encode(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes deserializes a value from a byte slice.
func DecodeBytes[T any](f Format[T], data []byte) (T, error) {
	if bf, ok := f.(BytesFormat[T]); ok {
		return bf.DecodeBytes(data)
	}
	return f.Decode(bytes.NewReader(data))
}
