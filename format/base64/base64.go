// Package base64 provides a format adapter that wraps another format,
// transcoding its wire bytes to and from base64 text.
package base64

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/mivra/onefile/format"
)

// Format wraps an inner format so the file on disk holds the inner wire
// form encoded as base64.
type Format[T any] struct {
	inner    format.Format[T]
	encoding *base64.Encoding
}

// compile-time interface checks.
var (
	_ format.Format[int]     = Format[int]{}
	_ format.TextFormat[int] = Format[int]{}
)

// New wraps inner using the standard padded alphabet.
func New[T any](inner format.Format[T]) Format[T] {
	return With(inner, base64.StdEncoding)
}

// URLSafe wraps inner using the URL-safe padded alphabet.
func URLSafe[T any](inner format.Format[T]) Format[T] {
	return With(inner, base64.URLEncoding)
}

// With wraps inner using the given encoding.
func With[T any](inner format.Format[T], encoding *base64.Encoding) Format[T] {
	return Format[T]{inner: inner, encoding: encoding}
}

func (f Format[T]) Encode(w io.Writer, value T) error {
	enc := base64.NewEncoder(f.encoding, w)
	if err := f.inner.Encode(enc, value); err != nil {
		enc.Close() //nolint:errcheck
		return err
	}
	// Close flushes the final partial quantum.
	return enc.Close()
}

func (f Format[T]) Decode(r io.Reader) (T, error) {
	return f.inner.Decode(base64.NewDecoder(f.encoding, r))
}

func (f Format[T]) EncodeString(value T) (string, error) {
	var sb strings.Builder
	if err := f.Encode(&sb, value); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (f Format[T]) DecodeString(data string) (T, error) {
	return f.Decode(strings.NewReader(data))
}
