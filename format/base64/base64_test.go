package base64

import (
	"bytes"
	stdb64 "encoding/base64"
	"testing"

	"github.com/mivra/onefile/format"
)

func TestWrapsInnerWireForm(t *testing.T) {
	f := New[string](format.Text{})
	var buf bytes.Buffer
	if err := f.Encode(&buf, "hello"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := stdb64.StdEncoding.EncodeToString([]byte("hello"))
	if buf.String() != want {
		t.Fatalf("wire form = %q, want %q", buf.String(), want)
	}
	out, err := f.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != "hello" {
		t.Fatalf("round trip = %q", out)
	}
}

func TestURLSafe(t *testing.T) {
	// 0xfb 0xff forces characters that differ between the alphabets.
	f := URLSafe[[]byte](format.Bytes{})
	var buf bytes.Buffer
	if err := f.Encode(&buf, []byte{0xfb, 0xff, 0xfe}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bytes.ContainsAny(buf.Bytes(), "+/") {
		t.Fatalf("url-safe output contains %q", buf.String())
	}
	out, err := f.Decode(&buf)
	if err != nil || !bytes.Equal(out, []byte{0xfb, 0xff, 0xfe}) {
		t.Fatalf("round trip = %x, %v", out, err)
	}
}

func TestStringForms(t *testing.T) {
	f := New[string](format.Text{})
	s, err := f.EncodeString("data")
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.DecodeString(s)
	if err != nil || out != "data" {
		t.Fatalf("decode = %q, %v", out, err)
	}
}
