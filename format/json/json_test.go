package json

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRoundTrip(t *testing.T) {
	f := New[sample]()
	var buf bytes.Buffer
	in := sample{Name: "a", Count: 42}
	if err := f.Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := f.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestIndentedShape(t *testing.T) {
	data, err := New[sample]().EncodeBytes(sample{Name: "a", Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "\n  \"name\"") {
		t.Fatalf("want two-space indentation, got %q", s)
	}
	if !strings.HasSuffix(s, "\n") {
		t.Fatalf("want trailing newline, got %q", s)
	}
}

func TestCompact(t *testing.T) {
	data, err := Compact[sample]().EncodeBytes(sample{Name: "a", Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\n ") {
		t.Fatalf("compact output is indented: %q", data)
	}
	out, err := Compact[sample]().DecodeBytes(data)
	if err != nil || out.Count != 1 {
		t.Fatalf("decode = %+v, %v", out, err)
	}
}

func TestStringForms(t *testing.T) {
	f := New[sample]()
	s, err := f.EncodeString(sample{Name: "x", Count: 7})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.DecodeString(s)
	if err != nil || out.Name != "x" || out.Count != 7 {
		t.Fatalf("decode = %+v, %v", out, err)
	}
}
