package format

import "io"

// compile-time interface checks.
var (
	_ Format[[]byte]     = Bytes{}
	_ Format[string]     = Text{}
	_ TextFormat[string] = Text{}
)

// Bytes treats file contents as raw bytes, without interpretation.
type Bytes struct{}

func (Bytes) Encode(w io.Writer, value []byte) error {
	_, err := w.Write(value)
	return err
}

func (Bytes) Decode(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// Text treats file contents as plain UTF-8 text.
type Text struct{}

func (Text) Encode(w io.Writer, value string) error {
	_, err := io.WriteString(w, value)
	return err
}

func (Text) Decode(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t Text) EncodeString(value string) (string, error) {
	return value, nil
}

func (t Text) DecodeString(data string) (string, error) {
	return data, nil
}
