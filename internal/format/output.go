package format

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

const (
	JSON = "json"
	EDN  = "edn"
	Text = "text"
)

// Texter is implemented by payloads with a human rendering. Write falls
// back to pretty JSON for payloads without one.
type Texter interface {
	WriteText(w io.Writer) error
}

// Write writes v in the requested format: json (default), edn or text.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Text:
		if t, ok := v.(Texter); ok {
			return t.WriteText(w)
		}
		if env, ok := v.(Envelope); ok {
			if t, ok := env.Data.(Texter); ok {
				return t.WriteText(w)
			}
		}
		return WriteJSON(w, v, true)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// Envelope wraps every CLI payload so fields can be added next to data
// later without breaking consumers.
type Envelope struct {
	Data any    `json:"data"`
	Hint string `json:"_hint,omitempty"`
}

// WriteJSON writes strict JSON, one document per call.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	} else {
		b, err = sonic.ConfigStd.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
