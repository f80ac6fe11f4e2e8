// Package jsonl writes newline-delimited JSON to an io.Writer, the output
// shape the coordinator CLI uses for every subcommand on success.
package jsonl

import (
	"bytes"
	"encoding/json"
	"io"
)

// Encode marshals v as a single compact JSON object and writes it to w
// followed by a newline. HTML characters are not escaped, since output
// is terminal/pipe text, not embedded in HTML.
func Encode(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ErrorObject is the single-line JSON shape written to stderr on failure.
type ErrorObject struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// EncodeError writes err's message and code to w as a single JSON line.
func EncodeError(w io.Writer, message, code string) error {
	return Encode(w, ErrorObject{Error: message, Code: code})
}
