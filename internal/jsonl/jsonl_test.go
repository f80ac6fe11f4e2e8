package jsonl

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, map[string]string{"workspace": "ws-42"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if got := buf.String(); !strings.HasSuffix(got, "\n") {
		t.Errorf("Encode() output = %q, want trailing newline", got)
	}

	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["workspace"] != "ws-42" {
		t.Errorf("decoded[workspace] = %q, want ws-42", decoded["workspace"])
	}
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, map[string]string{"reason": "a && b < c"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if !strings.Contains(buf.String(), `a && b < c`) {
		t.Errorf("Encode() escaped HTML characters: %q", buf.String())
	}
}

func TestEncode_OneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := Encode(&buf, map[string]int{"a": 2}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
}

func TestEncodeError(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeError(&buf, "entry not found", "NOT_FOUND"); err != nil {
		t.Fatalf("EncodeError() error = %v", err)
	}

	var decoded ErrorObject
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Error != "entry not found" || decoded.Code != "NOT_FOUND" {
		t.Errorf("decoded = %+v, want {entry not found NOT_FOUND}", decoded)
	}
}

type unmarshalable struct {
	Ch chan int
}

func TestEncode_MarshalError(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, unmarshalable{Ch: make(chan int)})
	if err == nil {
		t.Fatal("Encode() error = nil, want error for unmarshalable type")
	}
}
