package websocket

import (
	"testing"

	"github.com/stemsi/quizling/internal/model"
)

func TestDecodeSelect(t *testing.T) {
	var req SelectRequest
	if err := Decode([]byte(`{"action":"select","answer":"C"}`), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Answer != model.LabelC {
		t.Fatalf("unexpected answer %q", req.Answer)
	}

	for _, raw := range []string{`{"action":"select"}`, `{"action":"select","answer":"E"}`, `{"action":`} {
		if err := Decode([]byte(raw), &SelectRequest{}); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}

func TestDecodeFilter(t *testing.T) {
	var req FilterRequest
	if err := Decode([]byte(`{"action":"filter","search":"go","page":2}`), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Search == nil || *req.Search != "go" || req.Page == nil || *req.Page != 2 || req.Difficulty != nil {
		t.Fatalf("unexpected request %+v", req)
	}

	if err := Decode([]byte(`{"action":"filter","page":0}`), &FilterRequest{}); err == nil {
		t.Fatal("expected page 0 to be rejected")
	}
}
