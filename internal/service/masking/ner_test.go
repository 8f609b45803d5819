package masking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

func TestHTTPRecognizerDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req nerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(nerResponse{
			Text: req.Text,
			Entities: []nerEntity{
				{Text: "José Ruiz", Label: "PERSON", StartPos: 8, EndPos: 17, Confidence: 0.97},
				{Text: "nobody", Label: "PERSON", StartPos: 0, EndPos: 6, Confidence: 0.9},
				{Text: "Soy", Label: "PERSON", StartPos: 0, EndPos: 3, Confidence: 0.1},
				{Text: "Boston", Label: "LOCATION", StartPos: 0, EndPos: 0, Confidence: 0.9},
			},
		})
	}))
	defer server.Close()

	rec := NewHTTPRecognizer(server.URL+"/", time.Second)
	text := "Soy yo, José Ruiz"
	entities, err := rec.Detect(context.Background(), text)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %+v", entities)
	}
	got := entities[0]
	if got.Type != domain.EntityPerson || text[got.Start:got.End] != "José Ruiz" {
		t.Fatalf("unexpected entity %+v", got)
	}
}

func TestHTTPRecognizerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := NewHTTPRecognizer(server.URL, time.Second)
	if _, err := rec.Detect(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
