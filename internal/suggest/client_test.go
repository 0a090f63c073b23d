package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
)

func TestNewRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Endpoint: "  "}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New() error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestSuggestMergesAnswer(t *testing.T) {
	t.Parallel()

	var got suggestRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tempo": 0.8, "reasoning": "slower and roomier", "reverb": {"enabled": true, "wetLevel": 0.6}}`))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, APIKey: "secret", Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	current := effectchain.DefaultSettings()
	current.Volume = 1.5
	s, err := c.Suggest(context.Background(), "make it dreamy", current)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	if got.Prompt != "make it dreamy" || got.Model != "test-model" || got.Current.Volume != 1.5 {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Effects) != len(effectchain.Order) {
		t.Fatalf("request lists %d effects, want %d", len(got.Effects), len(effectchain.Order))
	}

	if s.Tempo != 0.8 || s.Volume != 1.5 {
		t.Fatalf("Tempo = %v, Volume = %v, want 0.8, 1.5", s.Tempo, s.Volume)
	}
	if !s.Reverb.Enabled || s.Reverb.WetLevel != 0.6 || s.Reverb.RoomSize != current.Reverb.RoomSize {
		t.Fatalf("Reverb = %+v", s.Reverb)
	}
	if s.Reasoning != "slower and roomier" {
		t.Fatalf("Reasoning = %q", s.Reasoning)
	}
}

func TestSuggestClampsAnswer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"volume": 100}`))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s, err := c.Suggest(context.Background(), "louder", effectchain.DefaultSettings())
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if s.Volume != 4 {
		t.Fatalf("Volume = %v, want 4", s.Volume)
	}
}

func TestSuggestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		prompt string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, "x"},
		{"server error", http.StatusInternalServerError, "boom", "x"},
		{"malformed", http.StatusOK, `{"tempo": "fast"`, "x"},
		{"empty prompt", http.StatusOK, `{}`, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{Endpoint: srv.URL})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			_, err = c.Suggest(context.Background(), tt.prompt, effectchain.DefaultSettings())
			if err == nil {
				t.Fatal("Suggest() error = nil")
			}

			var apiErr *APIError
			if tt.status >= 300 && (!errors.As(err, &apiErr) || apiErr.StatusCode != tt.status) {
				t.Fatalf("Suggest() error = %v, want APIError %d", err, tt.status)
			}
		})
	}
}
