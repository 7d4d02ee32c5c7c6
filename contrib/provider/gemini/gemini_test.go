package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sweetpotato0/docsum/llm"
)

func generateServer(t *testing.T, status int, parts []string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, seen)
			(*seen)["_path"] = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error","status":"INTERNAL"}}`))
			return
		}
		content := make([]map[string]any, len(parts))
		for i, p := range parts {
			content[i] = map[string]any{"text": p}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": content},
				"finishReason": "STOP",
				"index":        0,
			}},
		})
	}))
}

func newTestProvider(t *testing.T, url, model string) *Provider {
	t.Helper()
	p, err := New(context.Background(), &Config{APIKey: "test", BaseURL: url, Model: model})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestProviderComplete(t *testing.T) {
	seen := map[string]any{}
	srv := generateServer(t, http.StatusOK, []string{"  A short ", "summary.  "}, &seen)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, "gemini-test")
	got, err := p.Complete(context.Background(), &llm.Request{
		System:      "Summarize in one sentence.",
		Prompt:      "Some chunk text.",
		Temperature: 0.2,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "A short summary." {
		t.Fatalf("expected joined trimmed parts, got %q", got)
	}

	if path, _ := seen["_path"].(string); !strings.Contains(path, "models/gemini-test") {
		t.Fatalf("expected model in path, got %q", path)
	}
	if seen["systemInstruction"] == nil {
		t.Fatalf("expected system instruction in request, got %v", seen)
	}
	gen, _ := seen["generationConfig"].(map[string]any)
	if gen["maxOutputTokens"] != float64(100) {
		t.Fatalf("expected maxOutputTokens 100, got %v", gen["maxOutputTokens"])
	}
}

func TestProviderEmptyContent(t *testing.T) {
	srv := generateServer(t, http.StatusOK, []string{"   "}, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, "")
	_, err := p.Complete(context.Background(), &llm.Request{Prompt: "x"})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestProviderServerError(t *testing.T) {
	srv := generateServer(t, http.StatusInternalServerError, nil, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL, "")
	if _, err := p.Complete(context.Background(), &llm.Request{Prompt: "x"}); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestProviderNilRequest(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:0", "")
	if p.Name() != "gemini" || p.config.Model != DefaultModel {
		t.Fatalf("unexpected provider %q / %q", p.Name(), p.config.Model)
	}
	if _, err := p.Complete(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil request")
	}
}
