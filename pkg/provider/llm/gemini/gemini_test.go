package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm"
)

// fakeGemini serves the generateContent endpoint and records request bodies.
type fakeGemini struct {
	mu     sync.Mutex
	bodies []string
	keys   []string
	status int
	reply  string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	f.keys = append(f.keys, r.Header.Get("x-goog-api-key"))
	f.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": f.reply}},
			},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     12,
			"candidatesTokenCount": 8,
			"totalTokenCount":      20,
		},
	})
}

func newTestProvider(t *testing.T, f *fakeGemini) *Provider {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	p, err := New(context.Background(), "test-key", "gemini-test", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(context.Background(), "", "m"); err == nil {
		t.Error("New with empty apiKey succeeded, want error")
	}
	p, err := New(context.Background(), "key", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != DefaultModel {
		t.Errorf("model = %q, want %q", p.model, DefaultModel)
	}
}

func TestComplete(t *testing.T) {
	f := &fakeGemini{reply: "John 3:16, Romans 8:28"}
	p := newTestProvider(t, f)

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are a Bible scholar.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "verses about love"}},
		Temperature:  llm.Float(0.3),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "John 3:16, Romans 8:28" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 20 || resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 8 {
		t.Errorf("Usage = %+v", resp.Usage)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) != 1 {
		t.Fatalf("requests = %d, want 1", len(f.bodies))
	}
	body := f.bodies[0]
	for _, want := range []string{"You are a Bible scholar.", "verses about love", "temperature"} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %q: %s", want, body)
		}
	}
	if f.keys[0] != "test-key" {
		t.Errorf("api key header = %q, want %q", f.keys[0], "test-key")
	}
}

func TestComplete_ServerError(t *testing.T) {
	p := newTestProvider(t, &fakeGemini{status: http.StatusInternalServerError})
	_, err := p.Complete(context.Background(), llm.UserText("", "hi", 0))
	if err == nil {
		t.Fatal("Complete succeeded, want error")
	}
	if !strings.HasPrefix(err.Error(), "gemini:") {
		t.Errorf("error %q not prefixed with provider name", err)
	}
}

func TestComplete_NoMessages(t *testing.T) {
	p := newTestProvider(t, &fakeGemini{})
	if _, err := p.Complete(context.Background(), llm.CompletionRequest{SystemPrompt: "x"}); err == nil {
		t.Fatal("Complete with no messages succeeded, want error")
	}
}

func TestConvertMessages(t *testing.T) {
	contents, system, err := convertMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "be kind"},
		{Role: llm.RoleUser, Content: "q1"},
		{Role: llm.RoleAssistant, Content: "a1"},
		{Role: llm.RoleUser, Content: "q2"},
	})
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(system) != 1 || system[0] != "be kind" {
		t.Errorf("system = %v, want [be kind]", system)
	}
	wantRoles := []string{"user", "model", "user"}
	if len(contents) != len(wantRoles) {
		t.Fatalf("len(contents) = %d, want %d", len(contents), len(wantRoles))
	}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Errorf("contents[%d].Role = %q, want %q", i, c.Role, wantRoles[i])
		}
	}

	if _, _, err := convertMessages([]llm.Message{{Role: "tool"}}); err == nil {
		t.Error("unknown role accepted, want error")
	}
}
