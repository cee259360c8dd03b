package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"

	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
)

// fakeServer emulates the stream-input endpoint. It answers the flush
// message with the configured chunks and records every text frame.
type fakeServer struct {
	mu       sync.Mutex
	frames   []map[string]any
	query    string
	path     string
	chunks   []string // raw server messages sent after the flush
	closeEOF bool     // close normally instead of sending isFinal
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.path, f.query = r.URL.Path, r.URL.RawQuery
		f.mu.Unlock()

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var frame map[string]any
			_ = json.Unmarshal(msg, &frame)
			f.mu.Lock()
			f.frames = append(f.frames, frame)
			f.mu.Unlock()
			if frame["text"] == "" {
				break
			}
		}
		for _, c := range f.chunks {
			if err := conn.Write(ctx, websocket.MessageText, []byte(c)); err != nil {
				return
			}
		}
		if f.closeEOF {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		// Wait for the client to hang up.
		_, _, _ = conn.Read(ctx)
	})
}

func audioMsg(b []byte, final bool) string {
	m, _ := json.Marshal(audioResponse{Audio: base64.StdEncoding.EncodeToString(b), IsFinal: final})
	return string(m)
}

func newFake(t *testing.T, f *fakeServer) *Provider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	p, err := New("xi-test", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSynthesize(t *testing.T) {
	f := &fakeServer{chunks: []string{
		audioMsg([]byte("ID3"), false),
		`{"message":"progress"}`,
		audioMsg([]byte("-frames"), true),
	}}
	p := newFake(t, f)

	got, err := p.Synthesize(context.Background(), "దేవుడు లోకమును ప్రేమించెను", tts.VoiceProfile{ID: "voice-1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(got, []byte("ID3-frames")) {
		t.Errorf("audio = %q, want %q", got, "ID3-frames")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.path != "/v1/text-to-speech/voice-1/stream-input" {
		t.Errorf("path = %q", f.path)
	}
	if !strings.Contains(f.query, "output_format=mp3_44100_128") {
		t.Errorf("query = %q, want mp3 output format", f.query)
	}
	if len(f.frames) != 3 {
		t.Fatalf("frames = %d, want BOI, text and flush", len(f.frames))
	}
	if f.frames[0]["xi_api_key"] != "xi-test" {
		t.Errorf("BOI frame = %v, want api key", f.frames[0])
	}
	if !strings.HasPrefix(f.frames[1]["text"].(string), "దేవుడు") {
		t.Errorf("text frame = %v", f.frames[1])
	}
}

func TestSynthesize_NormalCloseEndsStream(t *testing.T) {
	f := &fakeServer{chunks: []string{audioMsg([]byte("mp3"), false)}, closeEOF: true}
	p := newFake(t, f)

	got, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{ID: "v"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != "mp3" {
		t.Errorf("audio = %q", got)
	}
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		eof    bool
	}{
		{"server error", []string{`{"error":"quota_exceeded","message":"out of credits"}`}, false},
		{"no audio before close", nil, true},
		{"bad base64", []string{`{"audio":"!!!","isFinal":true}`}, false},
		{"final without audio", []string{`{"isFinal":true}`}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newFake(t, &fakeServer{chunks: tc.chunks, closeEOF: tc.eof})
			if _, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{ID: "v"}); err == nil {
				t.Fatal("Synthesize succeeded, want error")
			}
		})
	}
}

func TestSynthesize_Validation(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Synthesize(context.Background(), "hi", tts.VoiceProfile{}); err == nil {
		t.Error("empty voice ID accepted")
	}
	if _, err := p.Synthesize(context.Background(), "  ", tts.VoiceProfile{ID: "v"}); err == nil {
		t.Error("blank text accepted")
	}
}

func TestListVoices(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			http.NotFound(w, r)
			return
		}
		gotKey = r.Header.Get("xi-api-key")
		_, _ = io.WriteString(w, `{
			"voices": [
				{"voice_id": "abc123", "name": "Rachel", "category": "premade",
				 "labels": {"gender": "female", "language": "te"}},
				{"voice_id": "x1", "name": "Ghost", "category": "", "labels": null}
			]
		}`)
	}))
	defer srv.Close()

	p, err := New("xi-test", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatal(err)
	}
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if gotKey != "xi-test" {
		t.Errorf("xi-api-key = %q", gotKey)
	}
	if len(voices) != 2 {
		t.Fatalf("len = %d, want 2", len(voices))
	}
	rachel := voices[0]
	if rachel.ID != "abc123" || rachel.Provider != "elevenlabs" || rachel.Language != "te" {
		t.Errorf("voice[0] = %+v", rachel)
	}
	if rachel.Metadata["category"] != "premade" {
		t.Errorf("category = %q", rachel.Metadata["category"])
	}
	if _, ok := voices[1].Metadata["category"]; ok {
		t.Error("empty category copied into metadata")
	}
}

func TestListVoices_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, _ := New("bad", WithBaseURL(srv.URL))
	if _, err := p.ListVoices(context.Background()); err == nil {
		t.Fatal("ListVoices succeeded, want error")
	}
}

func TestNew(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}

	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != defaultModel || p.outputFormat != defaultOutputFmt {
		t.Errorf("defaults = %q/%q", p.model, p.outputFormat)
	}
	if !strings.HasPrefix(p.streamURL("v"), "wss://api.elevenlabs.io/") {
		t.Errorf("streamURL = %q", p.streamURL("v"))
	}

	p, _ = New("key", WithModel("eleven_v3"), WithOutputFormat("mp3_22050_32"), WithBaseURL("https://example.test"))
	u := p.streamURL("v")
	for _, want := range []string{"wss://example.test/", "model_id=eleven_v3", "output_format=mp3_22050_32"} {
		if !strings.Contains(u, want) {
			t.Errorf("streamURL = %q, want it to contain %q", u, want)
		}
	}
}
