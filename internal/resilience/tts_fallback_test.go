package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
	ttsmock "github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts/mock"
)

func newTTSFallback(t *testing.T, primary, secondary tts.Provider) *TTSFallback {
	t.Helper()
	m, _ := testMetrics(t)
	fb := NewTTSFallback(primary, "elevenlabs", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
		Metrics:        m,
	})
	fb.AddFallback("gtts", secondary)
	return fb
}

func TestTTSFallback_Synthesize(t *testing.T) {
	voice := tts.VoiceProfile{ID: "v1", Language: "te"}

	t.Run("primary success", func(t *testing.T) {
		primary := &ttsmock.Provider{Audio: []byte("primary-mp3")}
		secondary := &ttsmock.Provider{Audio: []byte("fallback-mp3")}
		fb := newTTSFallback(t, primary, secondary)

		audio, err := fb.Synthesize(context.Background(), "నమస్కారం", voice)
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if string(audio) != "primary-mp3" {
			t.Errorf("audio = %q", audio)
		}
		calls := primary.Calls()
		if len(calls) != 1 || calls[0].Text != "నమస్కారం" || calls[0].Voice.ID != "v1" {
			t.Errorf("primary calls = %+v", calls)
		}
		if len(secondary.Calls()) != 0 {
			t.Error("secondary called")
		}
	})

	t.Run("failover", func(t *testing.T) {
		primary := &ttsmock.Provider{SynthesizeErr: errors.New("websocket closed")}
		secondary := &ttsmock.Provider{Audio: []byte("fallback-mp3")}
		fb := newTTSFallback(t, primary, secondary)

		audio, err := fb.Synthesize(context.Background(), "text", voice)
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if string(audio) != "fallback-mp3" {
			t.Errorf("audio = %q", audio)
		}
		if len(primary.Calls()) != 1 || len(secondary.Calls()) != 1 {
			t.Errorf("calls = %d/%d, want 1/1", len(primary.Calls()), len(secondary.Calls()))
		}
	})

	t.Run("all fail", func(t *testing.T) {
		fb := newTTSFallback(t,
			&ttsmock.Provider{SynthesizeErr: errors.New("a")},
			&ttsmock.Provider{SynthesizeErr: errors.New("b")},
		)
		if _, err := fb.Synthesize(context.Background(), "text", voice); !errors.Is(err, ErrAllFailed) {
			t.Fatalf("err = %v, want ErrAllFailed", err)
		}
	})
}

func TestTTSFallback_ListVoices(t *testing.T) {
	primary := &ttsmock.Provider{ListVoicesErr: errors.New("unauthorized")}
	secondary := &ttsmock.Provider{ListVoicesResult: []tts.VoiceProfile{{ID: "te", Provider: "gtts"}}}
	fb := newTTSFallback(t, primary, secondary)

	voices, err := fb.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 || voices[0].Provider != "gtts" {
		t.Errorf("voices = %+v", voices)
	}
}
