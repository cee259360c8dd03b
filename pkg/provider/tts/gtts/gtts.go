// Package gtts provides a TTS provider backed by the Google Translate speech
// endpoint, the same service the gTTS Python library uses. It needs no API key
// and speaks Telugu ("te") among many other languages.
//
// The endpoint accepts at most [MaxChunkRunes] characters per request, so long
// answers are split at sentence and word boundaries. Chunks are fetched
// concurrently and the MP3 segments are concatenated in order; MP3 frames
// are self-delimiting, so the result is a single playable file.
package gtts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
)

const (
	defaultBaseURL  = "https://translate.google.com"
	ttsEndpoint     = "/translate_tts"
	defaultLanguage = "te"
	defaultTimeout  = 30 * time.Second

	// MaxChunkRunes is the per-request text limit of the endpoint.
	MaxChunkRunes = 100

	// maxParallel bounds concurrent chunk requests for one Synthesize call.
	maxParallel = 4
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the default language code (e.g. "te", "en"). A voice
// profile with a Language overrides it per call.
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithTimeout sets the per-request HTTP timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// WithBaseURL points the provider at a different host, e.g.
// "https://translate.google.co.in" or a test server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) { p.httpClient = hc }
}

// Provider implements tts.Provider. It is safe for concurrent use.
type Provider struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// New creates a Provider with the given options.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		baseURL:    defaultBaseURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	if p.language == "" {
		return nil, errors.New("gtts: language must not be empty")
	}
	if _, err := url.Parse(p.baseURL); err != nil {
		return nil, fmt.Errorf("gtts: invalid base URL: %w", err)
	}
	return p, nil
}

// Synthesize converts text to MP3 audio. voice.Language, when set, selects
// the spoken language; voice.ID is ignored because the endpoint has a single
// voice per language.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	chunks := SplitText(text, MaxChunkRunes)
	if len(chunks) == 0 {
		return nil, errors.New("gtts: text must not be empty")
	}
	lang := p.language
	if voice.Language != "" {
		lang = voice.Language
	}

	parts := make([][]byte, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, chunk := range chunks {
		g.Go(func() error {
			audio, err := p.fetch(gctx, chunk, lang, i, len(chunks))
			if err != nil {
				return fmt.Errorf("gtts: chunk %d/%d: %w", i+1, len(chunks), err)
			}
			parts[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var size int
	for _, b := range parts {
		size += len(b)
	}
	out := make([]byte, 0, size)
	for _, b := range parts {
		out = append(out, b...)
	}
	return out, nil
}

// fetch performs one GET against the speech endpoint.
func (p *Provider) fetch(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", chunk)
	params.Set("total", strconv.Itoa(total))
	params.Set("idx", strconv.Itoa(idx))
	params.Set("textlen", strconv.Itoa(len([]rune(chunk))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+ttsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", ttsEndpoint, resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("empty audio response")
	}
	return audio, nil
}

// ListVoices returns the single voice per supported language this provider
// exposes. Only the configured language is listed.
func (p *Provider) ListVoices(_ context.Context) ([]tts.VoiceProfile, error) {
	return []tts.VoiceProfile{{
		ID:       p.language,
		Name:     "Google Translate (" + p.language + ")",
		Provider: "gtts",
		Language: p.language,
	}}, nil
}

// SplitText breaks text into chunks of at most limit runes. It prefers to cut
// after a sentence terminator, then at whitespace, and cuts mid-word only when
// a single word exceeds limit. Chunks are trimmed and empty chunks dropped.
func SplitText(text string, limit int) []string {
	var chunks []string
	rest := []rune(strings.TrimSpace(text))
	for len(rest) > 0 {
		if len(rest) <= limit {
			chunks = appendChunk(chunks, rest)
			break
		}
		cut := lastBoundary(rest[:limit], isSentenceEnd)
		if cut <= 0 {
			// A space at index limit is trimmed away, so it may be the cut.
			cut = lastBoundary(rest[:limit+1], unicode.IsSpace)
		}
		if cut <= 0 {
			cut = limit
		}
		chunks = appendChunk(chunks, rest[:cut])
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	return chunks
}

func appendChunk(chunks []string, r []rune) []string {
	if s := strings.TrimSpace(string(r)); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// lastBoundary returns the index just past the last rune in r matching fn,
// or -1.
func lastBoundary(r []rune, fn func(rune) bool) int {
	for i := len(r) - 1; i >= 0; i-- {
		if fn(r[i]) {
			return i + 1
		}
	}
	return -1
}

func isSentenceEnd(c rune) bool {
	switch c {
	case '.', '!', '?', '।', ';', ':', '\n':
		return true
	}
	return false
}

var _ tts.Provider = (*Provider)(nil)
