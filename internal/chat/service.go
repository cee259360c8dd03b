// Package chat answers questions with the two-call pipeline: the model picks
// citations, the corpus supplies their text, the model writes an answer
// grounded on that text, and the spoken part of the answer becomes an audio
// artifact.
//
// Provider failures never surface as errors from [Service.Ask]. They degrade
// the response instead: no verses, an apology as the answer, or no audio.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/teja-palleti/Yesu-Mitra/internal/artifact"
	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
	"github.com/teja-palleti/Yesu-Mitra/internal/scripture"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm"
)

// ErrEmptyQuery is returned by [Service.Ask] for a blank question.
var ErrEmptyQuery = errors.New("chat: empty query")

const (
	// UnavailableMessage is the answer when the corpus or the model is not
	// configured.
	UnavailableMessage = "The chatbot service is currently unavailable due to a configuration error."

	apologyFormat = "My dear friend, I am sorry, but I encountered an error while seeking God's wisdom for you: %v"
)

// Retriever turns a citation list into verses.
type Retriever interface {
	Retrieve(ctx context.Context, citations string) []scripture.RetrievedVerse
}

// Producer synthesizes an audio artifact for a text.
type Producer interface {
	Produce(ctx context.Context, text string) (*artifact.Artifact, error)
}

var (
	_ Retriever = (*scripture.Retriever)(nil)
	_ Producer  = (*artifact.Manager)(nil)
)

// Settings tunes the model calls. They can be replaced at runtime with
// [Service.SetSettings].
type Settings struct {
	LLMTimeout           time.Duration
	TTSTimeout           time.Duration
	ReferenceTemperature float64
	AnswerTemperature    float64
	MaxTokens            int
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() Settings {
	return Settings{
		LLMTimeout:           60 * time.Second,
		TTSTimeout:           30 * time.Second,
		ReferenceTemperature: 0.3,
		AnswerTemperature:    0.7,
	}
}

// Response is the result of one question.
type Response struct {
	// Answer is the full model answer, or a degradation message.
	Answer string

	// Audio is the spoken answer. Nil when synthesis is disabled or failed.
	Audio *artifact.Artifact

	// Verses are the retrieved verses the answer was grounded on, in citation
	// order. Never nil.
	Verses []scripture.RetrievedVerse

	// Modes are the answer styles detected in the question.
	Modes Mode
}

// Option is a functional option for [New].
type Option func(*Service)

// WithProducer enables audio. Without it responses carry no audio.
func WithProducer(p Producer) Option {
	return func(s *Service) { s.producer = p }
}

// WithSettings sets the initial settings.
func WithSettings(st Settings) Option {
	return func(s *Service) { s.settings.Store(&st) }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBookNames sets the book names offered to the model in the citation
// prompt. Defaults to the names known to [scripture.NewResolver].
func WithBookNames(names []string) Option {
	return func(s *Service) { s.bookNames = names }
}

// Service runs the question pipeline. It is safe for concurrent use.
type Service struct {
	retriever Retriever
	model     llm.Provider
	producer  Producer
	metrics   *observe.Metrics
	bookNames []string
	settings  atomic.Pointer[Settings]
}

// New creates a Service. A nil retriever (no corpus) or nil model makes every
// question return [UnavailableMessage].
func New(retriever Retriever, model llm.Provider, opts ...Option) *Service {
	s := &Service{
		retriever: retriever,
		model:     model,
	}
	for _, o := range opts {
		o(s)
	}
	if s.settings.Load() == nil {
		st := DefaultSettings()
		s.settings.Store(&st)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.bookNames == nil {
		s.bookNames = scripture.NewResolver().Names()
	}
	return s
}

// Settings returns the current settings.
func (s *Service) Settings() Settings {
	return *s.settings.Load()
}

// SetSettings replaces the settings for subsequent questions.
func (s *Service) SetSettings(st Settings) {
	s.settings.Store(&st)
}

// Ready reports whether questions get real answers.
func (s *Service) Ready() error {
	var errs []error
	if s.retriever == nil {
		errs = append(errs, errors.New("corpus not loaded"))
	}
	if s.model == nil {
		errs = append(errs, errors.New("no language model configured"))
	}
	return errors.Join(errs...)
}

// Ask answers query. The only error is [ErrEmptyQuery].
func (s *Service) Ask(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := observe.StartSpan(ctx, "chat.Ask")
	defer span.End()
	log := observe.Logger(ctx)

	modes := DetectModes(query)
	span.SetAttributes(attribute.String("chat.modes", modes.String()))

	resp := &Response{Verses: []scripture.RetrievedVerse{}, Modes: modes}
	if err := s.Ready(); err != nil {
		log.Warn("chat: service unavailable", "err", err)
		resp.Answer = UnavailableMessage
		return resp, nil
	}

	st := s.Settings()

	resp.Verses = s.findVerses(ctx, query, st)
	span.SetAttributes(attribute.Int("chat.verses", len(resp.Verses)))

	answer, err := s.complete(ctx, "answer", st, llm.CompletionRequest{
		SystemPrompt: SystemPrompt(modes),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: AnswerPrompt(query, scripture.JoinAnnotated(resp.Verses))}},
		Temperature:  llm.Float(st.AnswerTemperature),
		MaxTokens:    st.MaxTokens,
	})
	if err != nil {
		log.Error("chat: answer call failed", "err", err)
		span.RecordError(err)
		resp.Answer = fmt.Sprintf(apologyFormat, err)
	} else {
		resp.Answer = answer
	}

	resp.Audio = s.speak(ctx, resp.Answer, st)
	return resp, nil
}

// findVerses asks the model for citations and resolves them. A failed call
// yields no verses.
func (s *Service) findVerses(ctx context.Context, query string, st Settings) []scripture.RetrievedVerse {
	citations, err := s.complete(ctx, "references", st, llm.UserText(
		referenceSystem,
		ReferencePrompt(query, s.bookNames),
		st.ReferenceTemperature,
	))
	if err != nil {
		observe.Logger(ctx).Warn("chat: reference call failed, answering without verses", "err", err)
		return []scripture.RetrievedVerse{}
	}
	observe.Logger(ctx).Debug("chat: model citations", "citations", citations)
	return s.retriever.Retrieve(ctx, citations)
}

// complete runs one model call under the configured timeout and records its
// latency under the given call label.
func (s *Service) complete(ctx context.Context, call string, st Settings, req llm.CompletionRequest) (string, error) {
	if st.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.LLMTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.model.Complete(ctx, req)
	s.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("call", call)))
	if err != nil {
		return "", fmt.Errorf("chat: %s call: %w", call, err)
	}
	return strings.TrimSpace(out.Content), nil
}

// speak produces the audio for an answer. Failures are logged and yield nil.
func (s *Service) speak(ctx context.Context, answer string, st Settings) *artifact.Artifact {
	if s.producer == nil {
		return nil
	}
	text := SpeechText(answer)
	if text == "" {
		return nil
	}
	// Synthesis runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	if st.TTSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.TTSTimeout)
		defer cancel()
	}
	art, err := s.producer.Produce(ctx, text)
	if err != nil {
		observe.Logger(ctx).Warn("chat: answering without audio", "err", err)
		return nil
	}
	return art
}
