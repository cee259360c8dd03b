package scripture

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
)

// RetrievedVerse is a reference that resolved to text in the corpus.
type RetrievedVerse struct {
	Reference

	// CorpusBook is the corpus key the reference's book resolved to.
	CorpusBook string

	// Text is the verse text as stored in the corpus.
	Text string
}

// Annotated renders the verse as a citation-plus-text unit:
//
//	**[<corpus book> <chapter>:<verse>]** - <text>
//
// The corpus book keeps any trailing whitespace the corpus key carries.
func (v RetrievedVerse) Annotated() string {
	return "**[" + v.CorpusBook + " " + v.Chapter + ":" + v.Verse + "]** - " + v.Text
}

// JoinAnnotated renders verses one per line, in order.
func JoinAnnotated(verses []RetrievedVerse) string {
	lines := make([]string, len(verses))
	for i, v := range verses {
		lines[i] = v.Annotated()
	}
	return strings.Join(lines, "\n")
}

// RetrieverOption is a functional option for [NewRetriever].
type RetrieverOption func(*Retriever)

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) RetrieverOption {
	return func(r *Retriever) { r.metrics = m }
}

// WithParser replaces the default [Parser].
func WithParser(p *Parser) RetrieverOption {
	return func(r *Retriever) { r.parser = p }
}

// Retriever chains parse → resolve → lookup → annotate. It holds no mutable
// state and is safe for concurrent use.
type Retriever struct {
	corpus   *Corpus
	resolver *Resolver
	parser   *Parser
	metrics  *observe.Metrics
}

// NewRetriever returns a Retriever over corpus and resolver.
func NewRetriever(corpus *Corpus, resolver *Resolver, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		corpus:   corpus,
		resolver: resolver,
		parser:   NewParser(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// Retrieve parses s and returns every reference that resolved to corpus text,
// in source order and without deduplication. References with an unknown book
// or a missing chapter or verse are dropped. Retrieve never fails; an empty
// result means nothing could be retrieved.
func (r *Retriever) Retrieve(ctx context.Context, s string) []RetrievedVerse {
	ctx, span := observe.StartSpan(ctx, "scripture.Retrieve")
	defer span.End()

	log := observe.Logger(ctx)
	refs := r.parser.Parse(s)
	out := make([]RetrievedVerse, 0, len(refs))

	for _, ref := range refs {
		corpusBook, ok := r.resolver.Resolve(ref.Book)
		if !ok {
			r.metrics.RecordReference(ctx, observe.OutcomeUnresolved)
			attrs := []any{"reference", ref.String()}
			if hint, ok := r.resolver.Suggest(ref.Book); ok {
				attrs = append(attrs, "did_you_mean", hint)
			}
			log.Debug("scripture: unresolved book name", attrs...)
			continue
		}

		text, ok := r.corpus.Lookup(corpusBook, ref.Chapter, ref.Verse)
		if !ok {
			r.metrics.RecordReference(ctx, observe.OutcomeNotFound)
			log.Debug("scripture: verse not in corpus",
				"reference", ref.String(),
				slog.String("corpus_book", corpusBook),
			)
			continue
		}

		r.metrics.RecordReference(ctx, observe.OutcomeRetrieved)
		out = append(out, RetrievedVerse{
			Reference:  ref,
			CorpusBook: corpusBook,
			Text:       text,
		})
	}

	span.SetAttributes(
		attribute.Int("scripture.parsed", len(refs)),
		attribute.Int("scripture.retrieved", len(out)),
	)
	if len(refs) > 0 && len(out) == 0 {
		span.AddEvent("nothing retrieved", trace.WithAttributes(attribute.String("input", s)))
	}
	return out
}
