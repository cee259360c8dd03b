// Package scripture resolves free-form scripture citations into verse text
// from the loaded Telugu corpus.
//
// The pipeline is split into four independent pieces:
//
//   - [Corpus] holds the scripture text and answers exact-match lookups.
//   - [Resolver] maps English canonical book names onto corpus keys.
//   - [Parser] turns a comma-separated citation list into [Reference] values.
//   - [Retriever] chains the three and annotates every verse it finds.
//
// Corpus and Resolver are built once at startup and are read-only afterwards,
// so every type in this package is safe for concurrent use without locking.
package scripture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"
)

// ErrCorpusLoad wraps every failure to read or decode the corpus. It is fatal
// for the pipeline: callers must report the service as unavailable rather
// than retry.
var ErrCorpusLoad = errors.New("scripture: corpus load failed")

// chapters maps chapter number → verse number → verse text.
type chapters = map[string]map[string]string

// Corpus is an immutable, in-memory scripture text keyed by
// book → chapter → verse.
type Corpus struct {
	books map[string]chapters
}

// Stats summarises the size of a loaded corpus.
type Stats struct {
	Books    int
	Chapters int
	Verses   int
}

// NewCorpus wraps an already decoded book map. The map is taken over by the
// Corpus and must not be modified by the caller afterwards.
func NewCorpus(books map[string]map[string]map[string]string) *Corpus {
	if books == nil {
		books = map[string]chapters{}
	}
	return &Corpus{books: books}
}

// LoadCorpus reads a UTF-8 JSON corpus from path. Both shapes produced by the
// upstream download scripts are accepted: a single object keyed by book, or
// a list of single-book objects which are merged in order. A path ending in
// ".xz" is decompressed first.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := readCorpusFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", ErrCorpusLoad, path, err)
	}
	c, err := DecodeCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCorpusLoad, path, err)
	}
	return c, nil
}

func readCorpusFile(path string) ([]byte, error) {
	if !strings.HasSuffix(path, ".xz") {
		return os.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	xzr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return io.ReadAll(xzr)
}

// DecodeCorpus decodes a JSON corpus document held in memory.
func DecodeCorpus(data []byte) (*Corpus, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty corpus document")
	}

	switch trimmed[0] {
	case '{':
		var books map[string]chapters
		if err := json.Unmarshal(trimmed, &books); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		return NewCorpus(books), nil

	case '[':
		var parts []map[string]chapters
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		books := make(map[string]chapters, len(parts))
		for _, part := range parts {
			for name, chs := range part {
				books[name] = chs
			}
		}
		return NewCorpus(books), nil

	default:
		return nil, fmt.Errorf("unexpected corpus document starting with %q", trimmed[0])
	}
}

// Lookup returns the verse text stored under the exact keys given. The
// boolean is false when any level of the key path is missing.
func (c *Corpus) Lookup(book, chapter, verse string) (string, bool) {
	chs, ok := c.books[book]
	if !ok {
		return "", false
	}
	verses, ok := chs[chapter]
	if !ok {
		return "", false
	}
	text, ok := verses[verse]
	return text, ok
}

// Books returns the corpus book keys in sorted order.
func (c *Corpus) Books() []string {
	names := make([]string, 0, len(c.books))
	for name := range c.books {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats counts books, chapters and verses.
func (c *Corpus) Stats() Stats {
	var s Stats
	s.Books = len(c.books)
	for _, chs := range c.books {
		s.Chapters += len(chs)
		for _, verses := range chs {
			s.Verses += len(verses)
		}
	}
	return s
}

// UnknownBooks lists corpus book keys that r does not map to, in sorted
// order. A well-formed corpus yields an empty result.
func (c *Corpus) UnknownBooks(r *Resolver) []string {
	var unknown []string
	for _, name := range c.Books() {
		if !r.Known(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}
