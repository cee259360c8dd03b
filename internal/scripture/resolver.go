package scripture

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for [Resolver.Suggest]
// to report a candidate.
const suggestThreshold = 0.85

// Resolver maps external canonical book names onto corpus keys using the
// fixed 66-entry table. It is immutable and safe for concurrent use.
type Resolver struct {
	byName map[string]string
	names  []string
}

// NewResolver builds a Resolver over the embedded book table.
func NewResolver() *Resolver {
	r := &Resolver{
		byName: make(map[string]string, len(bookTable)+len(citationForms)),
		names:  make([]string, 0, len(bookTable)),
	}
	for _, b := range bookTable {
		r.byName[b.Name] = b.CorpusName
		r.names = append(r.names, b.Name)
	}
	for form, name := range citationForms {
		r.byName[form] = r.byName[name]
	}
	return r
}

// Resolve returns the corpus key for name. Only surrounding whitespace is
// trimmed; case, abbreviations and alternate spellings are not normalised.
// The single exception is the singular "Psalm", which resolves like
// "Psalms" because the reference prompt's example cites "Psalm 23:1".
// The boolean is false when name is not in the table.
func (r *Resolver) Resolve(name string) (string, bool) {
	corpusName, ok := r.byName[strings.TrimSpace(name)]
	return corpusName, ok
}

// Names returns the 66 external book names in canonical order. Citation
// aliases such as "Psalm" resolve but are not listed. The returned slice is
// a copy.
func (r *Resolver) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Known reports whether corpusName is a corpus key listed in the table.
func (r *Resolver) Known(corpusName string) bool {
	for _, b := range bookTable {
		if b.CorpusName == corpusName {
			return true
		}
	}
	return false
}

// Suggest returns the table name most similar to name, for diagnostics only.
// It never affects resolution. ok is false when nothing is close enough.
func (r *Resolver) Suggest(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	best, bestScore := "", 0.0
	for _, candidate := range r.names {
		score := matchr.JaroWinkler(needle, strings.ToLower(candidate), false)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}
