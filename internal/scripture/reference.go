package scripture

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Reference is a single parsed citation. Book is the external canonical name
// exactly as it appeared in the source (not yet validated against the book
// table); Chapter and Verse are decimal integers rendered as strings.
type Reference struct {
	Book    string
	Chapter string
	Verse   string
}

// String renders the reference as "Book chapter:verse".
func (r Reference) String() string {
	return r.Book + " " + r.Chapter + ":" + r.Verse
}

// citation is the participle grammar for one segment:
//
//	segment := [digit] word+ chapter ":" verse
//
// chapter:verse is a single token, so no whitespace may surround the colon.
// Other whitespace is elided by the lexer.
type citation struct {
	Prefix   string   `parser:"@Int?"`
	Words    []string `parser:"@Word+"`
	Location string   `parser:"@Location"`
}

// citationLexer tokenises a single citation segment. Other catches any
// character the grammar has no use for so that a stray symbol fails the
// segment instead of the lexer.
var citationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Location", Pattern: `[0-9]+:[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `[A-Za-z]+`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var citationParser = participle.MustBuild[citation](
	participle.Lexer(citationLexer),
	participle.Elide("Whitespace"),
)

// Parser extracts references from comma-separated citation lists produced
// by an unreliable generator. The zero value is ready to use and it is safe
// for concurrent use.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse splits s on commas and parses every segment independently. Segments
// that do not match the grammar are dropped; the result keeps source order,
// keeps duplicates and is empty (never nil-vs-error) when nothing matched.
func (p *Parser) Parse(s string) []Reference {
	segments := strings.Split(s, ",")
	refs := make([]Reference, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if ref, ok := parseSegment(seg); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// parseSegment applies the citation grammar to one trimmed segment.
func parseSegment(seg string) (Reference, bool) {
	// Trailing tokens are allowed so that "John 3:16-18" or
	// "John 3:16 (NIV)" still yield John 3:16.
	c, err := citationParser.ParseString("", seg, participle.AllowTrailing(true))
	if err != nil {
		return Reference{}, false
	}
	// The book-number prefix is a single digit ("1 John", "3 John").
	if len(c.Prefix) > 1 {
		return Reference{}, false
	}
	ch, vs, _ := strings.Cut(c.Location, ":")
	chapter, ok := canonicalInt(ch)
	if !ok {
		return Reference{}, false
	}
	verse, ok := canonicalInt(vs)
	if !ok {
		return Reference{}, false
	}

	book := strings.Join(c.Words, " ")
	if c.Prefix != "" {
		book = c.Prefix + " " + book
	}
	return Reference{Book: book, Chapter: chapter, Verse: verse}, true
}

// canonicalInt strips leading zeros so "03" and "3" address the same corpus
// key. Values that do not fit an int are rejected.
func canonicalInt(s string) (string, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}
