package scripture

import (
	"slices"
	"strings"
	"testing"
)

func TestBookTable(t *testing.T) {
	names := make(map[string]bool, len(bookTable))
	corpusNames := make(map[string]bool, len(bookTable))
	for _, b := range bookTable {
		if b.Name == "" || b.CorpusName == "" {
			t.Errorf("incomplete table entry %+v", b)
		}
		if names[b.Name] {
			t.Errorf("duplicate name %q", b.Name)
		}
		if corpusNames[b.CorpusName] {
			t.Errorf("duplicate corpus name %q", b.CorpusName)
		}
		names[b.Name] = true
		corpusNames[b.CorpusName] = true
	}
	for form, name := range citationForms {
		if !names[name] {
			t.Errorf("citation form %q points at unknown name %q", form, name)
		}
		if names[form] {
			t.Errorf("citation form %q shadows a table name", form)
		}
	}
}

func TestResolverResolve(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"simple", "John", johnKey, true},
		{"numbered", "1 Corinthians", "1 కొరింథీయులకు", true},
		{"multi word", "Song of Songs", songKey, true},
		{"surrounding whitespace trimmed", "  Romans\t", romansKey, true},
		{"singular citation form", "Psalm", psalmsKey, true},
		{"plural table name", "Psalms", psalmsKey, true},
		{"lower case", "john", "", false},
		{"abbreviation", "Rom", "", false},
		{"alternate spelling", "Song of Solomon", "", false},
		{"inner whitespace not normalised", "1  Corinthians", "", false},
		{"empty", "", "", false},
		{"corpus key is not an external name", johnKey, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Resolve(tc.input)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("Resolve(%q) = %q, %v, want %q, %v", tc.input, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestResolverNames(t *testing.T) {
	r := NewResolver()
	names := r.Names()
	if len(names) != 66 {
		t.Fatalf("len(Names()) = %d, want 66", len(names))
	}
	if names[0] != "Genesis" || names[65] != "Revelation" {
		t.Errorf("Names() not in canonical order: first %q, last %q", names[0], names[65])
	}

	names[0] = "mutated"
	if r.Names()[0] != "Genesis" {
		t.Error("Names() exposes internal storage")
	}
	for _, n := range names[1:] {
		if _, ok := r.Resolve(n); !ok {
			t.Errorf("Names() entry %q does not resolve", n)
		}
	}
	if slices.Contains(r.Names(), "Psalm") {
		t.Error("Names() lists the citation alias \"Psalm\"")
	}
}

func TestResolverKnown(t *testing.T) {
	r := NewResolver()
	if !r.Known(songKey) {
		t.Errorf("Known(%q) = false, want true", songKey)
	}
	if r.Known(strings.TrimSpace(songKey)) {
		t.Errorf("Known(%q) = true, want false", strings.TrimSpace(songKey))
	}
}

func TestResolverSuggest(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Jhon", "John", true},
		{"romans", "Romans", true},
		{"Revelations", "Revelation", true},
		{"1 Corinthian", "1 Corinthians", true},
		{"Quran", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := r.Suggest(tc.input)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("Suggest(%q) = %q, %v, want %q, %v", tc.input, got, ok, tc.want, tc.wantOK)
			}
			// Suggestions never make a name resolvable.
			if _, resolved := r.Resolve(tc.input); resolved && tc.input != tc.want {
				t.Errorf("Resolve(%q) succeeded after Suggest", tc.input)
			}
		})
	}
}
