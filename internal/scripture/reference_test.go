package scripture

import (
	"slices"
	"testing"
)

func TestParserParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Reference
	}{
		{
			name:  "single reference",
			input: "John 3:16",
			want:  []Reference{{"John", "3", "16"}},
		},
		{
			name:  "leading digit stays with the book",
			input: "1 Corinthians 13:4",
			want:  []Reference{{"1 Corinthians", "13", "4"}},
		},
		{
			name:  "multi word book",
			input: "Song of Songs 2:4",
			want:  []Reference{{"Song of Songs", "2", "4"}},
		},
		{
			name:  "order preserved",
			input: "Romans 8:28, Psalm 23:1, 3 John 1:2",
			want:  []Reference{{"Romans", "8", "28"}, {"Psalm", "23", "1"}, {"3 John", "1", "2"}},
		},
		{
			name:  "malformed segment dropped",
			input: "John 3:16, not-a-ref, Romans 8:28",
			want:  []Reference{{"John", "3", "16"}, {"Romans", "8", "28"}},
		},
		{
			name:  "duplicates kept",
			input: "John 3:16, John 3:16",
			want:  []Reference{{"John", "3", "16"}, {"John", "3", "16"}},
		},
		{
			name:  "surrounding and inner whitespace",
			input: "  Song   of\tSongs  2:4 ,\n Romans 8:28  ",
			want:  []Reference{{"Song of Songs", "2", "4"}, {"Romans", "8", "28"}},
		},
		{
			name:  "whitespace around colon rejected",
			input: "John 3 : 16, John 3 :16, John 3: 16, Romans 8:28",
			want:  []Reference{{"Romans", "8", "28"}},
		},
		{
			name:  "missing spaces tolerated",
			input: "1Corinthians 13:4, John3:16",
			want:  []Reference{{"1 Corinthians", "13", "4"}, {"John", "3", "16"}},
		},
		{
			name:  "trailing text ignored",
			input: "John 3:16-18, Romans 8:28 (NIV), Psalm 23:1.",
			want:  []Reference{{"John", "3", "16"}, {"Romans", "8", "28"}, {"Psalm", "23", "1"}},
		},
		{
			name:  "leading zeros normalised",
			input: "John 03:016",
			want:  []Reference{{"John", "3", "16"}},
		},
		{
			name:  "multi digit prefix rejected",
			input: "12 John 3:16",
			want:  []Reference{},
		},
		{
			name:  "missing verse",
			input: "John 3",
			want:  []Reference{},
		},
		{
			name:  "missing book",
			input: "3:16",
			want:  []Reference{},
		},
		{
			name:  "abbreviation with punctuation",
			input: "Ps. 23:1",
			want:  []Reference{},
		},
		{
			name:  "non latin book name",
			input: "యోహాను 3:16",
			want:  []Reference{},
		},
		{
			name:  "chapter overflows int",
			input: "John 99999999999999999999999:1",
			want:  []Reference{},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Reference{},
		},
		{
			name:  "only separators",
			input: " , ,, ",
			want:  []Reference{},
		},
		{
			name:  "prose around the list",
			input: "Here are some verses: John 3:16, Romans 8:28",
			want:  []Reference{{"Romans", "8", "28"}},
		},
	}

	p := NewParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Parse(tc.input)
			if got == nil {
				t.Fatal("Parse returned nil, want empty slice")
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParserParse_ZeroValue(t *testing.T) {
	var p Parser
	got := p.Parse("Jude 1:24")
	want := []Reference{{"Jude", "1", "24"}}
	if !slices.Equal(got, want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}
}

func TestReferenceString(t *testing.T) {
	ref := Reference{Book: "1 Corinthians", Chapter: "13", Verse: "4"}
	if got, want := ref.String(), "1 Corinthians 13:4"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func FuzzParserParse(f *testing.F) {
	for _, seed := range []string{
		"John 3:16",
		"1 Corinthians 13:4, Romans 8:28",
		"John 3:16, not-a-ref, Romans 8:28",
		"::,,1 2 3",
		"Song of Songs 2:4 (KJV)",
	} {
		f.Add(seed)
	}
	p := NewParser()
	f.Fuzz(func(t *testing.T, s string) {
		refs := p.Parse(s)
		for _, ref := range refs {
			if ref.Book == "" || ref.Chapter == "" || ref.Verse == "" {
				t.Fatalf("Parse(%q) produced incomplete reference %+v", s, ref)
			}
			// Every reference must survive a second parse unchanged.
			again := p.Parse(ref.String())
			if len(again) != 1 || again[0] != ref {
				t.Fatalf("Parse(%q) = %v, want [%v]", ref.String(), again, ref)
			}
		}
	})
}
