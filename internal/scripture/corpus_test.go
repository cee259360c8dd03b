package scripture

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ulikunitz/xz"
)

const (
	johnKey   = "యోహాను సువార్త"
	romansKey = "రోమీయులకు"
	psalmsKey = "కీర్తనల గ్రంథము"
	songKey   = "పరమగీతము "
)

func TestLoadCorpus(t *testing.T) {
	for _, file := range []string{"corpus.json", "corpus_list.json"} {
		t.Run(file, func(t *testing.T) {
			c, err := LoadCorpus(filepath.Join("testdata", file))
			if err != nil {
				t.Fatalf("LoadCorpus: %v", err)
			}
			got := c.Stats()
			want := Stats{Books: 5, Chapters: 5, Verses: 6}
			if got != want {
				t.Errorf("Stats() = %+v, want %+v", got, want)
			}
			text, ok := c.Lookup(johnKey, "3", "16")
			if !ok || text == "" {
				t.Errorf("Lookup(John 3:16) = %q, %v, want text", text, ok)
			}
			if _, ok := c.Lookup(songKey, "2", "4"); !ok {
				t.Error("book key with trailing space was not kept verbatim")
			}
		})
	}
}

func TestLoadCorpus_XZ(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "corpus.json"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "corpus.json.xz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if got, want := c.Stats(), (Stats{Books: 5, Chapters: 5, Verses: 6}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	// A plain JSON file with an .xz name is a load error.
	bogus := filepath.Join(t.TempDir(), "plain.json.xz")
	if err := os.WriteFile(bogus, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpus(bogus); !errors.Is(err, ErrCorpusLoad) {
		t.Errorf("LoadCorpus(bogus xz) err = %v, want ErrCorpusLoad", err)
	}
}

func TestLoadCorpus_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"empty document", write("empty.json", "  \n")},
		{"not json", write("bad.json", "{not json")},
		{"wrong shape", write("shape.json", `{"John": ["3", "16"]}`)},
		{"scalar document", write("scalar.json", `42`)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := LoadCorpus(tc.path)
			if err == nil {
				t.Fatalf("LoadCorpus(%s) = %v, want error", tc.name, c)
			}
			if !errors.Is(err, ErrCorpusLoad) {
				t.Errorf("error %v does not wrap ErrCorpusLoad", err)
			}
		})
	}
}

func TestDecodeCorpus_ListMergesInOrder(t *testing.T) {
	doc := `[
		{"a": {"1": {"1": "first"}}},
		{"b": {"1": {"1": "other"}}},
		{"a": {"2": {"1": "second"}}}
	]`
	c, err := DecodeCorpus([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeCorpus: %v", err)
	}
	// A later entry for the same book replaces the earlier one.
	if _, ok := c.Lookup("a", "1", "1"); ok {
		t.Error("Lookup(a 1:1) found, want replaced by later entry")
	}
	if text, ok := c.Lookup("a", "2", "1"); !ok || text != "second" {
		t.Errorf("Lookup(a 2:1) = %q, %v, want %q", text, ok, "second")
	}
	if got, want := c.Books(), []string{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("Books() = %v, want %v", got, want)
	}
}

func TestCorpusLookup_Gaps(t *testing.T) {
	c := NewCorpus(map[string]map[string]map[string]string{
		johnKey: {
			"3": {"16": "text", "18": "more"},
			"5": {"1": "five"},
		},
	})

	tests := []struct {
		name                 string
		book, chapter, verse string
		wantOK               bool
	}{
		{"present", johnKey, "3", "16", true},
		{"verse gap", johnKey, "3", "17", false},
		{"chapter gap", johnKey, "4", "1", false},
		{"unknown book", "John", "3", "16", false},
		{"no trim on corpus keys", johnKey + " ", "3", "16", false},
		{"leading zero is a different key", johnKey, "03", "16", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := c.Lookup(tc.book, tc.chapter, tc.verse)
			if ok != tc.wantOK {
				t.Errorf("Lookup(%q, %q, %q) ok = %v, want %v", tc.book, tc.chapter, tc.verse, ok, tc.wantOK)
			}
		})
	}
}

func TestNewCorpus_Nil(t *testing.T) {
	c := NewCorpus(nil)
	if _, ok := c.Lookup(johnKey, "3", "16"); ok {
		t.Error("empty corpus returned a verse")
	}
	if got := c.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero", got)
	}
}

func TestCorpusUnknownBooks(t *testing.T) {
	c := NewCorpus(map[string]map[string]map[string]string{
		johnKey:   {},
		"Genesis": {},
		songKey:   {},
		"పరమగీతము": {},
	})
	got := c.UnknownBooks(NewResolver())
	want := []string{"Genesis", "పరమగీతము"}
	if !slices.Equal(got, want) {
		t.Errorf("UnknownBooks() = %q, want %q", got, want)
	}
}

func TestLoadCorpusSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE verses (book TEXT, chapter TEXT, verse TEXT, text TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows := [][4]string{
		{johnKey, "3", "16", "john text"},
		{johnKey, "3", "17", "more john"},
		{romansKey, "8", "28", "romans text"},
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO verses VALUES (?, ?, ?, ?)`, r[0], r[1], r[2], r[3]); err != nil {
			t.Fatalf("insert %v: %v", r, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	c, err := LoadCorpusSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCorpusSQLite: %v", err)
	}
	if got, want := c.Stats(), (Stats{Books: 2, Chapters: 2, Verses: 3}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
	if text, ok := c.Lookup(romansKey, "8", "28"); !ok || text != "romans text" {
		t.Errorf("Lookup(Romans 8:28) = %q, %v, want %q", text, ok, "romans text")
	}
}

func TestLoadCorpusSQLite_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCorpusSQLite(context.Background(), filepath.Join(dir, "nope.db"))
		if !errors.Is(err, ErrCorpusLoad) {
			t.Errorf("err = %v, want ErrCorpusLoad", err)
		}
	})

	t.Run("missing table", func(t *testing.T) {
		path := filepath.Join(dir, "empty.db")
		db, err := sql.Open("sqlite", path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(`CREATE TABLE other (x TEXT)`); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		_, err = LoadCorpusSQLite(context.Background(), path)
		if !errors.Is(err, ErrCorpusLoad) {
			t.Errorf("err = %v, want ErrCorpusLoad", err)
		}
	})
}
