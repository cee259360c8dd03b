package scripture

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// versesQuery reads the whole corpus table. Row order is irrelevant because
// the result is keyed.
const versesQuery = `SELECT book, chapter, verse, text FROM verses`

// LoadCorpusSQLite reads the corpus from the verses table of the SQLite file
// at path:
//
//	CREATE TABLE verses (book TEXT, chapter TEXT, verse TEXT, text TEXT);
//
// The database is opened read-only and closed before returning; the data is
// held in memory like a JSON corpus.
func LoadCorpusSQLite(ctx context.Context, path string) (*Corpus, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: stat %q: %w", ErrCorpusLoad, path, err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrCorpusLoad, path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, versesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %w", ErrCorpusLoad, path, err)
	}
	defer rows.Close()

	books := make(map[string]chapters)
	for rows.Next() {
		var book, chapter, verse, text string
		if err := rows.Scan(&book, &chapter, &verse, &text); err != nil {
			return nil, fmt.Errorf("%w: scan %q: %w", ErrCorpusLoad, path, err)
		}
		chs, ok := books[book]
		if !ok {
			chs = make(chapters)
			books[book] = chs
		}
		verses, ok := chs[chapter]
		if !ok {
			verses = make(map[string]string)
			chs[chapter] = verses
		}
		verses[verse] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", ErrCorpusLoad, path, err)
	}
	return NewCorpus(books), nil
}
