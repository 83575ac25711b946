package opsmem

import (
	"database/sql"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// Open opens (or creates) the database at path and migrates it. The returned
// Store is the single owning handle for every substore; share it, and Close
// it when done. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, vectorizer: NewVectorizer()}
	s.embedder = s.vectorizer

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	if pruned, err := s.PruneEpisodes(); err != nil {
		logger.Warn("episode pruning failed", "error", err)
	} else if pruned > 0 {
		logger.Info("pruned expired episodes", "count", pruned)
	}

	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// vec0 lives in the sqlite-vec extension; if it cannot be created the
	// store still opens and vector search degrades to empty results.
	if _, err := s.db.Exec(vecSchema); err != nil {
		logger.Warn("vector index unavailable", "error", err)
		s.vecAvailable = false
		return nil
	}
	s.vecAvailable = true

	return nil
}

// SetEmbedder swaps the embedding function used for indexing and text
// search. The default is the built-in statistical Vectorizer.
func (s *Store) SetEmbedder(e Embedder) {
	if e == nil {
		s.embedder = s.vectorizer
		return
	}
	s.embedder = e
}

// Vectorizer returns the built-in statistical embedder. Its vocabulary is
// rebuilt by IndexAllKnowledge and RebuildVocabulary.
func (s *Store) Vectorizer() *Vectorizer {
	return s.vectorizer
}

// IsVocabularyReady reports whether the statistical embedder can embed.
func (s *Store) IsVocabularyReady() bool {
	return s.vectorizer.Ready()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}
