package opsmem

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddKnowledge inserts a knowledge entry and returns its id, generating one
// when the caller left it empty. Entries are immutable; to change one,
// delete it and insert again. The full-text shadow index follows the insert
// automatically.
func (s *Store) AddKnowledge(entry *KnowledgeEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = time.Now().UTC().Format("2006-01-02")
	}

	_, err := s.db.Exec(queryInsertKnowledge, entry.ID, entry.Source, entry.SourceID, entry.Text, entry.Date)
	if err != nil {
		return "", err
	}

	return entry.ID, nil
}

// GetKnowledge returns the entry with the given id, or nil when absent.
func (s *Store) GetKnowledge(id string) (*KnowledgeEntry, error) {
	var e KnowledgeEntry
	err := s.db.QueryRow(queryGetKnowledge, id).Scan(&e.ID, &e.Source, &e.SourceID, &e.Text, &e.Date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// AllKnowledge reads the full corpus, the input for vocabulary and vector
// rebuilds.
func (s *Store) AllKnowledge() ([]*KnowledgeEntry, error) {
	rows, err := s.db.Query(queryAllKnowledge)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	var entries []*KnowledgeEntry

	for rows.Next() {
		var e KnowledgeEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.SourceID, &e.Text, &e.Date); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// DeleteKnowledge removes an entry along with its vector record. The
// full-text shadow row is dropped by trigger.
func (s *Store) DeleteKnowledge(id string) error {
	if _, err := s.db.Exec(queryDeleteKnowledge, id); err != nil {
		return err
	}

	return s.DeleteEmbedding(id)
}

// EmbedKnowledge embeds a single stored entry with the current embedder and
// upserts its vector. Incremental path between full rebuilds; uses whatever
// vocabulary is loaded right now.
func (s *Store) EmbedKnowledge(ctx context.Context, id string) error {
	entry, err := s.GetKnowledge(id)
	if err != nil {
		return err
	}
	if entry == nil {
		return sql.ErrNoRows
	}

	embedding, err := s.embedder.Embed(ctx, entry.Text)
	if err != nil {
		return err
	}

	return s.UpsertEmbedding(id, embedding)
}

// SearchKnowledge runs a lexical MATCH over the corpus shadow index. Query
// tokens shorter than two characters are dropped; if none survive, no
// wildcard match is attempted and the result is empty. Best effort: engine
// failures degrade to an empty result with a warning.
func (s *Store) SearchKnowledge(query string, limit int) ([]*KnowledgeEntry, error) {
	tokens := tokenize(query, 2)
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(querySearchKnowledge, ftsMatchExpr(tokens), limit)
	if err != nil {
		logger.Warn("knowledge search failed", "error", err)
		return nil, nil
	}

	defer rows.Close()
	var entries []*KnowledgeEntry

	for rows.Next() {
		var e KnowledgeEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.SourceID, &e.Text, &e.Date); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// ftsMatchExpr builds an OR query of quoted tokens, so user input can never
// inject FTS5 syntax.
func ftsMatchExpr(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " OR ")
}
