package opsmem

import (
	"context"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"
)

func serializeEmbedding(embedding []float32) ([]byte, error) {
	return sqlite_vec.SerializeFloat32(embedding)
}

// UpsertEmbedding stores an embedding under a string entry id. Ids map to
// integer handles through vec_meta because vec0 rows are keyed by integer
// only. An existing id keeps its handle: the old vector row is deleted and
// a new one inserted at the same rowid, since vec0 has no in-place update.
func (s *Store) UpsertEmbedding(id string, embedding []float32) error {
	if !s.vecAvailable {
		return fmt.Errorf("opsmem: vector index unavailable")
	}
	if len(embedding) != VectorDimensions {
		return fmt.Errorf("opsmem: embedding has %d dimensions, want %d", len(embedding), VectorDimensions)
	}

	blob, err := serializeEmbedding(embedding)
	if err != nil {
		return err
	}

	var handle int64
	err = s.db.QueryRow(queryGetVecHandle, id).Scan(&handle)
	if err == nil {
		if _, err := s.db.Exec(queryDeleteVecRow, handle); err != nil {
			return err
		}
		_, err = s.db.Exec(queryInsertVecRow, handle, blob)
		return err
	}

	// New id: the metadata insert must come first, its autoincrement rowid
	// is the key for the vector row.
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(queryInsertVecMeta, id)
	if err != nil {
		return err
	}
	handle, err = result.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(queryInsertVecRow, handle, blob); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteEmbedding removes the vector record for an entry id, if any.
func (s *Store) DeleteEmbedding(id string) error {
	if !s.vecAvailable {
		return nil
	}

	var handle int64
	err := s.db.QueryRow(queryGetVecHandle, id).Scan(&handle)
	if err != nil {
		return nil
	}

	if _, err := s.db.Exec(queryDeleteVecRow, handle); err != nil {
		return err
	}
	_, err = s.db.Exec(queryDeleteVecMeta, id)
	return err
}

// SearchEmbeddings returns the nearest stored vectors, most similar first.
// Retrieval is advisory: any failure degrades to an empty result with a
// logged warning. The KNN query and the id lookup are two separate phases;
// joining vec_meta into the KNN statement does not preserve the k bound.
func (s *Store) SearchEmbeddings(query []float32, limit int) []VectorMatch {
	if !s.vecAvailable {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	blob, err := serializeEmbedding(query)
	if err != nil {
		logger.Warn("vector search failed", "error", err)
		return nil
	}

	rows, err := s.db.Query(queryKNN, blob, limit)
	if err != nil {
		logger.Warn("vector search failed", "error", err)
		return nil
	}
	defer rows.Close()

	var handles []int64
	distances := make(map[int64]float32)
	for rows.Next() {
		var handle int64
		var distance float32
		if err := rows.Scan(&handle, &distance); err != nil {
			logger.Warn("vector search failed", "error", err)
			return nil
		}
		handles = append(handles, handle)
		distances[handle] = distance
	}
	if err := rows.Err(); err != nil {
		logger.Warn("vector search failed", "error", err)
		return nil
	}
	if len(handles) == 0 {
		return nil
	}

	ids, err := s.resolveHandles(handles)
	if err != nil {
		logger.Warn("vector search failed", "error", err)
		return nil
	}

	matches := make([]VectorMatch, 0, len(handles))
	for _, handle := range handles {
		id, ok := ids[handle]
		if !ok {
			continue
		}
		distance := distances[handle]
		score := 1 - distance
		if score < 0 {
			score = 0
		}
		matches = append(matches, VectorMatch{EntryID: id, Distance: distance, Score: score})
	}

	return matches
}

// resolveHandles batch-maps integer handles back to entry ids.
func (s *Store) resolveHandles(handles []int64) (map[int64]string, error) {
	placeholders := make([]string, len(handles))
	args := make([]interface{}, len(handles))
	for i, h := range handles {
		placeholders[i] = "?"
		args[i] = h
	}

	q := fmt.Sprintf(`SELECT rowid, entry_id FROM vec_meta WHERE rowid IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]string, len(handles))
	for rows.Next() {
		var handle int64
		var id string
		if err := rows.Scan(&handle, &id); err != nil {
			return nil, err
		}
		ids[handle] = id
	}

	return ids, rows.Err()
}

// SearchText embeds a query string once and searches with it.
func (s *Store) SearchText(ctx context.Context, query string, limit int) ([]VectorMatch, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.SearchEmbeddings(embedding, limit), nil
}

// IndexAllKnowledge rebuilds the vocabulary from the full corpus, then
// clears and re-embeds the whole vector index in one transaction, so a
// crash mid-rebuild leaves the previous index intact. Returns the number of
// entries indexed; an empty corpus returns 0 with no side effects.
func (s *Store) IndexAllKnowledge(ctx context.Context) (int, error) {
	if !s.vecAvailable {
		return 0, fmt.Errorf("opsmem: vector index unavailable")
	}

	entries, err := s.AllKnowledge()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Text
	}
	s.vectorizer.BuildVocabulary(docs)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(queryClearVecRows); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(queryClearVecMeta); err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		embedding, err := s.embedder.Embed(ctx, entry.Text)
		if err != nil {
			return 0, err
		}
		blob, err := serializeEmbedding(embedding)
		if err != nil {
			return 0, err
		}

		result, err := tx.Exec(queryInsertVecMeta, entry.ID)
		if err != nil {
			return 0, err
		}
		handle, err := result.LastInsertId()
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(queryInsertVecRow, handle, blob); err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return count, nil
}

// RebuildVocabulary rebuilds only the in-memory vocabulary from the stored
// corpus, without touching the vector index. Returns the corpus size.
func (s *Store) RebuildVocabulary() (int, error) {
	entries, err := s.AllKnowledge()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Text
	}
	s.vectorizer.BuildVocabulary(docs)

	return len(entries), nil
}

// IsVecAvailable reports whether the vec0 virtual table could be created.
func (s *Store) IsVecAvailable() bool {
	return s.vecAvailable
}

// GetVecStats counts stored vectors and id mappings. Both counts are zero
// when the vector index is unavailable.
func (s *Store) GetVecStats() VecStats {
	var stats VecStats
	if !s.vecAvailable {
		return stats
	}

	if err := s.db.QueryRow(queryCountVecRows).Scan(&stats.Vectors); err != nil {
		logger.Warn("vec stats failed", "error", err)
		return VecStats{}
	}
	if err := s.db.QueryRow(queryCountVecMapped).Scan(&stats.Mapped); err != nil {
		logger.Warn("vec stats failed", "error", err)
		return VecStats{}
	}

	return stats
}
