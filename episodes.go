package opsmem

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// episodeRetentionDays bounds the episodic log; older rows are hard-deleted
// when the store opens.
const episodeRetentionDays = 90

// RecordEpisode appends one action/outcome event and returns it with its
// assigned id and generated timestamp. lesson may be empty; tags may be
// nil. The full-text shadow index follows by trigger, so recall needs no
// re-index step.
func (s *Store) RecordEpisode(sprintPhase, action, outcome, lesson string, tags []string) (*Episode, error) {
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}

	var lessonArg interface{}
	if lesson != "" {
		lessonArg = lesson
	}

	result, err := s.db.Exec(queryInsertEpisode, sprintPhase, action, outcome, lessonArg, string(rawTags))
	if err != nil {
		return nil, err
	}

	id, _ := result.LastInsertId()

	// read the row back for the generated timestamp
	var e Episode
	var storedLesson, storedTags sql.NullString
	err = s.db.QueryRow(queryGetEpisode, id).Scan(&e.ID, &e.SprintPhase, &e.Timestamp, &e.Action, &e.Outcome, &storedLesson, &storedTags)
	if err != nil {
		return nil, err
	}
	e.Lesson = storedLesson.String
	e.Tags = parseTags(storedTags.String)

	return &e, nil
}

// RecallEpisodes runs a lexical MATCH over the episode shadow index,
// optionally constrained to a sprint phase, newest first. Query tokens
// shorter than two characters are dropped; if none survive the result is
// empty, never a wildcard match. Best effort: engine failures degrade to an
// empty result with a warning.
func (s *Store) RecallEpisodes(query string, limit int, sprintPhase string) ([]*Episode, error) {
	tokens := tokenize(query, 2)
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	q := queryRecallPrefix
	args := []interface{}{ftsMatchExpr(tokens)}
	if sprintPhase != "" {
		q += ` AND e.sprint_phase = ?`
		args = append(args, sprintPhase)
	}
	q += ` ORDER BY e.timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		logger.Warn("episode recall failed", "error", err)
		return nil, nil
	}

	defer rows.Close()
	return scanEpisodes(rows)
}

// GetRecentEpisodes returns the newest episodes, optionally filtered by
// sprint phase. No lexical component.
func (s *Store) GetRecentEpisodes(sprintPhase string, limit int) ([]*Episode, error) {
	if limit <= 0 {
		limit = 20
	}

	q := queryRecentPrefix
	var args []interface{}
	if sprintPhase != "" {
		q += ` WHERE sprint_phase = ?`
		args = append(args, sprintPhase)
	}
	q += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	return scanEpisodes(rows)
}

// PruneEpisodes hard-deletes episodes past the retention window. Shadow
// index rows follow by trigger. Open calls this; callers can also run it
// from a maintenance schedule.
func (s *Store) PruneEpisodes() (int64, error) {
	cutoff := fmt.Sprintf("-%d days", episodeRetentionDays)
	result, err := s.db.Exec(queryPruneEpisodes, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func scanEpisodes(rows *sql.Rows) ([]*Episode, error) {
	var episodes []*Episode
	for rows.Next() {
		var e Episode
		var lesson, tags sql.NullString
		if err := rows.Scan(&e.ID, &e.SprintPhase, &e.Timestamp, &e.Action, &e.Outcome, &lesson, &tags); err != nil {
			return nil, err
		}
		e.Lesson = lesson.String
		e.Tags = parseTags(tags.String)
		episodes = append(episodes, &e)
	}
	return episodes, rows.Err()
}

// parseTags recovers the stored tag array. Malformed or non-array content
// degrades to an empty list instead of failing the read.
func parseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		logger.Warn("malformed episode tags", "raw", raw)
		return []string{}
	}
	return tags
}
