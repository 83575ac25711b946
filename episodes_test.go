package opsmem

import (
	"testing"
)

func TestRecordAndRecallEpisode(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	episode, err := store.RecordEpisode("Phase 1", "Chose SQLite", "Fast", "", nil)
	if err != nil {
		t.Fatalf("failed to record episode: %v", err)
	}
	if episode.ID == 0 {
		t.Error("expected assigned id")
	}
	if episode.Timestamp == "" {
		t.Error("expected generated timestamp")
	}

	recalled, err := store.RecallEpisodes("sqlite", 10, "")
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	if len(recalled) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(recalled))
	}
	if recalled[0].Action != "Chose SQLite" {
		t.Errorf("unexpected episode: %+v", recalled[0])
	}

	// phase filter excludes it
	recalled, err = store.RecallEpisodes("sqlite", 10, "Phase 2")
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	if len(recalled) != 0 {
		t.Errorf("expected no episodes under Phase 2, got %d", len(recalled))
	}
}

func TestRecallEpisodesSymbolsOnly(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	store.RecordEpisode("Phase 1", "Chose SQLite", "Fast", "", nil)

	recalled, err := store.RecallEpisodes("! @ # $", 10, "")
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	if len(recalled) != 0 {
		t.Errorf("expected no episodes for symbols-only query, got %d", len(recalled))
	}
}

func TestRecallEpisodesMatchesLesson(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	store.RecordEpisode("Phase 1", "Deployed service", "Rolled back", "always check migrations first", []string{"deploy", "incident"})

	recalled, err := store.RecallEpisodes("migrations", 10, "")
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	if len(recalled) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(recalled))
	}
	if recalled[0].Lesson != "always check migrations first" {
		t.Errorf("unexpected lesson: %q", recalled[0].Lesson)
	}
	if len(recalled[0].Tags) != 2 || recalled[0].Tags[0] != "deploy" {
		t.Errorf("unexpected tags: %v", recalled[0].Tags)
	}
}

func TestGetRecentEpisodes(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	store.RecordEpisode("Phase 1", "first", "ok", "", nil)
	store.RecordEpisode("Phase 1", "second", "ok", "", nil)
	store.RecordEpisode("Phase 2", "third", "ok", "", nil)

	episodes, err := store.GetRecentEpisodes("Phase 1", 20)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(episodes))
	}
	// newest first
	if episodes[0].Action != "second" {
		t.Errorf("expected newest first, got %q", episodes[0].Action)
	}

	episodes, err = store.GetRecentEpisodes("", 1)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(episodes) != 1 || episodes[0].Action != "third" {
		t.Errorf("expected only the newest episode, got %+v", episodes)
	}
}

func TestPruneEpisodes(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	store.RecordEpisode("Phase 1", "recent work", "kept", "", nil)

	// backdate one episode past the retention window
	if _, err := store.DB().Exec(
		`INSERT INTO episodes (sprint_phase, timestamp, action, outcome, tags) VALUES ('Phase 0', datetime('now', '-120 days'), 'ancient work', 'forgotten', '[]')`,
	); err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	pruned, err := store.PruneEpisodes()
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned episode, got %d", pruned)
	}

	// the shadow index must follow the delete
	recalled, err := store.RecallEpisodes("ancient", 10, "")
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	if len(recalled) != 0 {
		t.Errorf("expected pruned episode gone from shadow index, got %d results", len(recalled))
	}

	recalled, _ = store.RecallEpisodes("recent", 10, "")
	if len(recalled) != 1 {
		t.Errorf("expected recent episode kept, got %d results", len(recalled))
	}
}

func TestMalformedTagsDegradeToEmpty(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if _, err := store.DB().Exec(
		`INSERT INTO episodes (sprint_phase, action, outcome, tags) VALUES ('Phase 1', 'tag corruption test', 'survived', '{broken')`,
	); err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	episodes, err := store.GetRecentEpisodes("Phase 1", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(episodes))
	}
	if len(episodes[0].Tags) != 0 {
		t.Errorf("expected empty tags for malformed JSON, got %v", episodes[0].Tags)
	}
}
