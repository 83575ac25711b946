package opsmem

import (
	"testing"
)

func TestAddAndGetKnowledge(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	id, err := store.AddKnowledge(&KnowledgeEntry{Source: "lessons", SourceID: 7, Text: "prefer sqlite for embedded state"})
	if err != nil {
		t.Fatalf("failed to add knowledge: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	entry, err := store.GetKnowledge(id)
	if err != nil {
		t.Fatalf("failed to get knowledge: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry, got nil")
	}
	if entry.Source != "lessons" || entry.SourceID != 7 {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Date == "" {
		t.Error("expected a generated date")
	}
}

func TestGetKnowledgeMissing(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	entry, err := store.GetKnowledge("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil for missing entry, got %+v", entry)
	}
}

func TestSearchKnowledgeLexical(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	store.AddKnowledge(&KnowledgeEntry{Source: "decisions", Text: "chose sqlite over postgres for local persistence"})
	store.AddKnowledge(&KnowledgeEntry{Source: "decisions", Text: "grpc selected for internal transport"})

	entries, err := store.SearchKnowledge("sqlite", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Source != "decisions" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}

	// symbols only: no surviving tokens, no wildcard matching
	entries, err = store.SearchKnowledge("! @ # $", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestDeleteKnowledgeDropsShadowRow(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	id, _ := store.AddKnowledge(&KnowledgeEntry{Source: "lessons", Text: "retry with backoff on flaky webhook"})

	if err := store.DeleteKnowledge(id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	entries, err := store.SearchKnowledge("webhook", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected shadow row gone after delete, got %d results", len(entries))
	}
}

func TestAllKnowledge(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	for i := 0; i < 3; i++ {
		if _, err := store.AddKnowledge(&KnowledgeEntry{Source: "test", SourceID: int64(i), Text: "entry"}); err != nil {
			t.Fatalf("failed to add knowledge: %v", err)
		}
	}

	entries, err := store.AllKnowledge()
	if err != nil {
		t.Fatalf("failed to read corpus: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}
