package opsmem

import (
	"testing"
)

func TestOpenAndClose(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
}

func TestSqliteVecVersion(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	var vecVersion string
	err = store.DB().QueryRow("SELECT vec_version()").Scan(&vecVersion)
	if err != nil {
		t.Fatalf("vec_version() failed: %v", err)
	}

	if vecVersion == "" {
		t.Fatal("vec_version() returned empty string")
	}

	t.Logf("sqlite-vec version: %s", vecVersion)
}

func TestVecAvailableAfterOpen(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if !store.IsVecAvailable() {
		t.Error("expected vector index to be available")
	}

	if store.IsVocabularyReady() {
		t.Error("expected vocabulary to be empty before any build")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	// second migrate against the same handle must be a no-op
	if err := store.migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}
