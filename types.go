package opsmem

import (
	"context"
	"database/sql"
	"time"
)

// Embedder turns text into a fixed-length vector. The built-in Vectorizer
// satisfies it with a purely local model; ollama.Embedder is the network
// alternative behind the same interface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store owns the process-scoped database handle and all retrieval state.
// Construct it once with Open and pass it around; Close tears it down.
type Store struct {
	db           *sql.DB
	vectorizer   *Vectorizer
	embedder     Embedder
	vecAvailable bool
}

// KnowledgeEntry is a single item in the lexical substrate. Immutable once
// written; updates go through delete + reinsert. ID is the stable join key
// across the vector and graph stores.
type KnowledgeEntry struct {
	ID       string
	Source   string
	SourceID int64
	Text     string
	Date     string
}

// VectorMatch is one nearest-neighbor hit, most similar first.
// Score is max(0, 1-distance), a convenience transform only.
type VectorMatch struct {
	EntryID  string
	Distance float32
	Score    float32
}

// VecStats reports the size of the vector index and its id mapping.
type VecStats struct {
	Vectors int
	Mapped  int
}

// Node is a typed graph node with caller-assigned id.
type Node struct {
	ID         string
	Type       string
	Label      string
	Properties map[string]any
}

// Edge is a directed weighted relationship. Identity is the composite
// (Source, Target, Relationship); rewriting it replaces the weight.
type Edge struct {
	Source       string
	Target       string
	Relationship string
	Weight       float64
}

const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Neighbor is a one-hop adjacency: the neighboring node and whether the
// edge points away from or toward the queried node.
type Neighbor struct {
	Node      *Node
	Direction string
}

// TraversalNode is a BFS result: a node and the depth of first discovery.
type TraversalNode struct {
	Node  *Node
	Depth int
}

// GraphStats summarizes graph size by node type.
type GraphStats struct {
	Nodes     int
	Edges     int
	NodeTypes map[string]int
}

// Episode is one append-only action/outcome record. Lesson is empty when
// none was recorded.
type Episode struct {
	ID          int64
	SprintPhase string
	Timestamp   string
	Action      string
	Outcome     string
	Lesson      string
	Tags        []string
}

// Maintenance is a scheduled job row. Nothing fires it; callers ask
// DueMaintenance and run the work themselves.
type Maintenance struct {
	ID        int64
	Job       string
	Schedule  string
	NextRun   time.Time
	CreatedAt time.Time
}
