package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	opsmem "github.com/Sn1ckerDood1e/radl-ops-sub003"
	"github.com/Sn1ckerDood1e/radl-ops-sub003/ollama"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

const usage = `opsmem - hybrid knowledge retrieval engine

Usage:
  opsmem ingest  -source SRC [-source-id N] [-id ID] [-date DATE] TEXT...
  opsmem index
  opsmem search  [-limit N] QUERY...
  opsmem lexical [-limit N] QUERY...
  opsmem episode -phase PHASE -action ACTION -outcome OUTCOME [-lesson L] [-tags a,b]
  opsmem recall  [-limit N] [-phase PHASE] QUERY...
  opsmem recent  [-limit N] [-phase PHASE]
  opsmem stats

Environment:
  OPSMEM_DB            database path (default opsmem.db)
  OPSMEM_DEBUG         "true" enables debug logging
  OPSMEM_OLLAMA_URL    use an Ollama embedder at this URL instead of the built-in one
  OPSMEM_OLLAMA_MODEL  Ollama embedding model (default nomic-embed-text)
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	dbPath := os.Getenv("OPSMEM_DB")
	if dbPath == "" {
		dbPath = "opsmem.db"
	}

	store, err := opsmem.Open(dbPath)
	if err != nil {
		slog.Error("failed to open store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if url := os.Getenv("OPSMEM_OLLAMA_URL"); url != "" {
		store.SetEmbedder(ollama.NewEmbedder(url, os.Getenv("OPSMEM_OLLAMA_MODEL")))
	}

	ctx := context.Background()

	var cmdErr error
	switch os.Args[1] {
	case "ingest":
		cmdErr = runIngest(store, os.Args[2:])
	case "index":
		cmdErr = runIndex(ctx, store)
	case "search":
		cmdErr = runSearch(ctx, store, os.Args[2:])
	case "lexical":
		cmdErr = runLexical(store, os.Args[2:])
	case "episode":
		cmdErr = runEpisode(store, os.Args[2:])
	case "recall":
		cmdErr = runRecall(store, os.Args[2:])
	case "recent":
		cmdErr = runRecent(store, os.Args[2:])
	case "stats":
		cmdErr = runStats(store)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if cmdErr != nil {
		slog.Error("command failed", "command", os.Args[1], "error", cmdErr)
		os.Exit(1)
	}
}

func runIngest(store *opsmem.Store, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	source := fs.String("source", "manual", "knowledge source")
	sourceID := fs.Int64("source-id", 0, "source row id")
	id := fs.String("id", "", "entry id (generated when empty)")
	date := fs.String("date", "", "entry date (default today)")
	fs.Parse(args)

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return fmt.Errorf("ingest: no text given")
	}

	entryID, err := store.AddKnowledge(&opsmem.KnowledgeEntry{
		ID:       *id,
		Source:   *source,
		SourceID: *sourceID,
		Text:     text,
		Date:     *date,
	})
	if err != nil {
		return err
	}

	fmt.Println(entryID)
	return nil
}

func runIndex(ctx context.Context, store *opsmem.Store) error {
	count, err := store.IndexAllKnowledge(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("indexed %d entries\n", count)
	return nil
}

func runSearch(ctx context.Context, store *opsmem.Store, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "max results")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	if query == "" {
		return fmt.Errorf("search: no query given")
	}

	// vocabulary lives in memory only; rebuild it from the stored corpus
	// before embedding the query
	if !store.IsVocabularyReady() {
		if _, err := store.RebuildVocabulary(); err != nil {
			return err
		}
	}

	matches, err := store.SearchText(ctx, query, *limit)
	if err != nil {
		return err
	}

	for _, m := range matches {
		entry, err := store.GetKnowledge(m.EntryID)
		if err != nil {
			return err
		}
		text := ""
		if entry != nil {
			text = entry.Text
		}
		fmt.Printf("%.4f  %s  %s\n", m.Score, m.EntryID, text)
	}
	return nil
}

func runLexical(store *opsmem.Store, args []string) error {
	fs := flag.NewFlagSet("lexical", flag.ExitOnError)
	limit := fs.Int("limit", 10, "max results")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	if query == "" {
		return fmt.Errorf("lexical: no query given")
	}

	entries, err := store.SearchKnowledge(query, *limit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.ID, e.Text)
	}
	return nil
}

func runEpisode(store *opsmem.Store, args []string) error {
	fs := flag.NewFlagSet("episode", flag.ExitOnError)
	phase := fs.String("phase", "", "sprint phase")
	action := fs.String("action", "", "what was done")
	outcome := fs.String("outcome", "", "what happened")
	lesson := fs.String("lesson", "", "lesson learned")
	tags := fs.String("tags", "", "comma-separated tags")
	fs.Parse(args)

	if *phase == "" || *action == "" || *outcome == "" {
		return fmt.Errorf("episode: -phase, -action, and -outcome are required")
	}

	var tagList []string
	for _, t := range strings.Split(*tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tagList = append(tagList, t)
		}
	}

	episode, err := store.RecordEpisode(*phase, *action, *outcome, *lesson, tagList)
	if err != nil {
		return err
	}

	fmt.Printf("recorded episode %d at %s\n", episode.ID, episode.Timestamp)
	return nil
}

func runRecall(store *opsmem.Store, args []string) error {
	fs := flag.NewFlagSet("recall", flag.ExitOnError)
	limit := fs.Int("limit", 10, "max results")
	phase := fs.String("phase", "", "sprint phase filter")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	episodes, err := store.RecallEpisodes(query, *limit, *phase)
	if err != nil {
		return err
	}

	printEpisodes(episodes)
	return nil
}

func runRecent(store *opsmem.Store, args []string) error {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max results")
	phase := fs.String("phase", "", "sprint phase filter")
	fs.Parse(args)

	episodes, err := store.GetRecentEpisodes(*phase, *limit)
	if err != nil {
		return err
	}

	printEpisodes(episodes)
	return nil
}

func printEpisodes(episodes []*opsmem.Episode) {
	for _, e := range episodes {
		line := fmt.Sprintf("[%d] %s (%s) %s -> %s", e.ID, e.Timestamp, e.SprintPhase, e.Action, e.Outcome)
		if e.Lesson != "" {
			line += " | lesson: " + e.Lesson
		}
		if len(e.Tags) > 0 {
			line += " | tags: " + strings.Join(e.Tags, ",")
		}
		fmt.Println(line)
	}
}

func runStats(store *opsmem.Store) error {
	vec := store.GetVecStats()
	fmt.Printf("vectors: %d (mapped: %d, available: %v, vocabulary ready: %v)\n",
		vec.Vectors, vec.Mapped, store.IsVecAvailable(), store.IsVocabularyReady())

	graph, err := store.GetGraphStats()
	if err != nil {
		return err
	}
	fmt.Printf("graph: %d nodes, %d edges\n", graph.Nodes, graph.Edges)
	for nodeType, count := range graph.NodeTypes {
		fmt.Printf("  %s: %d\n", nodeType, count)
	}
	return nil
}
