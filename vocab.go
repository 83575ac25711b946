package opsmem

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrNoVocabulary is returned by Embed before any vocabulary has been built.
var ErrNoVocabulary = errors.New("opsmem: vocabulary not built")

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// tokenize lowercases, collapses non-alphanumeric runs to spaces, and drops
// tokens shorter than minLen.
func tokenize(text string, minLen int) []string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(text), " ")

	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) >= minLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Vectorizer is a self-contained bag-of-words embedder. It selects the top
// VectorDimensions terms of a corpus by document frequency and embeds text
// as an L2-normalized tf-idf vector over those terms. No network calls; a
// higher-quality Embedder can replace it behind the same interface.
type Vectorizer struct {
	mu      sync.RWMutex
	terms   []string
	weights map[string]float64
}

func NewVectorizer() *Vectorizer {
	return &Vectorizer{}
}

// BuildVocabulary replaces the term list and idf table from a corpus
// snapshot. The swap is atomic: readers see either the old vocabulary or
// the new one, never a mix. An empty corpus is a no-op so a transient empty
// batch cannot wipe a usable vocabulary.
func (v *Vectorizer) BuildVocabulary(docs []string) {
	if len(docs) == 0 {
		logger.Warn("vocabulary build skipped: empty corpus")
		return
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc, 3) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	// df descending, term ascending: deterministic across rebuilds
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > VectorDimensions {
		terms = terms[:VectorDimensions]
	}

	total := len(docs)
	if total < 1 {
		total = 1
	}
	weights := make(map[string]float64, len(terms))
	for _, term := range terms {
		weights[term] = math.Log(float64(total) / float64(df[term]))
	}

	v.mu.Lock()
	v.terms = terms
	v.weights = weights
	v.mu.Unlock()
}

// Embed produces the tf-idf vector for text under the current vocabulary,
// L2-normalized. If no vocabulary term appears in the text the zero vector
// is returned. Fails with ErrNoVocabulary before the first build.
func (v *Vectorizer) Embed(_ context.Context, text string) ([]float32, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.terms) == 0 {
		return nil, ErrNoVocabulary
	}

	tf := make(map[string]int)
	for _, tok := range tokenize(text, 3) {
		tf[tok]++
	}

	vec := make([]float32, VectorDimensions)
	var sumSquares float64
	for i, term := range v.terms {
		if count := tf[term]; count > 0 {
			val := float64(count) * v.weights[term]
			vec[i] = float32(val)
			sumSquares += val * val
		}
	}

	if sumSquares > 0 {
		norm := float32(math.Sqrt(sumSquares))
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec, nil
}

// Ready reports whether a vocabulary has been built.
func (v *Vectorizer) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.terms) > 0
}

// VocabularySize returns the number of active vocabulary terms.
func (v *Vectorizer) VocabularySize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.terms)
}
