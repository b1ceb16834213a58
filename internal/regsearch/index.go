// Package regsearch provides an in-memory keyword-scored similarity search
// over the regulation clause corpus. It implements service.SimilaritySearch
// without an external vector index: the corpus is small and term overlap
// scoring is adequate for clause retrieval.
package regsearch

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

type document struct {
	content  string
	metadata map[string]string
	terms    map[string]int
}

// Index is an immutable in-memory search index over clause documents.
type Index struct {
	docs []document
}

// NewIndex builds an index over the given clauses. Each document's content
// is the clause title followed by its body, matching how regulation text is
// quoted in prompts.
func NewIndex(clauses []model.Clause) *Index {
	docs := make([]document, 0, len(clauses))
	for _, clause := range clauses {
		content := clause.Title + "\n" + clause.Content
		if len(clause.CheckPoints) > 0 {
			content += "\nCheck points: " + strings.Join(clause.CheckPoints, ", ")
		}
		docs = append(docs, document{
			content: content,
			metadata: map[string]string{
				"id":       clause.ID,
				"title":    clause.Title,
				"scenario": clause.Scenario,
			},
			terms: termFrequencies(content),
		})
	}
	return &Index{docs: docs}
}

// Query scores every document against the query terms and returns the top k
// hits. A metadata filter restricts candidates before scoring; documents
// with zero overlap are never returned.
func (idx *Index) Query(ctx context.Context, text string, filter map[string]string, k int) ([]service.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	queryTerms := termFrequencies(text)

	type scored struct {
		doc   *document
		score float64
	}
	var candidates []scored
	for i := range idx.docs {
		doc := &idx.docs[i]
		if !matchesFilter(doc.metadata, filter) {
			continue
		}
		score := overlapScore(queryTerms, doc.terms)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{doc: doc, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]service.SearchHit, len(candidates))
	for i, c := range candidates {
		hits[i] = service.SearchHit{Content: c.doc.content, Metadata: c.doc.metadata}
	}
	return hits, nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// overlapScore is the fraction of query terms found in the document, with
// repeated document terms adding diminishing weight.
func overlapScore(query, doc map[string]int) float64 {
	if len(query) == 0 {
		return 0
	}
	score := 0.0
	for term := range query {
		if n, ok := doc[term]; ok {
			score += 1 + 0.1*float64(n-1)
		}
	}
	return score / float64(len(query))
}

// termFrequencies lowercases and splits on non-letter, non-digit runes.
// Single-letter tokens and a small stopword set are dropped.
func termFrequencies(text string) map[string]int {
	terms := make(map[string]int)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		terms[f]++
	}
	return terms
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "with": true,
	"not": true, "this": true, "that": true, "from": true, "must": true,
	"any": true, "all": true, "its": true, "their": true, "may": true,
	"shall": true, "including": true, "related": true, "requirements": true,
}
