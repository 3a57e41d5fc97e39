// Package lexicon provides the word sources the graph engine explores:
// an in-memory lexicon over a dataset, and a client for a remote
// etymology service with an optional on-disk response cache.
package lexicon

import (
	"context"
	"sort"
	"strings"

	"github.com/dd0wney/etymograph/pkg/etymology"
)

// StaticLexicon answers lookups from a dataset held in memory. It is
// immutable after construction and safe for concurrent use.
type StaticLexicon struct {
	name     string
	words    map[string]etymology.WordRecord
	order    []string
	parents  map[string][]etymology.RelationshipEdge
	children map[string][]etymology.RelationshipEdge
	edges    int
}

// NewStaticLexicon indexes a dataset. The dataset is prepared first, so
// hand-built datasets need not carry ids.
func NewStaticLexicon(ds Dataset) (*StaticLexicon, error) {
	if err := ds.Prepare(); err != nil {
		return nil, err
	}
	l := &StaticLexicon{
		name:     ds.Name,
		words:    make(map[string]etymology.WordRecord, len(ds.Words)),
		order:    make([]string, 0, len(ds.Words)),
		parents:  make(map[string][]etymology.RelationshipEdge),
		children: make(map[string][]etymology.RelationshipEdge),
		edges:    len(ds.Relationships),
	}
	for _, w := range ds.Words {
		l.words[w.ID] = w
		l.order = append(l.order, w.ID)
	}
	for _, e := range ds.Relationships {
		l.parents[e.SourceWordID] = append(l.parents[e.SourceWordID], e)
		l.children[e.TargetWordID] = append(l.children[e.TargetWordID], e)
	}
	return l, nil
}

// Name returns the dataset name.
func (l *StaticLexicon) Name() string { return l.name }

// SourceName labels this lexicon in metrics.
func (l *StaticLexicon) SourceName() string { return "static" }

// GetWordByID returns the word with the given id.
func (l *StaticLexicon) GetWordByID(id string) (etymology.WordRecord, bool) {
	w, ok := l.words[id]
	return w, ok
}

// ParentRelationships returns the relationships from id to its origins.
func (l *StaticLexicon) ParentRelationships(id string) []etymology.RelationshipEdge {
	return append([]etymology.RelationshipEdge(nil), l.parents[id]...)
}

// ChildRelationships returns the relationships from words derived from id.
func (l *StaticLexicon) ChildRelationships(id string) []etymology.RelationshipEdge {
	return append([]etymology.RelationshipEdge(nil), l.children[id]...)
}

// Words returns every word in dataset order.
func (l *StaticLexicon) Words() []etymology.WordRecord {
	out := make([]etymology.WordRecord, len(l.order))
	for i, id := range l.order {
		out[i] = l.words[id]
	}
	return out
}

// Word implements graphstate.Lookup.
func (l *StaticLexicon) Word(ctx context.Context, id string) (etymology.WordRecord, error) {
	w, ok := l.words[id]
	if !ok {
		return etymology.WordRecord{}, etymology.NotFound("word", id)
	}
	return w, nil
}

// Neighborhood implements graphstate.Lookup. Relationships whose far end
// is not in the dataset come back with a nil Word.
func (l *StaticLexicon) Neighborhood(ctx context.Context, id string) (etymology.Neighborhood, error) {
	w, ok := l.words[id]
	if !ok {
		return etymology.Neighborhood{}, etymology.NotFound("neighborhood", id)
	}
	nb := etymology.Neighborhood{Word: w}
	for _, e := range l.parents[id] {
		nb.Parents = append(nb.Parents, etymology.Link{Edge: e, Word: l.ref(e.TargetWordID)})
	}
	for _, e := range l.children[id] {
		nb.Children = append(nb.Children, etymology.Link{Edge: e, Word: l.ref(e.SourceWordID)})
	}
	return nb, nil
}

func (l *StaticLexicon) ref(id string) *etymology.WordRecord {
	w, ok := l.words[id]
	if !ok {
		return nil
	}
	return &w
}

// HasRelations implements graphstate.Lookup.
func (l *StaticLexicon) HasRelations(id string) bool {
	return len(l.parents[id]) > 0 || len(l.children[id]) > 0
}

// Search returns up to limit words starting with prefix, case-insensitively.
// Exact matches come first, then shorter words, then alphabetical order,
// then language.
func (l *StaticLexicon) Search(prefix string, limit int) []etymology.WordRecord {
	q := strings.ToLower(strings.TrimSpace(prefix))
	if q == "" || limit <= 0 {
		return nil
	}
	var hits []etymology.WordRecord
	for _, id := range l.order {
		w := l.words[id]
		if strings.HasPrefix(strings.ToLower(w.Word), q) {
			hits = append(hits, w)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		ea, eb := strings.EqualFold(a.Word, q), strings.EqualFold(b.Word, q)
		if ea != eb {
			return ea
		}
		if len([]rune(a.Word)) != len([]rune(b.Word)) {
			return len([]rune(a.Word)) < len([]rune(b.Word))
		}
		if a.Word != b.Word {
			return a.Word < b.Word
		}
		return a.Language < b.Language
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Lookup returns the words spelled exactly word, optionally restricted
// to a set of language codes or display names.
func (l *StaticLexicon) Lookup(word string, languages []string, limit int) []etymology.WordRecord {
	want := make(map[string]bool, len(languages))
	for _, lang := range languages {
		want[strings.ToLower(strings.TrimSpace(lang))] = true
	}
	var out []etymology.WordRecord
	for _, id := range l.order {
		w := l.words[id]
		if w.Word != word {
			continue
		}
		if len(want) > 0 && !want[strings.ToLower(w.Language)] && !want[strings.ToLower(w.LanguageDisplay)] {
			continue
		}
		out = append(out, w)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Stats summarises a lexicon.
type Stats struct {
	TotalWords         int `json:"totalWords"`
	TotalLanguages     int `json:"totalLanguages"`
	WordsWithEtymology int `json:"wordsWithEtymology"`
	TotalRelationships int `json:"totalRelationships"`
}

// Stats counts words, languages and words with at least one origin.
func (l *StaticLexicon) Stats() Stats {
	langs := make(map[string]struct{})
	withOrigin := 0
	for id, w := range l.words {
		langs[w.Language] = struct{}{}
		if len(l.parents[id]) > 0 {
			withOrigin++
		}
	}
	return Stats{
		TotalWords:         len(l.words),
		TotalLanguages:     len(langs),
		WordsWithEtymology: withOrigin,
		TotalRelationships: l.edges,
	}
}

// FindPath returns the shortest chain of word ids leading from one word
// back to one of its origins by following parent relationships, or nil
// when to is not an ancestor of from.
func (l *StaticLexicon) FindPath(from, to string) []string {
	if _, ok := l.words[from]; !ok {
		return nil
	}
	if from == to {
		return []string{from}
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range l.parents[id] {
			next := e.TargetWordID
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = id
			if next == to {
				var path []string
				for at := to; at != ""; at = prev[at] {
					path = append(path, at)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}
