package graphstate

import (
	"context"

	"github.com/dd0wney/etymograph/pkg/etymology"
)

// Lookup is the engine's view of a lexicon. Word and Neighborhood may
// block (a remote lexicon does); HasRelations must answer from local
// knowledge because it runs under the engine lock after every mutation.
type Lookup interface {
	// Word resolves one word id. It returns an error matching
	// etymology.ErrWordNotFound when the id is unknown.
	Word(ctx context.Context, id string) (etymology.WordRecord, error)
	// Neighborhood returns the word with its parent and child links.
	// Links whose far end does not resolve carry a nil Word.
	Neighborhood(ctx context.Context, id string) (etymology.Neighborhood, error)
	// HasRelations reports whether the word has at least one parent or
	// child, independent of what is currently visible.
	HasRelations(id string) bool
}

// Source names a lookup for metrics labels.
type Source interface {
	SourceName() string
}

func sourceName(l Lookup) string {
	if s, ok := l.(Source); ok {
		return s.SourceName()
	}
	return "custom"
}
