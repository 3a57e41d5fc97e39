package lexicon

import (
	"context"
	"sync"

	"github.com/dd0wney/etymograph/pkg/etymology"
)

// RemoteLookup adapts a Client to the graph engine. Neighborhoods are
// memoised for the lifetime of the lookup, so Word and Neighborhood for
// the same id cost one request.
type RemoteLookup struct {
	client *Client

	mu        sync.RWMutex
	hoods     map[string]etymology.Neighborhood
	relations map[string]bool
}

// NewRemoteLookup wraps a client.
func NewRemoteLookup(client *Client) *RemoteLookup {
	return &RemoteLookup{
		client:    client,
		hoods:     make(map[string]etymology.Neighborhood),
		relations: make(map[string]bool),
	}
}

// SourceName labels this lookup in metrics.
func (r *RemoteLookup) SourceName() string { return "remote" }

// Client returns the underlying client.
func (r *RemoteLookup) Client() *Client { return r.client }

// Word implements graphstate.Lookup.
func (r *RemoteLookup) Word(ctx context.Context, id string) (etymology.WordRecord, error) {
	nb, err := r.neighborhood(ctx, "word", id)
	if err != nil {
		return etymology.WordRecord{}, err
	}
	return nb.Word, nil
}

// Neighborhood implements graphstate.Lookup. References whose details
// the service could not resolve, or whose template is not an etymology
// relation, come back with a nil Word.
func (r *RemoteLookup) Neighborhood(ctx context.Context, id string) (etymology.Neighborhood, error) {
	return r.neighborhood(ctx, "neighborhood", id)
}

// HasRelations implements graphstate.Lookup. Words that have not been
// fetched yet are assumed to have relations, so they stay expandable
// until an expansion shows otherwise.
func (r *RemoteLookup) HasRelations(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	has, known := r.relations[id]
	return !known || has
}

// Forget drops everything memoised, so the next lookups refetch.
func (r *RemoteLookup) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hoods = make(map[string]etymology.Neighborhood)
	r.relations = make(map[string]bool)
}

func (r *RemoteLookup) neighborhood(ctx context.Context, op, id string) (etymology.Neighborhood, error) {
	r.mu.RLock()
	nb, ok := r.hoods[id]
	r.mu.RUnlock()
	if ok {
		return nb, nil
	}

	word, lang, ok := etymology.SplitWordID(id)
	if !ok {
		return etymology.Neighborhood{}, &etymology.LookupError{Op: op, WordID: id, Cause: etymology.ErrMalformedReference}
	}
	resp, err := r.client.FetchEtymology(ctx, word, lang)
	if err != nil {
		return etymology.Neighborhood{}, err
	}
	nb = toNeighborhood(id, resp)

	r.mu.Lock()
	r.hoods[id] = nb
	r.relations[id] = len(nb.Parents)+len(nb.Children) > 0
	r.mu.Unlock()
	return nb, nil
}

func toNeighborhood(id string, resp *EtymologyResponse) etymology.Neighborhood {
	w := resp.Word.Record()
	w.ID = id
	nb := etymology.Neighborhood{Word: w}
	for _, ref := range resp.Parents {
		other := etymology.WordID(ref.Word, ref.Language)
		nb.Parents = append(nb.Parents, toLink(id, other, ref))
	}
	for _, ref := range resp.Children {
		other := etymology.WordID(ref.Word, ref.Language)
		nb.Children = append(nb.Children, toLink(other, id, ref))
	}
	return nb
}

// toLink builds the relationship source->target described by ref. The
// far end of the link is the word ref names.
func toLink(source, target string, ref RelatedRef) etymology.Link {
	t, known := etymology.ParseRelationType(ref.Type)
	if !known {
		t = etymology.RelationType(ref.Type)
	}
	link := etymology.Link{Edge: etymology.RelationshipEdge{
		SourceWordID: source,
		TargetWordID: target,
		Type:         t,
	}.Normalize()}
	if ref.Details == nil || !known || ref.Word == "" || ref.Language == "" {
		return link
	}
	rec := ref.Details.Record()
	rec.ID = etymology.WordID(ref.Word, ref.Language)
	link.Word = &rec
	return link
}
