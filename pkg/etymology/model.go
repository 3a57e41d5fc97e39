package etymology

import (
	"strings"
)

// idSeparator joins a word and its language code into a word id.
const idSeparator = "__"

// RelationType classifies how a word came from its etymological source.
type RelationType string

const (
	InheritedFrom RelationType = "inherited_from"
	DerivedFrom   RelationType = "derived_from"
	BorrowedFrom  RelationType = "borrowed_from"
	CognateWith   RelationType = "cognate_with"
)

// RelationTypes lists every known relation type.
var RelationTypes = []RelationType{InheritedFrom, DerivedFrom, BorrowedFrom, CognateWith}

// Valid reports whether t is one of the known relation types.
func (t RelationType) Valid() bool {
	switch t {
	case InheritedFrom, DerivedFrom, BorrowedFrom, CognateWith:
		return true
	}
	return false
}

// ParseRelationType accepts canonical names as well as the Wiktionary
// template names (inh, der, bor, cog) used by the remote lexicon.
func ParseRelationType(s string) (RelationType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inherited_from", "inh", "inherited":
		return InheritedFrom, true
	case "derived_from", "derives_from", "der", "derived":
		return DerivedFrom, true
	case "borrowed_from", "bor", "borrowed", "lbor":
		return BorrowedFrom, true
	case "cognate_with", "cog", "cognate":
		return CognateWith, true
	}
	return "", false
}

// WordRecord is one lexical entry of the corpus.
type WordRecord struct {
	ID              string `json:"id" yaml:"id"`
	Word            string `json:"word" yaml:"word" validate:"required"`
	Language        string `json:"language" yaml:"language" validate:"required,max=16"`
	LanguageDisplay string `json:"languageDisplay,omitempty" yaml:"languageDisplay,omitempty"`
	Definition      string `json:"definition,omitempty" yaml:"definition,omitempty"`
	PartOfSpeech    string `json:"partOfSpeech,omitempty" yaml:"partOfSpeech,omitempty"`
	Pronunciation   string `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
}

// Normalize fills the derived fields of a record: the id from word and
// language, and the display label from the language names table.
func (w WordRecord) Normalize() WordRecord {
	if w.ID == "" {
		w.ID = WordID(w.Word, w.Language)
	}
	if w.LanguageDisplay == "" {
		w.LanguageDisplay = LanguageName(w.Language)
	}
	return w
}

// RelationshipEdge points from a derived word (Source) to its
// etymological origin (Target).
type RelationshipEdge struct {
	ID           string       `json:"id" yaml:"id"`
	SourceWordID string       `json:"sourceWordId" yaml:"sourceWordId" validate:"required"`
	TargetWordID string       `json:"targetWordId" yaml:"targetWordId" validate:"required,nefield=SourceWordID"`
	Type         RelationType `json:"relationshipType" yaml:"relationshipType" validate:"required,relation"`
	Notes        string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Normalize fills the edge id when it is missing.
func (e RelationshipEdge) Normalize() RelationshipEdge {
	if e.ID == "" {
		e.ID = RelationshipID(e.SourceWordID, e.Type, e.TargetWordID)
	}
	return e
}

// Position is a point in simulation space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Position) Add(q Position) Position { return Position{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Position) Sub(q Position) Position { return Position{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p*k.
func (p Position) Scale(k float64) Position { return Position{X: p.X * k, Y: p.Y * k} }

// DisplayData is the part of a node the presentation layer draws.
type DisplayData struct {
	Word            string `json:"word"`
	Language        string `json:"language"`
	LanguageDisplay string `json:"languageDisplay"`
	Definition      string `json:"definition,omitempty"`
	PartOfSpeech    string `json:"partOfSpeech,omitempty"`
	Pronunciation   string `json:"pronunciation,omitempty"`
	Color           string `json:"color"`
}

// GraphNode is a visible word.
type GraphNode struct {
	ID                     string      `json:"id"`
	Position               Position    `json:"position"`
	PinnedPosition         *Position   `json:"pinnedPosition,omitempty"`
	Display                DisplayData `json:"data"`
	HasExpandableNeighbors bool        `json:"hasExpandableNeighbors"`
	IsExpanded             bool        `json:"isExpanded"`
}

// NewGraphNode builds an unplaced node for a word record.
func NewGraphNode(w WordRecord) GraphNode {
	w = w.Normalize()
	return GraphNode{
		ID: w.ID,
		Display: DisplayData{
			Word:            w.Word,
			Language:        w.Language,
			LanguageDisplay: w.LanguageDisplay,
			Definition:      w.Definition,
			PartOfSpeech:    w.PartOfSpeech,
			Pronunciation:   w.Pronunciation,
			Color:           ColorFor(w.Language),
		},
	}
}

// Pinned reports whether the node is held in place.
func (n GraphNode) Pinned() bool { return n.PinnedPosition != nil }

// GraphEdge is a visible relationship. Both endpoints are always visible.
type GraphEdge struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Target      string       `json:"target"`
	Type        RelationType `json:"type"`
	IsBorrowing bool         `json:"isBorrowing"`
}

// NewGraphEdge converts a relationship into its visible form.
func NewGraphEdge(e RelationshipEdge) GraphEdge {
	e = e.Normalize()
	return GraphEdge{
		ID:          e.ID,
		Source:      e.SourceWordID,
		Target:      e.TargetWordID,
		Type:        e.Type,
		IsBorrowing: e.Type == BorrowedFrom,
	}
}

// Placement is one node's position as computed by the layout. Pinned is
// non-nil while something other than the layout holds the node in place.
type Placement struct {
	ID       string    `json:"id"`
	Position Position  `json:"position"`
	Pinned   *Position `json:"pinned,omitempty"`
}

// Link is one relationship of a word together with the record on its
// other end. Word is nil when that end could not be resolved.
type Link struct {
	Edge RelationshipEdge
	Word *WordRecord
}

// Neighborhood is a word with its parents (origins) and children
// (descendants).
type Neighborhood struct {
	Word     WordRecord
	Parents  []Link
	Children []Link
}

// Links returns parents followed by children.
func (n Neighborhood) Links() []Link {
	out := make([]Link, 0, len(n.Parents)+len(n.Children))
	out = append(out, n.Parents...)
	return append(out, n.Children...)
}

// WordID derives the id of a word in a language, e.g. "run__en".
func WordID(word, language string) string {
	return word + idSeparator + language
}

// SplitWordID is the inverse of WordID. Words may themselves contain the
// separator, so the split happens at its last occurrence.
func SplitWordID(id string) (word, language string, ok bool) {
	i := strings.LastIndex(id, idSeparator)
	if i <= 0 || i+len(idSeparator) >= len(id) {
		return "", "", false
	}
	return id[:i], id[i+len(idSeparator):], true
}

// RelationshipID derives a stable edge id so that the same relationship
// seen from either endpoint collapses to one edge.
func RelationshipID(source string, t RelationType, target string) string {
	return source + "->" + target + ":" + string(t)
}
