package etymology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordIDRoundTrip(t *testing.T) {
	tests := []struct {
		word, lang string
	}{
		{"run", "en"},
		{"*rinnaną", "gem-pro"},
		{"foo__bar", "la"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			id := WordID(tt.word, tt.lang)
			word, lang, ok := SplitWordID(id)
			require.True(t, ok)
			assert.Equal(t, tt.word, word)
			assert.Equal(t, tt.lang, lang)
		})
	}
	assert.Equal(t, "run__en", WordID("run", "en"))
}

func TestSplitWordIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "run", "__en", "run__"} {
		_, _, ok := SplitWordID(id)
		assert.False(t, ok, id)
	}
}

func TestParseRelationType(t *testing.T) {
	tests := map[string]RelationType{
		"inh":            InheritedFrom,
		"der":            DerivedFrom,
		"derives_from":   DerivedFrom,
		"bor":            BorrowedFrom,
		"cog":            CognateWith,
		"borrowed_from":  BorrowedFrom,
		" Inherited_From": InheritedFrom,
	}
	for in, want := range tests {
		got, ok := ParseRelationType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseRelationType("calque")
	assert.False(t, ok)
}

func TestNewGraphEdgeFlagsBorrowing(t *testing.T) {
	e := NewGraphEdge(RelationshipEdge{SourceWordID: "a__en", TargetWordID: "b__fr", Type: BorrowedFrom})
	assert.True(t, e.IsBorrowing)
	assert.Equal(t, "a__en->b__fr:borrowed_from", e.ID)

	e = NewGraphEdge(RelationshipEdge{SourceWordID: "a__en", TargetWordID: "b__ang", Type: InheritedFrom})
	assert.False(t, e.IsBorrowing)
}

func TestNewGraphNodeFillsDisplay(t *testing.T) {
	n := NewGraphNode(WordRecord{Word: "run", Language: "en", Definition: "to move quickly"})
	assert.Equal(t, "run__en", n.ID)
	assert.Equal(t, "English", n.Display.LanguageDisplay)
	assert.Equal(t, "#3b82f6", n.Display.Color)
	assert.False(t, n.Pinned())
	assert.False(t, n.IsExpanded)
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		code, want string
	}{
		{"eng", "#3b82f6"},
		{"en", "#3b82f6"},
		{"lat", "#f87171"},
		{"ine-pro", "#6b7280"},
		{"itc-pro", "#9ca3af"},
		{"xx-unknown", DefaultColor},
		{"", DefaultColor},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorFor(tt.code))
		})
	}
}

func TestLanguageNameAndFamily(t *testing.T) {
	assert.Equal(t, "Old English", LanguageName("ang"))
	assert.Equal(t, "zzz", LanguageName("zzz"))
	assert.Equal(t, FamilyGermanic, LanguageFamily("ang"))
	assert.Equal(t, FamilyProto, LanguageFamily("gem-pro"))
	assert.Equal(t, FamilyRomance, LanguageFamily("la"))
	assert.Equal(t, FamilyOther, LanguageFamily("zzz"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, ValidateWord(WordRecord{Word: "run", Language: "en"}))

	err := ValidateWord(WordRecord{Word: "run"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	require.NoError(t, ValidateEdge(RelationshipEdge{SourceWordID: "a__en", TargetWordID: "b__la", Type: DerivedFrom}))

	err = ValidateEdge(RelationshipEdge{SourceWordID: "a__en", TargetWordID: "b__la", Type: "calque"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown relationship type")

	err = ValidateEdge(RelationshipEdge{SourceWordID: "a__en", TargetWordID: "a__en", Type: DerivedFrom})
	require.Error(t, err)
}

func TestLookupErrorMatchesSentinels(t *testing.T) {
	err := NotFound("word", "nope__en")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsFetchFailure(err))
	assert.Equal(t, "word nope__en: word not found", err.Error())

	err = FetchFailed("neighborhood", "run__en", errors.New("connection refused"))
	assert.True(t, IsFetchFailure(err))

	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "run__en", le.WordID)
}
