package lexiconapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "connected",
		"dataset":  s.Lexicon().Name(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Lexicon().Stats())
}

// handleSearch answers autocomplete queries. Queries shorter than two
// characters return an empty list rather than the whole lexicon.
func (s *Server) handleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	out := []lexicon.SearchResult{}
	if len([]rune(q)) < minQueryLength {
		c.JSON(http.StatusOK, out)
		return
	}
	limit := queryLimit(c, defaultSearchLimit)
	for _, w := range s.Lexicon().Search(q, limit) {
		out = append(out, lexicon.SearchResult{
			Word:     w.Word,
			Language: displayName(w),
			LangCode: w.Language,
			POS:      w.PartOfSpeech,
		})
	}
	c.JSON(http.StatusOK, out)
}

// handleWords returns every entry spelled :word, optionally filtered by a
// comma-separated list of languages.
func (s *Server) handleWords(c *gin.Context) {
	var langs []string
	if raw := c.Query("language"); raw != "" {
		langs = strings.Split(raw, ",")
	}
	out := []lexicon.RemoteWord{}
	for _, w := range s.Lexicon().Lookup(c.Param("word"), langs, queryLimit(c, defaultWordsLimit)) {
		out = append(out, remoteWord(w))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleEtymology(c *gin.Context) {
	lex := s.Lexicon()
	matches := lex.Lookup(c.Param("word"), []string{c.Param("language")}, 1)
	if len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Word not found"})
		return
	}
	w := matches[0]

	resp := lexicon.EtymologyResponse{
		Word:     remoteWord(w),
		Parents:  []lexicon.RelatedRef{},
		Children: []lexicon.RelatedRef{},
	}
	for _, e := range lex.ParentRelationships(w.ID) {
		resp.Parents = append(resp.Parents, relatedRef(lex, e.TargetWordID, e.Type))
	}
	for _, e := range lex.ChildRelationships(w.ID) {
		resp.Children = append(resp.Children, relatedRef(lex, e.SourceWordID, e.Type))
	}
	c.JSON(http.StatusOK, resp)
}

// handlePath returns the chain of origins leading from one word id to
// another.
func (s *Server) handlePath(c *gin.Context) {
	lex := s.Lexicon()
	from, to := c.Param("from"), c.Param("to")
	if _, ok := lex.GetWordByID(from); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Word not found"})
		return
	}
	path := lex.FindPath(from, to)
	if path == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No path found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxSearchLimit {
		return maxSearchLimit
	}
	return n
}

func displayName(w etymology.WordRecord) string {
	if w.LanguageDisplay != "" {
		return w.LanguageDisplay
	}
	return w.Language
}

func remoteWord(w etymology.WordRecord) lexicon.RemoteWord {
	rw := lexicon.RemoteWord{
		Word:     w.Word,
		Language: displayName(w),
		LangCode: w.Language,
		POS:      w.PartOfSpeech,
	}
	if w.Definition != "" {
		rw.Senses = []lexicon.Sense{{Glosses: []string{w.Definition}}}
	}
	return rw
}

// relatedRef describes the word at id for a relationship of type t. Ids
// the lexicon does not define still yield a reference, without details.
func relatedRef(lex *lexicon.StaticLexicon, id string, t etymology.RelationType) lexicon.RelatedRef {
	ref := lexicon.RelatedRef{Type: templateName(t)}
	if w, ok := lex.GetWordByID(id); ok {
		rw := remoteWord(w)
		ref.Word, ref.Language, ref.Details = w.Word, w.Language, &rw
		return ref
	}
	ref.Word, ref.Language, _ = etymology.SplitWordID(id)
	return ref
}

// templateName maps a relation type to its Wiktionary template name.
func templateName(t etymology.RelationType) string {
	switch t {
	case etymology.InheritedFrom:
		return "inh"
	case etymology.DerivedFrom:
		return "der"
	case etymology.BorrowedFrom:
		return "bor"
	case etymology.CognateWith:
		return "cog"
	}
	return string(t)
}
