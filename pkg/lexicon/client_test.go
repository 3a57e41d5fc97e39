package lexicon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/graphstate"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/lexiconapi"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// service runs the lexicon API over the built-in "run" dataset and counts
// the requests that reach it.
type service struct {
	*httptest.Server
	mu       sync.Mutex
	hits     map[string]int
	ids      []string
	requests atomic.Int64
}

func newService(t *testing.T, ds lexicon.Dataset) *service {
	t.Helper()
	lex, err := lexicon.NewStaticLexicon(ds)
	require.NoError(t, err)
	api := lexiconapi.New(lex, lexiconapi.Options{})

	s := &service{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.ids = append(s.ids, r.Header.Get("X-Request-ID"))
		s.mu.Unlock()
		api.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func runService(t *testing.T) *service {
	t.Helper()
	ds, err := lexicon.Builtin("run")
	require.NoError(t, err)
	return newService(t, ds)
}

func (s *service) hitsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newClient(t *testing.T, url string, cache lexicon.Cache) *lexicon.Client {
	t.Helper()
	opts := lexicon.DefaultClientOptions()
	opts.BaseURL = url
	opts.RateLimit = 0
	opts.Cache = cache
	c, err := lexicon.NewClient(opts)
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesURL(t *testing.T) {
	for _, bad := range []string{"", "localhost:3001", "://x"} {
		_, err := lexicon.NewClient(lexicon.ClientOptions{BaseURL: bad})
		assert.Error(t, err, bad)
	}
}

func TestClientFetchEtymology(t *testing.T) {
	svc := runService(t)
	c := newClient(t, svc.URL, nil)

	resp, err := c.FetchEtymology(context.Background(), "run", "en")
	require.NoError(t, err)

	assert.Equal(t, "run", resp.Word.Word)
	assert.Equal(t, "English", resp.Word.Language)
	assert.Equal(t, "en", resp.Word.LangCode)
	require.Len(t, resp.Parents, 2)
	assert.Equal(t, "rinnan", resp.Parents[0].Word)
	assert.Equal(t, "ang", resp.Parents[0].Language)
	assert.Equal(t, "inh", resp.Parents[0].Type)
	require.NotNil(t, resp.Parents[0].Details)
	assert.Equal(t, "bor", resp.Parents[1].Type)
	require.Len(t, resp.Children, 1)
	assert.Equal(t, "runner", resp.Children[0].Word)
	assert.Equal(t, "der", resp.Children[0].Type)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	require.NotEmpty(t, svc.ids)
	assert.NotEmpty(t, svc.ids[0], "requests carry an id")
}

func TestClientFetchEscapesPath(t *testing.T) {
	svc := runService(t)
	c := newClient(t, svc.URL, nil)

	resp, err := c.FetchEtymology(context.Background(), "*rinnaną", "gem-pro")
	require.NoError(t, err)
	assert.Equal(t, "*rinnaną", resp.Word.Word)
	assert.Len(t, resp.Children, 2)
}

func TestClientNotFound(t *testing.T) {
	svc := runService(t)
	c := newClient(t, svc.URL, nil)

	_, err := c.FetchEtymology(context.Background(), "walk", "en")
	require.Error(t, err)
	assert.True(t, etymology.IsNotFound(err))
	assert.False(t, etymology.IsFetchFailure(err))
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database is down"}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL, nil)

	_, err := c.FetchEtymology(context.Background(), "run", "en")
	require.Error(t, err)
	assert.True(t, etymology.IsFetchFailure(err))
	assert.Contains(t, err.Error(), "database is down")

	_, err = c.Stats(context.Background())
	assert.True(t, etymology.IsFetchFailure(err))
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, nil)
	_, err := c.FetchEtymology(context.Background(), "run", "en")
	assert.True(t, etymology.IsFetchFailure(err))
}

func TestClientCache(t *testing.T) {
	svc := runService(t)
	cache, err := lexicon.OpenBadgerCache(lexicon.CacheConfig{InMemory: true, TTL: time.Hour}, nil)
	require.NoError(t, err)
	defer cache.Close()
	c := newClient(t, svc.URL, cache)

	for i := 0; i < 3; i++ {
		resp, err := c.FetchEtymology(context.Background(), "run", "en")
		require.NoError(t, err)
		assert.Len(t, resp.Parents, 2)
	}
	assert.Equal(t, 1, svc.hitsFor("/api/etymology/run/en"))

	_, err = c.FetchEtymology(context.Background(), "walk", "en")
	require.Error(t, err)
	_, err = c.FetchEtymology(context.Background(), "walk", "en")
	require.Error(t, err)
	assert.Equal(t, 2, svc.hitsFor("/api/etymology/walk/en"), "misses are not cached")
}

func TestClientSearch(t *testing.T) {
	svc := runService(t)
	c := newClient(t, svc.URL, nil)
	ctx := context.Background()

	hits, err := c.Search(ctx, "r", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, svc.requests.Load(), "short queries stay local")

	hits, err = c.Search(ctx, "run", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "run", hits[0].Word)
	assert.Equal(t, "run__en", hits[0].ID())
	assert.Equal(t, "runner", hits[1].Word)

	hits, err = c.Search(ctx, "run", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestClientStatsAndHealth(t *testing.T) {
	svc := runService(t)
	c := newClient(t, svc.URL, nil)
	ctx := context.Background()

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 17, stats.TotalWords)
	assert.Equal(t, 14, stats.WordsWithEtymology)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	svc := runService(t)
	opts := lexicon.DefaultClientOptions()
	opts.BaseURL = svc.URL
	opts.RateLimit = 0.001
	opts.Burst = 1
	c, err := lexicon.NewClient(opts)
	require.NoError(t, err)

	_, err = c.Stats(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Stats(ctx)
	assert.Error(t, err, "second call would wait far past the deadline")
}

func TestRemoteLookup(t *testing.T) {
	svc := runService(t)
	r := lexicon.NewRemoteLookup(newClient(t, svc.URL, nil))
	ctx := context.Background()

	assert.True(t, r.HasRelations("runner__en"), "unknown words are assumed expandable")

	w, err := r.Word(ctx, "run__en")
	require.NoError(t, err)
	assert.Equal(t, "run__en", w.ID)
	assert.Equal(t, "English", w.LanguageDisplay)
	assert.Equal(t, "to move swiftly on foot", w.Definition)

	nb, err := r.Neighborhood(ctx, "run__en")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.hitsFor("/api/etymology/run/en"), "word and neighborhood share one fetch")

	require.Len(t, nb.Parents, 2)
	assert.Equal(t, etymology.RelationshipEdge{
		ID:           "run__en->rinnan__ang:inherited_from",
		SourceWordID: "run__en",
		TargetWordID: "rinnan__ang",
		Type:         etymology.InheritedFrom,
	}, nb.Parents[0].Edge)
	require.NotNil(t, nb.Parents[0].Word)
	assert.Equal(t, "rinnan__ang", nb.Parents[0].Word.ID)
	assert.Equal(t, etymology.BorrowedFrom, nb.Parents[1].Edge.Type)

	require.Len(t, nb.Children, 1)
	assert.Equal(t, "runner__en", nb.Children[0].Edge.SourceWordID)
	assert.Equal(t, "run__en", nb.Children[0].Edge.TargetWordID)
	assert.Equal(t, etymology.DerivedFrom, nb.Children[0].Edge.Type)

	_, err = r.Neighborhood(ctx, "الخوارزمي__ar")
	require.NoError(t, err)
	assert.True(t, r.HasRelations("الخوارزمي__ar"))

	r.Forget()
	_, err = r.Word(ctx, "run__en")
	require.NoError(t, err)
	assert.Equal(t, 2, svc.hitsFor("/api/etymology/run/en"))
}

func TestRemoteLookupLeafAndErrors(t *testing.T) {
	svc := newService(t, lexicon.Dataset{
		Words: []etymology.WordRecord{
			{Word: "run", Language: "en"},
			{Word: "lone", Language: "en"},
		},
		Relationships: []etymology.RelationshipEdge{
			{SourceWordID: "run__en", TargetWordID: "ghost__xx", Type: etymology.InheritedFrom},
		},
	})
	r := lexicon.NewRemoteLookup(newClient(t, svc.URL, nil))
	ctx := context.Background()

	_, err := r.Neighborhood(ctx, "lone__en")
	require.NoError(t, err)
	assert.False(t, r.HasRelations("lone__en"))

	nb, err := r.Neighborhood(ctx, "run__en")
	require.NoError(t, err)
	require.Len(t, nb.Parents, 1)
	assert.Equal(t, "ghost__xx", nb.Parents[0].Edge.TargetWordID)
	assert.Nil(t, nb.Parents[0].Word, "references without details are unresolved")

	_, err = r.Word(ctx, "walk__en")
	assert.True(t, etymology.IsNotFound(err))

	_, err = r.Word(ctx, "no-separator")
	assert.ErrorIs(t, err, etymology.ErrMalformedReference)
}

func TestRemoteLookupDrivesEngine(t *testing.T) {
	svc := runService(t)
	r := lexicon.NewRemoteLookup(newClient(t, svc.URL, nil))
	e := graphstate.NewEngine(r, graphstate.RemoteOptions())
	defer e.Close()

	require.NoError(t, e.Focus(context.Background(), "run__en"))
	e.Wait()

	for _, id := range []string{"run__en", "rinnan__ang", "rinna__non", "runner__en", "*rinnaną__gem-pro"} {
		_, ok := e.Node(id)
		assert.True(t, ok, id)
	}
	assert.True(t, e.IsExpanded("run__en"))
	assert.True(t, e.IsExpanded("rinnan__ang"), "neighbours expand in the background")
	assert.False(t, e.IsExpanded("*rinnaną__gem-pro"), "auto expansion is one hop")
}
