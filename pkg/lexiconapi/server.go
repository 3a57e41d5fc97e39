// Package lexiconapi serves a lexicon over the JSON API that
// lexicon.Client consumes.
package lexiconapi

import (
	"net/http"
	"sync"

	"github.com/dd0wney/etymograph/pkg/health"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	defaultWordsLimit  = 10
	minQueryLength     = 2
)

// Options configures a Server.
type Options struct {
	// ServiceName labels trace spans.
	ServiceName string
	Logger      logging.Logger
	// Metrics, when set, records request metrics and serves /metrics.
	Metrics *metrics.Registry
	// Health receives a lexicon readiness check and is served on /livez
	// and /readyz. A checker is created when nil.
	Health *health.Checker
}

// Server answers lexicon queries. The lexicon can be swapped while
// serving.
type Server struct {
	mu      sync.RWMutex
	lex     *lexicon.StaticLexicon
	router  *gin.Engine
	log     logging.Logger
	metrics *metrics.Registry
}

// New builds a server over lex.
func New(lex *lexicon.StaticLexicon, opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "etymograph"
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker()
	}
	s := &Server{
		lex:     lex,
		log:     logging.OrNop(opts.Logger).With(logging.Component("lexiconapi")),
		metrics: opts.Metrics,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(opts.ServiceName))
	r.Use(s.requestID(), s.cors(), s.observe())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/search", s.handleSearch)
	api.GET("/words/:word", s.handleWords)
	api.GET("/etymology/:word/:language", s.handleEtymology)
	api.GET("/path/:from/:to", s.handlePath)
	opts.Health.RegisterReadinessCheck("lexicon", health.LexiconCheck(func() int {
		return s.Lexicon().Stats().TotalWords
	}))
	r.GET("/livez", gin.WrapF(opts.Health.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(opts.Health.ReadinessHandler()))
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Swap replaces the lexicon being served.
func (s *Server) Swap(lex *lexicon.StaticLexicon) {
	s.mu.Lock()
	s.lex = lex
	s.mu.Unlock()
	s.log.Info("lexicon swapped",
		logging.String("dataset", lex.Name()),
		logging.Count(lex.Stats().TotalWords))
}

// Lexicon returns the lexicon currently served.
func (s *Server) Lexicon() *lexicon.StaticLexicon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lex
}
