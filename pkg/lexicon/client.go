package lexicon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	tracerName = "github.com/dd0wney/etymograph/pkg/lexicon"

	// maxBody bounds how much of a response the client will read.
	maxBody = 8 << 20
)

// errStatusNotFound marks a 404 from the service.
var errStatusNotFound = errors.New("404 not found")

// Client talks to an etymology service over its JSON API.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	agent   string
	log     logging.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
	group   singleflight.Group
}

// NewClient validates opts and builds a client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("lexicon client: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("lexicon client: invalid base url %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		base:    base,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		cache:   opts.Cache,
		agent:   opts.UserAgent,
		log:     logging.OrNop(opts.Logger).With(logging.Component("lexicon-client")),
		metrics: opts.Metrics,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.base.String() }

// FetchEtymology returns a word with its parents and children. Concurrent
// calls for the same word share one request; successful responses are
// cached when the client has a cache.
func (c *Client) FetchEtymology(ctx context.Context, word, language string) (*EtymologyResponse, error) {
	id := etymology.WordID(word, language)
	ctx, span := c.tracer.Start(ctx, "lexicon.FetchEtymology", trace.WithAttributes(
		attribute.String("etymology.word", word),
		attribute.String("etymology.language", language),
	))
	defer span.End()

	p := "/api/etymology/" + url.PathEscape(word) + "/" + url.PathEscape(language)
	key := "etymology/" + id

	v, err, shared := c.group.Do(key, func() (any, error) {
		body, err := c.cached(ctx, key, p, nil)
		if err != nil {
			return nil, err
		}
		var resp EtymologyResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode etymology: %w", err)
		}
		return &resp, nil
	})
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, errStatusNotFound) {
			return nil, etymology.NotFound("fetchEtymology", id)
		}
		return nil, etymology.FetchFailed("fetchEtymology", id, err)
	}
	return v.(*EtymologyResponse), nil
}

// Search returns autocomplete hits for a prefix. Queries shorter than two
// characters return nothing without touching the network.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]SearchResult, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < 2 {
		return nil, nil
	}
	ctx, span := c.tracer.Start(ctx, "lexicon.Search", trace.WithAttributes(
		attribute.String("search.query", q),
		attribute.Int("search.limit", limit),
	))
	defer span.End()

	query := url.Values{"q": {q}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []SearchResult
	if err := c.getJSON(ctx, "/api/search", query, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, etymology.FetchFailed("search", "", err)
	}
	return out, nil
}

// Stats returns the service's corpus summary.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.getJSON(ctx, "/api/stats", nil, &out); err != nil {
		return Stats{}, etymology.FetchFailed("stats", "", err)
	}
	return out, nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.getJSON(ctx, "/api/health", nil, &out); err != nil {
		return Health{}, etymology.FetchFailed("health", "", err)
	}
	if out.Status != "ok" {
		return out, etymology.FetchFailed("health", "", fmt.Errorf("status %q", out.Status))
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, p string, query url.Values, out any) error {
	body, err := c.get(ctx, p, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", p, err)
	}
	return nil
}

// cached serves key from the cache, falling back to a request whose body
// is stored on success. Cache failures are logged and otherwise ignored.
func (c *Client) cached(ctx context.Context, key, p string, query url.Values) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(key)
		if err != nil {
			c.log.Warn("cache read failed", logging.String("key", key), logging.Error(err))
		}
		if c.metrics != nil {
			c.metrics.RecordCache("etymology", ok)
		}
		if ok {
			return body, nil
		}
	}
	body, err := c.get(ctx, p, query)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(key, body); err != nil {
			c.log.Warn("cache write failed", logging.String("key", key), logging.Error(err))
		}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, p string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := c.base.String() + p
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			logging.URL(p), logging.RequestID(requestID), logging.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.log.Debug("request",
		logging.URL(p),
		logging.RequestID(requestID),
		logging.Int("status", resp.StatusCode),
		logging.Latency(time.Since(start)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errStatusNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s: %s", resp.Status, errorMessage(body))
	}
	return body, nil
}

// errorMessage pulls the "error" field out of a JSON error body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
