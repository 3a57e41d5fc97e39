package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/graphstate"
	"github.com/dd0wney/etymograph/pkg/health"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/metrics"
)

var errNeedsDataset = errors.New("this command needs a local dataset; set lexicon.source to a file, s3:// URI or builtin:<name>")

// backend is the configured lexicon source, opened.
type backend struct {
	lookup graphstate.Lookup
	// Exactly one of static and client is set.
	static *lexicon.StaticLexicon
	client *lexicon.Client
	cache  *lexicon.BadgerCache
}

// openBackend opens the configured source. reg may be nil.
func (a *app) openBackend(ctx context.Context, reg *metrics.Registry) (*backend, error) {
	lc := a.cfg.Lexicon
	if !lc.IsRemote() {
		lex, err := a.loadStatic(ctx)
		if err != nil {
			return nil, err
		}
		return &backend{lookup: lex, static: lex}, nil
	}

	opts := lc.Remote
	opts.Logger = a.log
	opts.Metrics = reg
	b := &backend{}
	if lc.CacheEnabled() {
		cache, err := lexicon.OpenBadgerCache(lc.Cache, a.log)
		if err != nil {
			return nil, err
		}
		b.cache = cache
		opts.Cache = cache
	}
	client, err := lexicon.NewClient(opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.client = client
	b.lookup = lexicon.NewRemoteLookup(client)
	return b, nil
}

// loadStatic loads the configured dataset into memory.
func (a *app) loadStatic(ctx context.Context) (*lexicon.StaticLexicon, error) {
	lc := a.cfg.Lexicon
	if lc.IsRemote() {
		return nil, errNeedsDataset
	}
	ds, err := lexicon.OpenDataset(ctx, lc.Source, lc.S3)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", lc.Source, err)
	}
	return lexicon.NewStaticLexicon(ds)
}

// Close releases the response cache, if any.
func (b *backend) Close() error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Close()
}

// Search finds words starting with q.
func (b *backend) Search(ctx context.Context, q string, limit int) ([]lexicon.SearchResult, error) {
	if b.client != nil {
		return b.client.Search(ctx, q, limit)
	}
	words := b.static.Search(q, limit)
	out := make([]lexicon.SearchResult, 0, len(words))
	for _, w := range words {
		out = append(out, searchResult(w))
	}
	return out, nil
}

func searchResult(w etymology.WordRecord) lexicon.SearchResult {
	display := w.LanguageDisplay
	if display == "" {
		display = w.Language
	}
	return lexicon.SearchResult{
		Word:     w.Word,
		Language: display,
		LangCode: w.Language,
		POS:      w.PartOfSpeech,
	}
}

// registerChecks adds readiness checks for this backend to hc.
func (b *backend) registerChecks(hc *health.Checker) {
	if b.static != nil {
		lex := b.static
		hc.RegisterReadinessCheck("lexicon", health.LexiconCheck(func() int {
			return lex.Stats().TotalWords
		}))
	}
	if b.client != nil {
		client := b.client
		hc.RegisterReadinessCheck("upstream", health.UpstreamCheck(client.BaseURL(), func(ctx context.Context) error {
			_, err := client.Health(ctx)
			return err
		}))
	}
	if b.cache != nil {
		cache := b.cache
		hc.RegisterReadinessCheck("cache", health.CacheCheck(func() error {
			_, _, err := cache.Get("health/probe")
			return err
		}))
	}
}
