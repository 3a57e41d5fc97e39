package lexicon

import (
	"net/http"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/metrics"
)

// RemoteWord is a word entry as served by the etymology service.
// Language is the display name; LangCode is the code used in ids.
type RemoteWord struct {
	Word          string  `json:"word"`
	Language      string  `json:"language"`
	LangCode      string  `json:"lang_code"`
	POS           string  `json:"pos,omitempty"`
	EtymologyText *string `json:"etymology_text"`
	Senses        []Sense `json:"senses,omitempty"`
}

// Sense is one meaning of a word.
type Sense struct {
	Glosses []string `json:"glosses,omitempty"`
}

// Code returns the language code of the entry, falling back to the
// language field for services that only send one.
func (w RemoteWord) Code() string {
	if w.LangCode != "" {
		return w.LangCode
	}
	return w.Language
}

// Record converts the entry into a word record.
func (w RemoteWord) Record() etymology.WordRecord {
	rec := etymology.WordRecord{
		Word:         w.Word,
		Language:     w.Code(),
		PartOfSpeech: w.POS,
	}
	if w.Language != "" && w.Language != rec.Language {
		rec.LanguageDisplay = w.Language
	}
	for _, s := range w.Senses {
		if len(s.Glosses) > 0 {
			rec.Definition = s.Glosses[0]
			break
		}
	}
	return rec.Normalize()
}

// RelatedRef is one relationship in an etymology response. Type is the
// Wiktionary template name (inh, der, bor, ...) or a relation type, and
// Details is nil when the service has no entry for the related word.
type RelatedRef struct {
	Word     string      `json:"word"`
	Language string      `json:"language"`
	Type     string      `json:"type"`
	Details  *RemoteWord `json:"details"`
}

// EtymologyResponse is the body of GET /api/etymology/{word}/{language}.
type EtymologyResponse struct {
	Word     RemoteWord   `json:"word"`
	Parents  []RelatedRef `json:"parents"`
	Children []RelatedRef `json:"children"`
}

// SearchResult is one autocomplete hit.
type SearchResult struct {
	Word     string `json:"word"`
	Language string `json:"language"`
	LangCode string `json:"lang_code"`
	POS      string `json:"pos,omitempty"`
}

// ID returns the word id of the hit.
func (r SearchResult) ID() string {
	code := r.LangCode
	if code == "" {
		code = r.Language
	}
	return etymology.WordID(r.Word, code)
}

// Health is the body of GET /api/health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL   string        `yaml:"base_url" toml:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout" validate:"gte=0"`
	RateLimit float64       `yaml:"rate_limit" toml:"rate_limit" validate:"gte=0"`
	Burst     int           `yaml:"burst" toml:"burst" validate:"gte=0"`
	UserAgent string        `yaml:"user_agent" toml:"user_agent"`

	Cache      Cache             `yaml:"-" toml:"-"`
	HTTPClient *http.Client      `yaml:"-" toml:"-"`
	Logger     logging.Logger    `yaml:"-" toml:"-"`
	Metrics    *metrics.Registry `yaml:"-" toml:"-"`
}

// DefaultClientOptions returns options for a local etymology service.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:   "http://localhost:3001",
		Timeout:   10 * time.Second,
		RateLimit: 20,
		Burst:     10,
		UserAgent: "etymograph",
	}
}

// Cache stores raw response bodies by key.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}
