package lexicon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"gopkg.in/yaml.v3"
)

// Dataset is a self-contained lexicon: words and the relationships
// between them.
type Dataset struct {
	Name          string                       `json:"name" yaml:"name"`
	Description   string                       `json:"description,omitempty" yaml:"description,omitempty"`
	Words         []etymology.WordRecord       `json:"words" yaml:"words"`
	Relationships []etymology.RelationshipEdge `json:"relationships" yaml:"relationships"`
}

// Format is a dataset encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrDuplicate is returned when a dataset defines the same word or
// relationship twice.
var ErrDuplicate = errors.New("duplicate entry")

// FormatOf guesses a format from a file name. Unknown extensions are
// treated as YAML, which also accepts JSON.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ParseDataset decodes and prepares a dataset.
func ParseDataset(data []byte, format Format) (Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return Dataset{}, fmt.Errorf("decode json dataset: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil {
			return Dataset{}, fmt.Errorf("decode yaml dataset: %w", err)
		}
	}
	if err := ds.Prepare(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// LoadDatasetFile reads a dataset from disk.
func LoadDatasetFile(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := ParseDataset(data, FormatOf(path))
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ds, nil
}

// Prepare derives missing ids, canonicalises relation type aliases and
// validates every record. Relationships may name words the dataset does
// not define; lookups report those ends as unresolved.
func (d *Dataset) Prepare() error {
	words := make(map[string]struct{}, len(d.Words))
	for i := range d.Words {
		w := d.Words[i].Normalize()
		if err := etymology.ValidateWord(w); err != nil {
			return fmt.Errorf("word %d: %w", i, err)
		}
		if _, dup := words[w.ID]; dup {
			return fmt.Errorf("word %q: %w", w.ID, ErrDuplicate)
		}
		words[w.ID] = struct{}{}
		d.Words[i] = w
	}

	edges := make(map[string]struct{}, len(d.Relationships))
	for i := range d.Relationships {
		e := d.Relationships[i]
		if t, ok := etymology.ParseRelationType(string(e.Type)); ok {
			e.Type = t
		}
		e = e.Normalize()
		if err := etymology.ValidateEdge(e); err != nil {
			return fmt.Errorf("relationship %d: %w", i, err)
		}
		if _, dup := edges[e.ID]; dup {
			return fmt.Errorf("relationship %q: %w", e.ID, ErrDuplicate)
		}
		edges[e.ID] = struct{}{}
		d.Relationships[i] = e
	}
	return nil
}

// Encode writes the dataset in the given format.
func (d Dataset) Encode(format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(d, "", "  ")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
