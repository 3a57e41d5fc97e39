package lexicon

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ErrUnknownDataset is returned for a dataset name or URI that does not
// resolve.
var ErrUnknownDataset = errors.New("unknown dataset")

//go:embed data/*.yaml
var builtinFS embed.FS

// BuiltinNames lists the embedded datasets.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Builtin loads an embedded dataset by name.
func Builtin(name string) (Dataset, error) {
	data, err := builtinFS.ReadFile(path.Join("data", name+".yaml"))
	if err != nil {
		return Dataset{}, fmt.Errorf("builtin dataset %q: %w (have %s)",
			name, ErrUnknownDataset, strings.Join(BuiltinNames(), ", "))
	}
	ds, err := ParseDataset(data, FormatYAML)
	if err != nil {
		return Dataset{}, fmt.Errorf("builtin dataset %q: %w", name, err)
	}
	return ds, nil
}
