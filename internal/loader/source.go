package loader

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dyluth/teamboard/pkg/record"
	"gopkg.in/yaml.v3"
)

//go:embed dataset/*.json
var dataset embed.FS

// Source is the canonical external origin of a record collection.
// Fetch returns the full collection or an error; there are no partial results.
type Source interface {
	Fetch(ctx context.Context, kind record.Kind) (record.Collection, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, kind record.Kind) (record.Collection, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, kind record.Kind) (record.Collection, error) {
	return f(ctx, kind)
}

// StaticSource serves the dataset compiled into the binary.
// Each kind lives in dataset/<kind>.json as {"<kind>": [ ...records ]}.
type StaticSource struct {
	fsys fs.FS
}

// NewStaticSource returns a source over the embedded dataset.
func NewStaticSource() *StaticSource {
	return &StaticSource{fsys: dataset}
}

// Fetch reads and decodes the embedded list for kind.
func (s *StaticSource) Fetch(ctx context.Context, kind record.Kind) (record.Collection, error) {
	data, err := fs.ReadFile(s.fsys, "dataset/"+string(kind)+".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded %s dataset: %w", kind, err)
	}
	return decodeJSONList(data, kind)
}

// FileSource reads seed files from a directory: <dir>/<kind>.json, .yaml or .yml,
// using the same {"<kind>": [...]} envelope as the embedded dataset.
type FileSource struct {
	dir string
}

// NewFileSource returns a source reading seed files from dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch reads the first seed file that exists for kind.
func (s *FileSource) Fetch(ctx context.Context, kind record.Kind) (record.Collection, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(s.dir, string(kind)+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}

		if ext == ".json" {
			return decodeJSONList(data, kind)
		}
		return decodeYAMLList(data, kind)
	}

	return nil, fmt.Errorf("no seed file for %s in %s", kind, s.dir)
}

func decodeJSONList(data []byte, kind record.Kind) (record.Collection, error) {
	var envelope map[string]record.Collection
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse %s dataset: %w", kind, err)
	}

	coll, ok := envelope[string(kind)]
	if !ok {
		return nil, fmt.Errorf("%s dataset has no %q list", kind, kind)
	}
	if coll == nil {
		coll = record.Collection{}
	}
	return coll, nil
}

func decodeYAMLList(data []byte, kind record.Kind) (record.Collection, error) {
	var envelope map[string][]map[string]any
	if err := yaml.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse %s dataset: %w", kind, err)
	}

	items, ok := envelope[string(kind)]
	if !ok {
		return nil, fmt.Errorf("%s dataset has no %q list", kind, kind)
	}

	coll := make(record.Collection, 0, len(items))
	for i, item := range items {
		r, err := record.FromMap(item)
		if err != nil {
			return nil, fmt.Errorf("%s dataset entry %d: %w", kind, i, err)
		}
		coll = append(coll, r)
	}
	return coll, nil
}
