// Package validate walks tileset.json, verifies every content.uri
// resolves to a file, and parses each file as a valid GLB.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
)

// Report is the outcome of validating one tileset directory.
type Report struct {
	TilesetPath string
	TileCount   int
	Problems    []Problem
}

// OK reports whether validation found no problems.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Problem names one validation failure: the tile address/URI and what went
// wrong.
type Problem struct {
	URI string
	Err error
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.URI, p.Err)
}

type tilesetDoc struct {
	Root *tileDoc `json:"root"`
}

type contentDoc struct {
	URI string `json:"uri"`
}

type tileDoc struct {
	Content  *contentDoc `json:"content,omitempty"`
	Children []*tileDoc  `json:"children,omitempty"`
}

// Dir walks dir/tileset.json and every referenced GLB. It never returns
// an error for a bad tile — problems accumulate into Report.Problems —
// but does return an error if tileset.json itself can't be read or
// parsed, since that aborts validation entirely.
func Dir(dir string) (Report, error) {
	path := filepath.Join(dir, "tileset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("validate: read %s: %w", path, err)
	}
	var doc tilesetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Report{}, fmt.Errorf("validate: parse %s: %w", path, err)
	}
	if doc.Root == nil {
		return Report{}, fmt.Errorf("validate: %s has no root tile", path)
	}

	report := Report{TilesetPath: path}
	walk(dir, doc.Root, &report)
	return report, nil
}

func walk(dir string, t *tileDoc, report *Report) {
	if t.Content != nil && t.Content.URI != "" {
		report.TileCount++
		glbPath := filepath.Join(dir, t.Content.URI)
		if _, err := gltf.Open(glbPath); err != nil {
			report.Problems = append(report.Problems, Problem{URI: t.Content.URI, Err: err})
		}
	}
	for _, c := range t.Children {
		walk(dir, c, report)
	}
}
