// Package ipynb reads and writes Jupyter notebook files (nbformat 4) and
// provides the normalized cell model the rest of plags works on.
// The notebook is treated as an opaque round-trippable container: cells are
// an ordered array of maps, metadata is an open key/value structure.
package ipynb

import "strings"

// Kind is a notebook cell type.
type Kind string

const (
	Code     Kind = "code"
	Markdown Kind = "markdown"
	Raw      Kind = "raw"
)

// Cell is one normalized notebook cell. Immutable value; equality by value.
type Cell struct {
	Kind   Kind
	Source string
}

// ToRaw converts the cell to its nbformat representation. Code cells carry
// empty execution-state fields; other cells do not.
func (c Cell) ToRaw() map[string]any {
	if c.Kind == Code {
		return map[string]any{
			"cell_type":       string(c.Kind),
			"execution_count": nil,
			"metadata":        map[string]any{},
			"outputs":         []any{},
			"source":          SplitLines(c.Source),
		}
	}
	return map[string]any{
		"cell_type": string(c.Kind),
		"metadata":  map[string]any{},
		"source":    SplitLines(c.Source),
	}
}

// ToRawCells converts a slice of cells.
func ToRawCells(cells []Cell) []map[string]any {
	raw := make([]map[string]any, len(cells))
	for i, c := range cells {
		raw[i] = c.ToRaw()
	}
	return raw
}

// SplitLines splits s into lines, keeping the trailing newline on each line.
// An empty string yields an empty slice, matching the nbformat convention.
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	var lines []string
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			return lines
		}
		lines = append(lines, s[:i+1])
		if i+1 == len(s) {
			return lines
		}
		s = s[i+1:]
	}
}
