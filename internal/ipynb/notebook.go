package ipynb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// notebook is the top-level nbformat 4 document.
type notebook struct {
	Cells         []map[string]any `json:"cells"`
	Metadata      map[string]any   `json:"metadata"`
	NBFormat      int              `json:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor"`
}

// LoadCells reads a notebook file and returns its raw cell array and
// metadata. When strip is true, execution state (outputs, execution_count)
// is cleared from code cells so the result can be republished as-is.
func LoadCells(path string, strip bool) ([]map[string]any, map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, nil, fmt.Errorf("parse notebook %s: %w", path, err)
	}
	if strip {
		for _, cell := range nb.Cells {
			if cell["cell_type"] == string(Code) {
				cell["execution_count"] = nil
				cell["outputs"] = []any{}
			}
		}
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	return nb.Cells, nb.Metadata, nil
}

// SaveAsNotebook writes cells and metadata as an nbformat 4 document,
// replacing any existing file.
func SaveAsNotebook(path string, cells []map[string]any, metadata map[string]any) error {
	if cells == nil {
		cells = []map[string]any{}
	}
	nb := notebook{
		Cells:         cells,
		Metadata:      metadata,
		NBFormat:      4,
		NBFormatMinor: 4,
	}
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return fmt.Errorf("encode notebook %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// NormalizedCells flattens raw notebook cells to (kind, source) pairs with
// the source line array joined into a single string.
func NormalizedCells(raw []map[string]any) []Cell {
	cells := make([]Cell, 0, len(raw))
	for _, r := range raw {
		kind, _ := r["cell_type"].(string)
		cells = append(cells, Cell{Kind: Kind(kind), Source: rawSource(r)})
	}
	return cells
}

// rawSource joins a cell's source, which nbformat stores either as a list
// of lines or a single string.
func rawSource(cell map[string]any) string {
	switch src := cell["source"].(type) {
	case string:
		return src
	case []any:
		var b strings.Builder
		for _, line := range src {
			if s, ok := line.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	}
	return ""
}
