package schema

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"plags/internal/ipynb"
)

// contentTypeRe matches a field delimiter marker inside a markdown cell.
var contentTypeRe = regexp.MustCompile(`\*\*\*CONTENT_TYPE:\s*(.+?)\*\*\*`)

// Segment splits an ordered cell sequence into named field groups using the
// ***CONTENT_TYPE: FIELD*** markers. It is a linear state machine: no field
// until the first marker, then every non-marker cell accumulates under the
// current field. Marker cells themselves are discarded. Blank cells are
// skipped. Field names are not resolved against the registry here; the
// loader does that so unknown names fail with document context.
func Segment(cells []ipynb.Cell, log *zap.Logger) (map[string][]ipynb.Cell, error) {
	results := map[string][]ipynb.Cell{}
	currentKey := ""
	var group []ipynb.Cell

	for _, cell := range cells {
		if log != nil {
			log.Debug("segment", zap.String("field", currentKey), zap.String("source", snippet(cell.Source)))
		}
		if isBlank(cell.Source) {
			continue
		}

		if cell.Kind == ipynb.Code || cell.Kind == ipynb.Raw {
			if currentKey == "" {
				return nil, fmt.Errorf("%s cell outside any field: %q", cell.Kind, snippet(cell.Source))
			}
			group = append(group, cell)
			continue
		}

		matches := contentTypeRe.FindAllStringSubmatch(cell.Source, -1)
		switch len(matches) {
		case 0:
			if currentKey == "" {
				return nil, fmt.Errorf("markdown cell outside any field: %q", snippet(cell.Source))
			}
			group = append(group, cell)
		case 1:
			if currentKey != "" {
				results[currentKey] = group
				group = nil
			}
			currentKey = matches[0][1]
		default:
			return nil, fmt.Errorf("multiple field keys found in cell %q", snippet(cell.Source))
		}
	}

	if currentKey == "" {
		return nil, fmt.Errorf("no field marker found in document")
	}
	results[currentKey] = group
	return results, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func snippet(s string) string {
	if len(s) <= 64 {
		return s
	}
	return s[:64] + " ..."
}
