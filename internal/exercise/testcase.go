package exercise

import (
	"fmt"
	"regexp"
	"strings"

	"plags/internal/ipynb"
)

// fileHeadingRe matches the first line of a file code cell: a comment
// heading naming the file. The name is 1-255 characters and contains no '/'.
var fileHeadingRe = regexp.MustCompile(`^#+\s+([^/]{1,255})$`)

// decoratorPrefix marks judge-internal decorator lines stripped from test
// case summaries shown to students.
const decoratorPrefix = "@judge_util."

// SplitFileCodeCell extracts a named file from a code cell. The first line
// must be a comment heading carrying the filename; the remaining lines,
// trimmed and newline-terminated, are the file content.
func SplitFileCodeCell(cell ipynb.Cell) (TestCase, error) {
	if cell.Kind != ipynb.Code {
		return TestCase{}, fmt.Errorf("file cell must be a code cell")
	}
	lines := strings.SplitAfter(strings.TrimSpace(cell.Source), "\n")
	m := fileHeadingRe.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return TestCase{}, fmt.Errorf("first line of a file code cell does not name a file: %q", strings.TrimSpace(lines[0]))
	}
	content := strings.TrimSpace(strings.Join(lines[1:], "")) + "\n"
	return TestCase{Name: m[1], Content: content, Cell: cell}, nil
}

// SummarizeTestCases renders the exercise's system test cases as one code
// cell for the answer key. Per case, everything before the first
// judge-decorator line is dropped, the decorator lines themselves are
// stripped, and the bodies are joined with blank separator lines.
func SummarizeTestCases(e *Exercise) ipynb.Cell {
	var contents []string
	for _, tc := range e.SystemTestCases {
		lines := strings.Split(strings.TrimSuffix(tc.Content, "\n"), "\n")
		seen := false
		for _, line := range lines {
			if strings.HasPrefix(line, decoratorPrefix) {
				seen = true
				continue
			}
			if seen {
				contents = append(contents, line)
			}
		}
		contents = append(contents, "")
	}
	if len(contents) > 0 {
		contents = contents[:len(contents)-1]
	}
	return ipynb.Cell{Kind: ipynb.Code, Source: strings.Join(contents, "\n")}
}
