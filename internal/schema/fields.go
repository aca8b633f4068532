// Package schema defines the field layout of a master document: the fixed
// registry of named fields, the per-field constraint records, and the
// segmenter that splits a flat cell sequence into validated field groups.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"plags/internal/ipynb"
)

// FieldKey names one schema-constrained region of a master document.
type FieldKey string

const (
	FieldWarning                    FieldKey = "WARNING"
	FieldContent                    FieldKey = "CONTENT"
	FieldStudentCodeCell            FieldKey = "STUDENT_CODE_CELL"
	FieldExplanation                FieldKey = "EXPLANATION"
	FieldAnswerExamples             FieldKey = "ANSWER_EXAMPLES"
	FieldStudentTests               FieldKey = "STUDENT_TESTS"
	FieldSystemTestCases            FieldKey = "SYSTEM_TEST_CASES"
	FieldSystemTestCasesExecuteCell FieldKey = "SYSTEM_TEST_CASES_EXECUTE_CELL"
	FieldSystemTestSetting          FieldKey = "SYSTEM_TEST_SETTING"
)

// Cardinality states how many cells a field group may hold.
type Cardinality int

const (
	CardinalityNone   Cardinality = iota // no cardinality requirement
	CardinalitySingle                    // exactly one cell
	CardinalityList                      // one or more cells
)

// Constraint is the validation record for one field key.
type Constraint struct {
	Cardinality    Cardinality
	Optional       bool // optional fields are never upper-bound-checked
	MarkdownHeaded bool // first cell must be markdown starting with a heading
	File           bool // cells hold named file contents
	Code           bool // every cell must be a code cell
}

var registry = map[FieldKey]Constraint{
	FieldWarning:                    {},
	FieldContent:                    {Cardinality: CardinalityList, MarkdownHeaded: true},
	FieldStudentCodeCell:            {Cardinality: CardinalitySingle, Code: true},
	FieldExplanation:                {Cardinality: CardinalityList, Optional: true, MarkdownHeaded: true},
	FieldAnswerExamples:             {Cardinality: CardinalityList, Optional: true},
	FieldStudentTests:               {Cardinality: CardinalityList, Optional: true},
	FieldSystemTestCases:            {Cardinality: CardinalityList, File: true},
	FieldSystemTestCasesExecuteCell: {Cardinality: CardinalitySingle, Code: true},
	FieldSystemTestSetting:          {Cardinality: CardinalitySingle},
}

// Lookup resolves a field name from a document marker to its key and
// constraint record.
func Lookup(name string) (FieldKey, Constraint, bool) {
	key := FieldKey(name)
	c, ok := registry[key]
	return key, c, ok
}

// Constraints returns the constraint record for a known field key.
func Constraints(key FieldKey) Constraint {
	return registry[key]
}

// ViolationKind classifies a schema violation.
type ViolationKind int

const (
	ViolationCardinality ViolationKind = iota
	ViolationCellKind
	ViolationHeading
)

// Violation is one structural schema violation found in a field group.
type Violation struct {
	Kind   ViolationKind
	Field  FieldKey
	Detail string
}

func (v Violation) Error() string {
	return fmt.Sprintf("field %s: %s", v.Field, v.Detail)
}

var headingRe = regexp.MustCompile(`^#+\s+(.*)$`)

// HeadingTitle returns the heading text of the cell's first non-blank line,
// if that line is a markdown heading. The line is matched as-is, so a bare
// "# " heading carries an empty title and trailing spaces stay in the title.
func HeadingTitle(cell ipynb.Cell) (string, bool) {
	first := strings.TrimLeft(cell.Source, " \t\r\n")
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	first = strings.TrimSuffix(first, "\r")
	m := headingRe.FindStringSubmatch(first)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Validate checks a segmented field group against its constraint record and
// returns every violation found. Optional fields skip the cardinality check
// entirely, so they impose no validated upper bound.
func Validate(key FieldKey, cells []ipynb.Cell) []Violation {
	c := registry[key]
	var violations []Violation

	if !c.Optional {
		switch c.Cardinality {
		case CardinalityList:
			if len(cells) == 0 {
				violations = append(violations, Violation{ViolationCardinality, key, "must not be empty"})
			}
		case CardinalitySingle:
			if len(cells) != 1 {
				violations = append(violations, Violation{ViolationCardinality, key,
					fmt.Sprintf("must have 1 cell but has %d", len(cells))})
			}
		}
	}

	if c.Code {
		for _, cell := range cells {
			if cell.Kind != ipynb.Code {
				violations = append(violations, Violation{ViolationCellKind, key, "must have only code cell(s)"})
				break
			}
		}
	}

	if c.MarkdownHeaded && len(cells) > 0 {
		if cells[0].Kind == ipynb.Code {
			violations = append(violations, Violation{ViolationCellKind, key, "first cell must not be a code cell"})
		} else if _, ok := HeadingTitle(cells[0]); !ok {
			violations = append(violations, Violation{ViolationHeading, key,
				fmt.Sprintf("first cell does not start with a markdown heading: %q", firstLine(cells[0].Source))})
		}
	}

	return violations
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
