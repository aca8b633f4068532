// Package exercise holds the validated, typed record for one exercise and
// its derived views: submission cells, redirection, content versioning.
package exercise

import (
	"fmt"
	"path/filepath"
	"regexp"

	"plags/internal/ipynb"
	"plags/internal/schema"
)

const submissionCellFormat = `##########################################################
##  <[ %s ]> 解答セル (Answer cell)
##  このコメントの書き変えを禁ず (Never edit this comment)
##########################################################

%s`

const redirectionCellFormat = `# このセルではなく %s を使ってください
# Use %s instead of this cell`

var redirectRe = regexp.MustCompile(`^#[ \t]*redirect-to[ \t]*:[ \t]*(\S+?\.ipynb)`)

// SettingGenerator produces the judge's execution parameters for one
// exercise. It is loaded from the SYSTEM_TEST_SETTING cell of the master.
type SettingGenerator func(environment any, timeLimit, memoryLimit int, key, version, source string) (map[string]any, error)

// TestCase is one named system test file extracted from a code cell.
type TestCase struct {
	Name    string
	Content string
	Cell    ipynb.Cell
}

// Exercise is the validated aggregate built from one master document.
// Immutable after construction except for Version, which the cleanup pass
// may rewrite when re-publishing masters.
type Exercise struct {
	Key     string
	Dirpath string
	Version string
	Title   string

	Content           []ipynb.Cell
	StudentCodeCell   ipynb.Cell
	Explanation       []ipynb.Cell
	AnswerExamples    []ipynb.Cell
	StudentTests      []ipynb.Cell
	SystemTestCases   []TestCase
	SystemTestSetting SettingGenerator
}

// New builds an Exercise from segmented field groups. Each group is
// validated against the field schema; field-specific post-processing is
// applied per key. loadSetting turns the SYSTEM_TEST_SETTING cell into a
// setting generator (the sandboxed-evaluation collaborator).
func New(key, dirpath, version string, fields map[string][]ipynb.Cell,
	loadSetting func(ipynb.Cell) (SettingGenerator, error)) (*Exercise, error) {

	ex := &Exercise{Key: key, Dirpath: dirpath, Version: version}

	for name, cells := range fields {
		fieldKey, constraint, ok := schema.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("exercise %s: unknown field name %q", key, name)
		}
		// Recognized but never materialized.
		if fieldKey == schema.FieldWarning || fieldKey == schema.FieldSystemTestCasesExecuteCell {
			continue
		}
		if violations := schema.Validate(fieldKey, cells); len(violations) > 0 {
			return nil, fmt.Errorf("exercise %s: %w", key, violations[0])
		}
		if constraint.MarkdownHeaded && fieldKey == schema.FieldContent {
			title, _ := schema.HeadingTitle(cells[0])
			ex.Title = title
		}

		switch fieldKey {
		case schema.FieldContent:
			ex.Content = cells
		case schema.FieldStudentCodeCell:
			ex.StudentCodeCell = cells[0]
		case schema.FieldExplanation:
			ex.Explanation = cells
		case schema.FieldAnswerExamples:
			ex.AnswerExamples = cells
		case schema.FieldStudentTests:
			ex.StudentTests = cells
		case schema.FieldSystemTestCases:
			for _, cell := range cells {
				tc, err := SplitFileCodeCell(cell)
				if err != nil {
					return nil, fmt.Errorf("exercise %s: %w", key, err)
				}
				ex.SystemTestCases = append(ex.SystemTestCases, tc)
			}
		case schema.FieldSystemTestSetting:
			gen, err := loadSetting(cells[0])
			if err != nil {
				return nil, fmt.Errorf("exercise %s: load system test setting: %w", key, err)
			}
			ex.SystemTestSetting = gen
		}
	}

	for _, required := range []struct {
		name string
		ok   bool
	}{
		{"CONTENT", ex.Content != nil},
		{"STUDENT_CODE_CELL", ex.StudentCodeCell != (ipynb.Cell{})},
		{"SYSTEM_TEST_CASES", ex.SystemTestCases != nil},
		{"SYSTEM_TEST_SETTING", ex.SystemTestSetting != nil},
	} {
		if !required.ok {
			return nil, fmt.Errorf("exercise %s: required field %s is missing", key, required.name)
		}
	}
	return ex, nil
}

// SubmissionRedirection returns the redirect target filename if the student
// code cell starts with a redirect-to directive, else "".
func (e *Exercise) SubmissionRedirection() string {
	m := redirectRe.FindStringSubmatch(e.StudentCodeCell.Source)
	if m == nil {
		return ""
	}
	return m[1]
}

// SubmissionCell renders the student-facing answer cell: a redirection
// notice when the exercise redirects, otherwise the student code wrapped in
// the banner comment. Downstream redirect validation greps for the literal
// `<[ key ]>` marker in the banner, so the format must never change shape.
func (e *Exercise) SubmissionCell() ipynb.Cell {
	if redirectTo := e.SubmissionRedirection(); redirectTo != "" {
		return ipynb.Cell{Kind: ipynb.Code, Source: fmt.Sprintf(redirectionCellFormat, redirectTo, redirectTo)}
	}
	return ipynb.Cell{Kind: ipynb.Code, Source: fmt.Sprintf(submissionCellFormat, e.Key, e.StudentCodeCell.Source)}
}

// SubmissionCellFilled renders the banner cell with the first answer
// example as content, falling back to the student code cell. Used for the
// instructor's fully solved form.
func (e *Exercise) SubmissionCellFilled() ipynb.Cell {
	content := e.StudentCodeCell.Source
	if len(e.AnswerExamples) > 0 {
		content = e.AnswerExamples[0].Source
	}
	return ipynb.Cell{Kind: ipynb.Code, Source: fmt.Sprintf(submissionCellFormat, e.Key, content)}
}

// GenerateSetting invokes the stored setting generator with resolved judge
// parameters and this exercise's identity.
func (e *Exercise) GenerateSetting(environment any, timeLimit, memoryLimit int) (map[string]any, error) {
	return e.SystemTestSetting(environment, timeLimit, memoryLimit, e.Key, e.Version, e.StudentCodeCell.Source)
}

// MasterPath returns the path of the master document this exercise was
// loaded from.
func (e *Exercise) MasterPath() string {
	return filepath.Join(e.Dirpath, e.Key+".ipynb")
}
