// Package generate renders exercise records into the output artifacts:
// answer keys, submission forms, redirect stubs, filled forms, and the
// autograder configuration archive.
package generate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"plags/internal/exercise"
	"plags/internal/ipynb"
)

// IntroductionFile is the optional per-directory introduction notebook
// prepended to bundled outputs.
const IntroductionFile = "intro.ipynb"

// AnswerKeyCells assembles the instructor answer key for one exercise.
func AnswerKeyCells(ex *exercise.Exercise) []ipynb.Cell {
	var cells []ipynb.Cell
	cells = append(cells, ex.Content...)
	cells = append(cells, ex.AnswerExamples...)
	cells = append(cells, exercise.SummarizeTestCases(ex))
	cells = append(cells, ex.Explanation...)
	return cells
}

// FormCells assembles the student submission form for one exercise.
func FormCells(ex *exercise.Exercise) []ipynb.Cell {
	var cells []ipynb.Cell
	cells = append(cells, ex.Content...)
	cells = append(cells, ex.SubmissionCell())
	cells = append(cells, ex.StudentTests...)
	return cells
}

// WriteSingleForms writes ans_<key>.ipynb and form_<key>.ipynb (or
// pseudo-form_<key>.ipynb for redirected exercises) next to each master.
func WriteSingleForms(exercises []*exercise.Exercise, log *zap.Logger) error {
	for _, ex := range exercises {
		ansPath := filepath.Join(ex.Dirpath, "ans_"+ex.Key+".ipynb")
		if err := ipynb.SaveAsNotebook(ansPath, ipynb.ToRawCells(AnswerKeyCells(ex)), ipynb.CommonMetadata()); err != nil {
			return err
		}

		var formPath string
		var metadata map[string]any
		if ex.SubmissionRedirection() == "" {
			formPath = filepath.Join(ex.Dirpath, "form_"+ex.Key+".ipynb")
			metadata = ipynb.SubmissionMetadata(map[string]string{ex.Key: ex.Version}, true)
		} else {
			if err := WriteRedirectStub(ex); err != nil {
				return err
			}
			formPath = filepath.Join(ex.Dirpath, "pseudo-form_"+ex.Key+".ipynb")
			metadata = ipynb.CommonMetadata()
		}
		if err := ipynb.SaveAsNotebook(formPath, ipynb.ToRawCells(FormCells(ex)), metadata); err != nil {
			return err
		}
		log.Info("wrote forms", zap.String("key", ex.Key))
	}
	return nil
}

// WriteBundledForms writes one course-unit answer key and submission form
// per bundle directory, introduction first. Directories are processed in
// sorted order so output (and any partial output on a fatal error) is the
// same run to run.
func WriteBundledForms(bundles map[string][]*exercise.Exercise, log *zap.Logger) error {
	dirs := make([]string, 0, len(bundles))
	for dir := range bundles {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dirpath := range dirs {
		exercises := bundles[dirpath]
		dirname := filepath.Base(dirpath)
		intro, err := loadIntroduction(dirpath)
		if err != nil {
			return err
		}

		var answer []ipynb.Cell
		answer = append(answer, intro...)
		for _, ex := range exercises {
			answer = append(answer, AnswerKeyCells(ex)...)
		}
		ansPath := filepath.Join(dirpath, "ans_"+dirname+".ipynb")
		if err := ipynb.SaveAsNotebook(ansPath, ipynb.ToRawCells(answer), ipynb.CommonMetadata()); err != nil {
			return err
		}

		var form []ipynb.Cell
		form = append(form, intro...)
		keyToVersion := map[string]string{}
		for _, ex := range exercises {
			form = append(form, FormCells(ex)...)
			if ex.SubmissionRedirection() == "" {
				keyToVersion[ex.Key] = ex.Version
			}
		}
		formPath := filepath.Join(dirpath, "form_"+dirname+".ipynb")
		if err := ipynb.SaveAsNotebook(formPath, ipynb.ToRawCells(form), ipynb.SubmissionMetadata(keyToVersion, true)); err != nil {
			return err
		}
		log.Info("wrote bundle", zap.String("dir", dirpath), zap.Int("exercises", len(exercises)))

		for _, ex := range exercises {
			if ex.SubmissionRedirection() != "" {
				if err := WriteRedirectStub(ex); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// loadIntroduction reads the directory's intro notebook, falling back to a
// synthetic single-heading cell named after the directory. Only a missing
// file triggers the fallback; an unreadable or malformed intro is fatal.
func loadIntroduction(dirpath string) ([]ipynb.Cell, error) {
	raw, _, err := ipynb.LoadCells(filepath.Join(dirpath, IntroductionFile), false)
	if errors.Is(err, fs.ErrNotExist) {
		return []ipynb.Cell{{Kind: ipynb.Markdown, Source: "# " + filepath.Base(dirpath)}}, nil
	}
	if err != nil {
		return nil, err
	}
	return ipynb.NormalizedCells(raw), nil
}

// WriteRedirectStub registers a redirecting exercise's key and version in
// the metadata of its existing target document. The target must already
// contain the banner marker for the key.
func WriteRedirectStub(ex *exercise.Exercise) error {
	redirectTo := ex.SubmissionRedirection()
	path := filepath.Join(ex.Dirpath, redirectTo)
	raw, _, err := ipynb.LoadCells(path, true)
	if err != nil {
		return fmt.Errorf("redirect target of %s: %w", ex.Key, err)
	}
	marker := "<[ " + ex.Key + " ]>"
	found := false
	for _, cell := range ipynb.NormalizedCells(raw) {
		if cell.Kind == ipynb.Code && strings.Contains(cell.Source, marker) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%s has no answer cell for %s", redirectTo, ex.Key)
	}
	metadata := ipynb.SubmissionMetadata(map[string]string{ex.Key: ex.Version}, true)
	return ipynb.SaveAsNotebook(path, raw, metadata)
}

// WriteFilledForm writes an all-filled instructor form covering every given
// exercise.
func WriteFilledForm(exercises []*exercise.Exercise, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	keyToVersion := map[string]string{}
	cells := make([]ipynb.Cell, 0, len(exercises))
	for _, ex := range exercises {
		keyToVersion[ex.Key] = ex.Version
		cells = append(cells, ex.SubmissionCellFilled())
	}
	return ipynb.SaveAsNotebook(path, ipynb.ToRawCells(cells), ipynb.SubmissionMetadata(keyToVersion, true))
}
