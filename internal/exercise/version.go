package exercise

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"

	"plags/internal/ipynb"
)

// hashDefinition is the canonical encoding of the version-relevant parts of
// an exercise. Key order is fixed by the struct, map keys are sorted by the
// JSON encoder, so the digest is deterministic.
type hashDefinition struct {
	Content        []map[string]any `json:"content"`
	SubmissionCell map[string]any   `json:"submission_cell"`
	StudentTests   []map[string]any `json:"student_tests"`
}

// ContentHash returns the SHA-1 digest of the exercise definition: content
// cells, rendered submission cell, and student tests. Two records built
// from byte-identical inputs hash identically; changing any one changes the
// digest.
func (e *Exercise) ContentHash() (string, error) {
	def := hashDefinition{
		Content:        ipynb.ToRawCells(e.Content),
		SubmissionCell: e.SubmissionCell().ToRaw(),
		StudentTests:   ipynb.ToRawCells(e.StudentTests),
	}
	data, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("encode exercise definition: %w", err)
	}
	return fmt.Sprintf("%x", sha1.Sum(data)), nil
}
