package generate

import (
	"strings"

	"go.uber.org/zap"

	"plags/internal/exercise"
	"plags/internal/ipynb"
)

// VersionRenewal selects the version policy for re-published masters.
// When Renew is set, an empty Literal means a content-hash version,
// recomputed per exercise.
type VersionRenewal struct {
	Renew   bool
	Literal string
}

// CleanupMasters re-publishes every master document: cells are normalized
// and trimmed, deadlines are renewed uniformly when newDeadlines is given,
// and versions are renewed per the policy. This is the only place an
// exercise record is mutated after construction.
func CleanupMasters(exercises []*exercise.Exercise, newDeadlines map[string]any, renewal VersionRenewal, log *zap.Logger) error {
	for _, ex := range exercises {
		raw, metadata, err := ipynb.LoadCells(ex.MasterPath(), true)
		if err != nil {
			return err
		}
		cells := make([]map[string]any, 0, len(raw))
		for _, c := range ipynb.NormalizedCells(raw) {
			cells = append(cells, ipynb.Cell{Kind: c.Kind, Source: strings.TrimSpace(c.Source)}.ToRaw())
		}

		deadlines := newDeadlines
		if deadlines == nil {
			deadlines = ipynb.MasterDeadlines(metadata)
		} else {
			log.Info("renew deadline", zap.String("key", ex.Key))
		}

		if renewal.Renew {
			log.Info("renew version", zap.String("key", ex.Key))
			if renewal.Literal == "" {
				version, err := ex.ContentHash()
				if err != nil {
					return err
				}
				ex.Version = version
			} else {
				ex.Version = renewal.Literal
			}
		}

		newMetadata := ipynb.MasterMetadata(ex.Key, true, ex.Version, ex.Title, deadlines)
		if err := ipynb.SaveAsNotebook(ex.MasterPath(), cells, newMetadata); err != nil {
			return err
		}
	}
	return nil
}
