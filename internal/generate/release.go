package generate

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"plags/internal/ipynb"
	"plags/internal/schema"
)

// MastersArchive names the zip of as-is released masters.
const MastersArchive = "as-is_masters"

// ReleaseAsIs re-publishes master notebooks without field segmentation:
// the title comes from the first markdown heading anywhere in the document,
// versions and deadlines are renewed per the given policy, and each master
// gets a paired non-extraction submission form. With compress, the released
// masters are additionally archived as MastersArchive + ".zip".
func ReleaseAsIs(paths []string, newDeadlines map[string]any, renewal VersionRenewal, compress bool, log *zap.Logger) error {
	existing := map[string]string{}
	for _, path := range paths {
		key := strings.TrimSuffix(filepath.Base(path), ".ipynb")
		if !strings.HasSuffix(path, ".ipynb") {
			return fmt.Errorf("not a notebook: %s", path)
		}
		if prev, ok := existing[key]; ok {
			return fmt.Errorf("exercise key conflicts between %s and %s", path, prev)
		}
		existing[key] = path
		if err := releaseNotebook(path, key, newDeadlines, renewal, log); err != nil {
			return err
		}
	}

	if compress {
		log.Info("creating masters archive", zap.String("zip", MastersArchive+".zip"))
		if err := zipFlat(paths, MastersArchive+".zip"); err != nil {
			return err
		}
	}
	return nil
}

func releaseNotebook(path, key string, newDeadlines map[string]any, renewal VersionRenewal, log *zap.Logger) error {
	raw, metadata, err := ipynb.LoadCells(path, true)
	if err != nil {
		return err
	}
	title := firstHeading(ipynb.NormalizedCells(raw))
	version := ipynb.MasterVersion(metadata)
	if renewal.Renew {
		log.Info("renew version", zap.String("path", path))
		if renewal.Literal == "" {
			data, err := json.Marshal(raw)
			if err != nil {
				return err
			}
			version = fmt.Sprintf("%x", sha1.Sum(data))
		} else {
			version = renewal.Literal
		}
	}
	deadlines := newDeadlines
	if deadlines == nil {
		deadlines = ipynb.MasterDeadlines(metadata)
	} else {
		log.Info("renew deadline", zap.String("path", path))
	}

	if err := ipynb.SaveAsNotebook(path, raw, ipynb.MasterMetadata(key, false, version, title, deadlines)); err != nil {
		return err
	}
	log.Info("released master", zap.String("path", path))

	formPath := filepath.Join(filepath.Dir(path), "form_"+key+".ipynb")
	formMetadata := ipynb.SubmissionMetadata(map[string]string{key: version}, false)
	if err := ipynb.SaveAsNotebook(formPath, raw, formMetadata); err != nil {
		return err
	}
	log.Info("released form", zap.String("path", formPath))
	return nil
}

// firstHeading returns the first markdown heading found anywhere in the
// document, or "" if none.
func firstHeading(cells []ipynb.Cell) string {
	for _, cell := range cells {
		if cell.Kind != ipynb.Markdown {
			continue
		}
		for _, line := range strings.Split(cell.Source, "\n") {
			if title, ok := schema.HeadingTitle(ipynb.Cell{Kind: ipynb.Markdown, Source: line}); ok {
				return title
			}
		}
	}
	return ""
}

// zipFlat archives the given files under their base names.
func zipFlat(paths []string, zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for _, path := range paths {
		dst, err := w.Create(filepath.Base(path))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}
