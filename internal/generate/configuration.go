package generate

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"plags/internal/exercise"
	"plags/internal/ipynb"
	"plags/internal/judge"
)

// ConfDir is the autograder configuration tree, rebuilt from scratch on
// every run and archived as ConfDir + ".zip".
const ConfDir = "autograde"

// WriteConfiguration builds the autograder configuration tree under
// confDir for every exercise and archives it as confDir + ".zip". The tree
// is rebuilt from scratch.
func WriteConfiguration(exercises []*exercise.Exercise, params *judge.Parameters, confDir string, log *zap.Logger) error {
	if err := os.RemoveAll(confDir); err != nil {
		return err
	}
	for _, ex := range exercises {
		log.Info("creating configuration", zap.String("key", ex.Key))
		if err := writeExerciseConfiguration(ex, params, confDir); err != nil {
			return err
		}
	}
	log.Info("creating configuration archive", zap.String("zip", confDir+".zip"))
	return zipTree(confDir, confDir+".zip")
}

func writeExerciseConfiguration(ex *exercise.Exercise, params *judge.Parameters, confDir string) error {
	testsDir := filepath.Join(confDir, ex.Key)
	if err := os.MkdirAll(testsDir, 0755); err != nil {
		return err
	}

	// Stripped master: content and the student code cell only, with the
	// master's own metadata.
	cells := append(ipynb.ToRawCells(ex.Content), ex.StudentCodeCell.ToRaw())
	_, metadata, err := ipynb.LoadCells(ex.MasterPath(), true)
	if err != nil {
		return err
	}
	if err := ipynb.SaveAsNotebook(filepath.Join(confDir, ex.Key+".ipynb"), cells, metadata); err != nil {
		return err
	}

	environment, timeLimit, memoryLimit, err := params.Resolve(ex.Key)
	if err != nil {
		return err
	}
	setting, err := ex.GenerateSetting(environment, timeLimit, memoryLimit)
	if err != nil {
		return fmt.Errorf("generate setting for %s: %w", ex.Key, err)
	}
	settingJSON, err := json.MarshalIndent(setting, "", " ")
	if err != nil {
		return fmt.Errorf("encode setting for %s: %w", ex.Key, err)
	}
	if err := os.WriteFile(filepath.Join(testsDir, "setting.json"), append(settingJSON, '\n'), 0644); err != nil {
		return err
	}

	for _, tc := range ex.SystemTestCases {
		if err := os.WriteFile(filepath.Join(testsDir, tc.Name), []byte(tc.Content), 0644); err != nil {
			return err
		}
	}

	// Additional files the settings object declares, copied verbatim from
	// the exercise's source directory.
	for _, path := range judge.RequiredFiles(setting) {
		dest := filepath.Join(testsDir, path)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := copyFile(filepath.Join(ex.Dirpath, path), dest); err != nil {
			return fmt.Errorf("required file for %s: %w", ex.Key, err)
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// zipTree archives every file under root, with paths relative to root.
func zipTree(root, zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := zip.NewWriter(f)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dst, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}
