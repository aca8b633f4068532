// Package source discovers exercise masters from file and directory inputs
// and groups directory-resident exercises into bundles.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"plags/internal/exercise"
	"plags/internal/ipynb"
	"plags/internal/judge"
	"plags/internal/schema"
)

// Loaded is the result of source discovery: standalone exercises and
// directory-scoped bundles.
type Loaded struct {
	Separates []*exercise.Exercise
	Bundles   map[string][]*exercise.Exercise
}

// All returns every loaded exercise, bundles first in sorted-directory
// order, then separates. Processing order is deterministic by construction.
func (l *Loaded) All() []*exercise.Exercise {
	dirs := make([]string, 0, len(l.Bundles))
	for dir := range l.Bundles {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	var all []*exercise.Exercise
	for _, dir := range dirs {
		all = append(all, l.Bundles[dir]...)
	}
	return append(all, l.Separates...)
}

// Load discovers and loads exercises from the given source paths, sorted
// for determinism. A directory contributes every `<dirname>[-_]*.ipynb`
// master inside it as one bundle; a file contributes a standalone exercise.
// Exercise keys must be globally unique; the first conflict aborts.
func Load(paths []string, log *zap.Logger) (*Loaded, error) {
	loaded := &Loaded{Bundles: map[string][]*exercise.Exercise{}}
	existing := map[string]string{}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			if err := loadBundle(path, loaded, existing, log); err != nil {
				return nil, err
			}
			continue
		}
		if !strings.HasSuffix(path, ".ipynb") {
			log.Info("skip non-notebook source", zap.String("path", path))
			continue
		}
		dirpath, filename := filepath.Split(path)
		dirpath = filepath.Clean(dirpath)
		key := strings.TrimSuffix(filename, ".ipynb")
		if prev, ok := existing[key]; ok {
			return nil, fmt.Errorf("exercise key conflicts between %s and %s", path, prev)
		}
		existing[key] = path
		ex, err := LoadExercise(dirpath, key, log)
		if err != nil {
			return nil, err
		}
		loaded.Separates = append(loaded.Separates, ex)
		log.Info("loaded master", zap.String("path", path))
	}
	return loaded, nil
}

func loadBundle(dirpath string, loaded *Loaded, existing map[string]string, log *zap.Logger) error {
	dirname := filepath.Base(dirpath)
	masterRe := regexp.MustCompile(`^(` + regexp.QuoteMeta(dirname) + `[-_].*)\.ipynb$`)
	log.Info("loading bundle directory", zap.String("dir", dirpath))

	entries, err := os.ReadDir(dirpath)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		m := masterRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		key := m[1]
		path := filepath.Join(dirpath, name)
		if prev, ok := existing[key]; ok {
			return fmt.Errorf("exercise key conflicts between %s and %s", path, prev)
		}
		existing[key] = path
		ex, err := LoadExercise(dirpath, key, log)
		if err != nil {
			return err
		}
		loaded.Bundles[dirpath] = append(loaded.Bundles[dirpath], ex)
		log.Info("loaded master", zap.String("path", path))
	}
	return nil
}

// LoadExercise loads one master document into a validated exercise record.
func LoadExercise(dirpath, key string, log *zap.Logger) (*exercise.Exercise, error) {
	path := filepath.Join(dirpath, key+".ipynb")
	raw, metadata, err := ipynb.LoadCells(path, false)
	if err != nil {
		return nil, fmt.Errorf("load master %s: %w", path, err)
	}
	fields, err := schema.Segment(ipynb.NormalizedCells(raw), log)
	if err != nil {
		return nil, fmt.Errorf("master %s: %w", path, err)
	}
	ex, err := exercise.New(key, dirpath, ipynb.MasterVersion(metadata), fields, judge.LoadSettingGenerator)
	if err != nil {
		return nil, fmt.Errorf("master %s: %w", path, err)
	}
	return ex, nil
}
