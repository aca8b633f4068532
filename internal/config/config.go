// Package config loads tool-level configuration: the optional plags.yaml
// defaults and the machine-facing deadline JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"plags/internal/ipynb"
)

// DefaultFilledForm is the filled-form output path when none is given.
const DefaultFilledForm = "form_filled_all.ipynb"

// Config holds optional workspace defaults from plags.yaml. Flags take
// precedence over everything here.
type Config struct {
	// Deadline JSON file applied when --deadline is not given.
	DeadlineFile string `yaml:"deadline_file"`
	// Judge parameter JSON file applied when --configuration is not given.
	JudgeParameterFile string `yaml:"judge_parameter_file"`
	// Output path for the filled form.
	FilledForm string `yaml:"filled_form"`
}

// Load reads plags.yaml from the working directory. A missing file yields
// the zero config.
func Load(path string) (*Config, error) {
	cfg := &Config{FilledForm: DefaultFilledForm}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.FilledForm == "" {
		cfg.FilledForm = DefaultFilledForm
	}
	return cfg, nil
}

// LoadDeadlines reads a deadline JSON file. The returned map carries
// exactly the fixed deadline keys; values absent from the file come back
// as explicit nulls.
func LoadDeadlines(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse deadlines %s: %w", path, err)
	}
	deadlines := map[string]any{}
	for _, k := range ipynb.DeadlineKeys {
		deadlines[k] = raw[k]
	}
	return deadlines, nil
}
