// Package judge carries the judge-facing collaborators: process-wide
// execution parameter defaults with per-exercise overrides, the settings
// factory exposed to setting-generator cells, and the sandboxed evaluation
// of those cells.
package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// paramKeys is the fixed set of judge environment parameters.
var paramKeys = []string{"environment", "time_limit", "memory_limit"}

// Parameters holds process-wide judge parameter defaults and per-exercise
// partial overrides. Read-only once loaded.
type Parameters struct {
	Default  map[string]any
	Override map[string]map[string]any
}

// LoadParameters reads a judge parameter JSON file: a "default" object with
// environment/time_limit/memory_limit, and an "override" object mapping
// exercise key to partial overrides of the same keys.
func LoadParameters(path string) (*Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Default  map[string]any            `json:"default"`
		Override map[string]map[string]any `json:"override"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse judge parameters %s: %w", path, err)
	}

	p := &Parameters{
		Default:  map[string]any{},
		Override: map[string]map[string]any{},
	}
	for _, k := range paramKeys {
		v, ok := file.Default[k]
		if !ok {
			return nil, fmt.Errorf("judge parameters %s: default lacks %q", path, k)
		}
		p.Default[k] = v
	}
	for key, d := range file.Override {
		filtered := map[string]any{}
		for _, k := range paramKeys {
			if v, ok := d[k]; ok {
				filtered[k] = v
			}
		}
		p.Override[key] = filtered
	}
	return p, nil
}

// Resolve overlays the per-exercise override onto the defaults and returns
// the effective parameters for one exercise key.
func (p *Parameters) Resolve(key string) (environment any, timeLimit, memoryLimit int, err error) {
	resolved := map[string]any{}
	for _, k := range paramKeys {
		resolved[k] = p.Default[k]
		if v, ok := p.Override[key][k]; ok {
			resolved[k] = v
		}
	}
	timeLimit, err = asInt(resolved["time_limit"])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("judge parameter time_limit for %s: %w", key, err)
	}
	memoryLimit, err = asInt(resolved["memory_limit"])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("judge parameter memory_limit for %s: %w", key, err)
	}
	return resolved["environment"], timeLimit, memoryLimit, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
