package judge

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"plags/internal/exercise"
	"plags/internal/ipynb"
)

// Setting-generator cells are evaluated in an isolated yaegi interpreter.
// The cell must define
//
//	func Generate(environment interface{}, timeLimit, memoryLimit int,
//	              key, version, source string) map[string]interface{}
//
// in terms of the single injected binding, GenerateSystemTestSetting.
// Only a small stdlib whitelist may be imported; in particular no
// filesystem, network or process access.
var allowedImports = map[string]bool{
	"fmt":           true,
	"strings":       true,
	"strconv":       true,
	"sort":          true,
	"math":          true,
	"regexp":        true,
	"encoding/json": true,
}

// factoryImport makes GenerateSystemTestSetting visible inside the cell.
const factoryImport = `judgelib "plags/judge"`

// generateFunc is the required shape of the cell's Generate function.
type generateFunc = func(interface{}, int, int, string, string, string) map[string]interface{}

// LoadSettingGenerator evaluates a SYSTEM_TEST_SETTING cell and returns the
// setting generator it defines.
func LoadSettingGenerator(cell ipynb.Cell) (exercise.SettingGenerator, error) {
	src, err := wrapCell(cell.Source)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	err = i.Use(interp.Exports{
		"plags/judge/judge": {
			"GenerateSystemTestSetting": reflect.ValueOf(GenerateSystemTestSetting),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("inject setting factory: %w", err)
	}

	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("evaluate setting cell: %w", err)
	}
	v, err := i.Eval("main.Generate")
	if err != nil {
		return nil, fmt.Errorf("setting cell defines no Generate function: %w", err)
	}
	generate, ok := v.Interface().(generateFunc)
	if !ok {
		return nil, fmt.Errorf("Generate has wrong signature %T", v.Interface())
	}

	return func(environment any, timeLimit, memoryLimit int, key, version, source string) (setting map[string]any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("setting generator panicked: %v", r)
			}
		}()
		setting = generate(environment, timeLimit, memoryLimit, key, version, source)
		if setting == nil {
			return nil, fmt.Errorf("setting generator returned nil")
		}
		return setting, nil
	}, nil
}

// wrapCell builds the evaluated source: a main package whose import block
// combines the injected factory with the cell's own (whitelisted) imports,
// followed by the cell body with its import clauses stripped.
func wrapCell(source string) (string, error) {
	imports, body, err := splitImports(source)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("package main\n\nimport (\n\t" + factoryImport + "\n")
	for _, pkg := range imports {
		b.WriteString("\t\"" + pkg + "\"\n")
	}
	b.WriteString(")\n\nvar GenerateSystemTestSetting = judgelib.GenerateSystemTestSetting\n\n")
	b.WriteString(body)
	return b.String(), nil
}

// splitImports separates import clauses from the rest of the cell source
// and rejects imports outside the whitelist. A package clause in the cell
// is also rejected; the wrapper owns the package.
func splitImports(source string) ([]string, string, error) {
	var imports []string
	var body []string
	inBlock := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "package "):
			return nil, "", fmt.Errorf("setting cell must not declare a package")
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && strings.HasPrefix(trimmed, ")"):
			inBlock = false
		case inBlock:
			if pkg := strings.Trim(trimmed, `"`); pkg != "" {
				imports = append(imports, pkg)
			}
		case strings.HasPrefix(trimmed, "import "):
			imports = append(imports, strings.Trim(strings.TrimPrefix(trimmed, "import "), `"`))
		default:
			body = append(body, line)
		}
	}
	var forbidden []string
	for _, pkg := range imports {
		if !allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return nil, "", fmt.Errorf("forbidden imports in setting cell: %v", forbidden)
	}
	return imports, strings.Join(body, "\n"), nil
}
