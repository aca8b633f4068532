package generate

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plags/internal/exercise"
	"plags/internal/ipynb"
	"plags/internal/judge"
)

func testParameters() *judge.Parameters {
	return &judge.Parameters{
		Default: map[string]any{"environment": "python3", "time_limit": 2, "memory_limit": 256},
	}
}

func writeMaster(t *testing.T, ex *exercise.Exercise) {
	t.Helper()
	cells := append(ipynb.ToRawCells(ex.Content), ex.StudentCodeCell.ToRaw())
	metadata := ipynb.MasterMetadata(ex.Key, true, ex.Version, ex.Title, nil)
	require.NoError(t, ipynb.SaveAsNotebook(ex.MasterPath(), cells, metadata))
}

func TestWriteConfiguration(t *testing.T) {
	dir := t.TempDir()
	ex := testExercise("week1-sort", dir)
	ex.SystemTestSetting = func(environment any, timeLimit, memoryLimit int, key, version, source string) (map[string]any, error) {
		setting := judge.GenerateSystemTestSetting(environment, timeLimit, memoryLimit, key, version, source)
		setting["required_files"] = []interface{}{"helpers.py"}
		return setting, nil
	}
	writeMaster(t, ex)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.py"), []byte("def helper(): pass\n"), 0644))

	confDir := filepath.Join(t.TempDir(), "autograde")
	// A stale tree must not survive the rebuild.
	require.NoError(t, os.MkdirAll(filepath.Join(confDir, "old-key"), 0755))

	require.NoError(t, WriteConfiguration([]*exercise.Exercise{ex}, testParameters(), confDir, zap.NewNop()))

	assert.NoDirExists(t, filepath.Join(confDir, "old-key"))

	// Stripped master: content plus the student code cell only.
	cells, metadata := loadNotebook(t, filepath.Join(confDir, "week1-sort.ipynb"))
	require.Len(t, cells, 2)
	assert.Equal(t, ipynb.Code, cells[1].Kind)
	assert.Contains(t, metadata, "judge_master")

	raw, err := os.ReadFile(filepath.Join(confDir, "week1-sort", "setting.json"))
	require.NoError(t, err)
	var setting map[string]any
	require.NoError(t, json.Unmarshal(raw, &setting))
	judgeParams := setting["judge"].(map[string]any)
	assert.Equal(t, float64(2), judgeParams["time_limit"])
	assert.Equal(t, float64(256), judgeParams["memory_limit"])
	ident := setting["exercise"].(map[string]any)
	assert.Equal(t, "week1-sort", ident["key"])
	assert.Equal(t, "v1", ident["version"])

	testFile, err := os.ReadFile(filepath.Join(confDir, "week1-sort", "test_a.py"))
	require.NoError(t, err)
	assert.Equal(t, "@judge_util.check\nassert True\n", string(testFile))

	helper, err := os.ReadFile(filepath.Join(confDir, "week1-sort", "helpers.py"))
	require.NoError(t, err)
	assert.Equal(t, "def helper(): pass\n", string(helper))

	zr, err := zip.OpenReader(confDir + ".zip")
	require.NoError(t, err)
	defer zr.Close()
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["week1-sort.ipynb"])
	assert.True(t, names["week1-sort/setting.json"])
	assert.True(t, names["week1-sort/test_a.py"])
	assert.True(t, names["week1-sort/helpers.py"])
}

func TestWriteConfigurationMissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	ex := testExercise("week1-sort", dir)
	ex.SystemTestSetting = func(environment any, timeLimit, memoryLimit int, key, version, source string) (map[string]any, error) {
		setting := judge.GenerateSystemTestSetting(environment, timeLimit, memoryLimit, key, version, source)
		setting["required_files"] = []interface{}{"missing.py"}
		return setting, nil
	}
	writeMaster(t, ex)

	confDir := filepath.Join(t.TempDir(), "autograde")
	err := WriteConfiguration([]*exercise.Exercise{ex}, testParameters(), confDir, zap.NewNop())
	assert.ErrorContains(t, err, "required file for week1-sort")
}
