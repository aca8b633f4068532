package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plags/internal/ipynb"
)

const settingCellSource = `func Generate(environment interface{}, timeLimit, memoryLimit int, key, version, source string) map[string]interface{} {
	return GenerateSystemTestSetting(environment, timeLimit, memoryLimit, key, version, source)
}`

func marker(field string) map[string]any {
	return ipynb.Cell{Kind: ipynb.Markdown, Source: "***CONTENT_TYPE: " + field + "***"}.ToRaw()
}

func masterCells() []map[string]any {
	return []map[string]any{
		marker("CONTENT"),
		ipynb.Cell{Kind: ipynb.Markdown, Source: "# Sorting\nSort the list."}.ToRaw(),
		marker("STUDENT_CODE_CELL"),
		ipynb.Cell{Kind: ipynb.Code, Source: "pass"}.ToRaw(),
		marker("SYSTEM_TEST_CASES"),
		ipynb.Cell{Kind: ipynb.Code, Source: "# test_a.py\n@judge_util.check\nassert True"}.ToRaw(),
		marker("SYSTEM_TEST_SETTING"),
		ipynb.Cell{Kind: ipynb.Code, Source: settingCellSource}.ToRaw(),
	}
}

func writeMaster(t *testing.T, dirpath, key string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dirpath, 0755))
	path := filepath.Join(dirpath, key+".ipynb")
	metadata := ipynb.MasterMetadata(key, true, "v1", "Sorting", nil)
	require.NoError(t, ipynb.SaveAsNotebook(path, masterCells(), metadata))
	return path
}

func TestLoadSeparate(t *testing.T) {
	dir := t.TempDir()
	path := writeMaster(t, dir, "week1-sort")

	loaded, err := Load([]string{path}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, loaded.Separates, 1)
	assert.Empty(t, loaded.Bundles)

	ex := loaded.Separates[0]
	assert.Equal(t, "week1-sort", ex.Key)
	assert.Equal(t, dir, ex.Dirpath)
	assert.Equal(t, "v1", ex.Version)
	assert.Equal(t, "Sorting", ex.Title)
	require.Len(t, ex.SystemTestCases, 1)
	assert.Equal(t, "test_a.py", ex.SystemTestCases[0].Name)

	setting, err := ex.GenerateSetting("python3", 2, 256)
	require.NoError(t, err)
	ident := setting["exercise"].(map[string]interface{})
	assert.Equal(t, "week1-sort", ident["key"])
	assert.Equal(t, "v1", ident["version"])
}

func TestLoadBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "week1")
	writeMaster(t, dir, "week1-a")
	writeMaster(t, dir, "week1_b")
	// Not a master of this bundle: name does not start with "week1" plus a
	// separator.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.ipynb"), []byte("not parsed"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	loaded, err := Load([]string{dir}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, loaded.Separates)
	require.Len(t, loaded.Bundles[dir], 2)
	assert.Equal(t, "week1-a", loaded.Bundles[dir][0].Key)
	assert.Equal(t, "week1_b", loaded.Bundles[dir][1].Key)
}

func TestLoadAllOrder(t *testing.T) {
	root := t.TempDir()
	bundleDir := filepath.Join(root, "week1")
	writeMaster(t, bundleDir, "week1-a")
	separate := writeMaster(t, root, "extra")

	loaded, err := Load([]string{separate, bundleDir}, zap.NewNop())
	require.NoError(t, err)
	all := loaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "week1-a", all[0].Key)
	assert.Equal(t, "extra", all[1].Key)
}

func TestLoadSkipsNonNotebook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	loaded, err := Load([]string{path}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, loaded.All())
}

func TestLoadKeyConflict(t *testing.T) {
	root := t.TempDir()
	a := writeMaster(t, filepath.Join(root, "a"), "week1-sort")
	b := writeMaster(t, filepath.Join(root, "b"), "week1-sort")

	_, err := Load([]string{a, b}, zap.NewNop())
	assert.ErrorContains(t, err, "conflicts")
}

func TestLoadExerciseInvalidMaster(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadExercise(dir, "absent", zap.NewNop())
		assert.ErrorContains(t, err, "load master")
	})

	t.Run("no field marker", func(t *testing.T) {
		cells := []map[string]any{
			ipynb.Cell{Kind: ipynb.Markdown, Source: "# Just prose"}.ToRaw(),
		}
		require.NoError(t, ipynb.SaveAsNotebook(filepath.Join(dir, "plain.ipynb"), cells, ipynb.CommonMetadata()))
		_, err := LoadExercise(dir, "plain", zap.NewNop())
		assert.ErrorContains(t, err, "outside any field")
	})

	t.Run("missing required field", func(t *testing.T) {
		cells := []map[string]any{
			marker("CONTENT"),
			ipynb.Cell{Kind: ipynb.Markdown, Source: "# Sorting"}.ToRaw(),
		}
		require.NoError(t, ipynb.SaveAsNotebook(filepath.Join(dir, "partial.ipynb"), cells, ipynb.CommonMetadata()))
		_, err := LoadExercise(dir, "partial", zap.NewNop())
		assert.ErrorContains(t, err, "required field STUDENT_CODE_CELL is missing")
	})
}
