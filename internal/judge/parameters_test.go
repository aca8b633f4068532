package judge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "judge_env.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadParameters(t *testing.T) {
	path := writeParams(t, `{
		"default": {"environment": "python3", "time_limit": 2, "memory_limit": 256},
		"override": {"week1-sort": {"time_limit": 10, "unrelated": true}}
	}`)
	p, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, "python3", p.Default["environment"])
	// Unknown override keys are filtered out.
	assert.Equal(t, map[string]any{"time_limit": float64(10)}, p.Override["week1-sort"])
}

func TestLoadParametersMissingDefault(t *testing.T) {
	path := writeParams(t, `{"default": {"environment": "python3"}, "override": {}}`)
	_, err := LoadParameters(path)
	assert.ErrorContains(t, err, "time_limit")
}

func TestResolve(t *testing.T) {
	path := writeParams(t, `{
		"default": {"environment": "python3", "time_limit": 2, "memory_limit": 256},
		"override": {"week1-sort": {"memory_limit": 512}}
	}`)
	p, err := LoadParameters(path)
	require.NoError(t, err)

	t.Run("override wins per key", func(t *testing.T) {
		env, timeLimit, memoryLimit, err := p.Resolve("week1-sort")
		require.NoError(t, err)
		assert.Equal(t, "python3", env)
		assert.Equal(t, 2, timeLimit)
		assert.Equal(t, 512, memoryLimit)
	})

	t.Run("fractional limit fails", func(t *testing.T) {
		path := writeParams(t, `{
			"default": {"environment": "python3", "time_limit": 2.5, "memory_limit": 256},
			"override": {}
		}`)
		p, err := LoadParameters(path)
		require.NoError(t, err)
		_, _, _, err = p.Resolve("any")
		assert.ErrorContains(t, err, "not an integer")
	})

	t.Run("unknown key gets defaults", func(t *testing.T) {
		env, timeLimit, memoryLimit, err := p.Resolve("other")
		require.NoError(t, err)
		assert.Equal(t, "python3", env)
		assert.Equal(t, 2, timeLimit)
		assert.Equal(t, 256, memoryLimit)
	})
}

func TestRequiredFiles(t *testing.T) {
	setting := GenerateSystemTestSetting("python3", 2, 256, "k", "v", "pass")
	assert.Empty(t, RequiredFiles(setting))

	setting["required_files"] = []interface{}{"helpers.py", "data/input.txt"}
	assert.Equal(t, []string{"helpers.py", "data/input.txt"}, RequiredFiles(setting))
}

func TestGenerateSystemTestSetting(t *testing.T) {
	setting := GenerateSystemTestSetting("python3", 2, 256, "week1-sort", "v1", "pass")
	exercise := setting["exercise"].(map[string]interface{})
	assert.Equal(t, "week1-sort", exercise["key"])
	assert.Equal(t, "v1", exercise["version"])
	judgeParams := setting["judge"].(map[string]interface{})
	assert.Equal(t, 2, judgeParams["time_limit"])
	editor := setting["editor"].(map[string]interface{})
	assert.Equal(t, "pass", editor["initial_source"])
}
