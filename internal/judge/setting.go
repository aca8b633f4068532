package judge

// GenerateSystemTestSetting is the settings factory injected into
// setting-generator cells. It is the only external binding a cell can see.
func GenerateSystemTestSetting(environment interface{}, timeLimit, memoryLimit int, key, version, source string) map[string]interface{} {
	return map[string]interface{}{
		"schema_version": "v2.0",
		"exercise": map[string]interface{}{
			"key":     key,
			"version": version,
		},
		"judge": map[string]interface{}{
			"environment":  environment,
			"time_limit":   timeLimit,
			"memory_limit": memoryLimit,
		},
		"editor": map[string]interface{}{
			"initial_source": source,
		},
		"required_files": []interface{}{},
	}
}

// RequiredFiles lists the additional files a resolved settings object
// declares, relative to the exercise's source directory.
func RequiredFiles(setting map[string]interface{}) []string {
	declared, _ := setting["required_files"].([]interface{})
	var paths []string
	for _, v := range declared {
		if s, ok := v.(string); ok {
			paths = append(paths, s)
		}
	}
	return paths
}
