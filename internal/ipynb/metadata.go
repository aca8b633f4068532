package ipynb

// DeadlineKeys is the fixed set of deadline timestamps carried in master
// metadata, in canonical order.
var DeadlineKeys = []string{"begins_at", "opens_at", "checks_at", "closes_at", "ends_at"}

// CommonMetadata returns the kernelspec boilerplate shared by every
// generated notebook.
func CommonMetadata() map[string]any {
	return map[string]any{
		"kernelspec": map[string]any{
			"display_name": "Python 3",
			"language":     "python",
			"name":         "python3",
		},
		"language_info": map[string]any{
			"name": "",
		},
	}
}

// SubmissionMetadata returns metadata for a submittable form covering the
// given exercises.
func SubmissionMetadata(keyToVersion map[string]string, extraction bool) map[string]any {
	exercises := map[string]any{}
	for k, v := range keyToVersion {
		exercises[k] = v
	}
	m := CommonMetadata()
	m["judge_submission"] = map[string]any{
		"exercises":  exercises,
		"extraction": extraction,
	}
	return m
}

// MasterMetadata returns metadata for a (re)published master document.
func MasterMetadata(exerciseKey string, autograde bool, version, title string, deadlines map[string]any) map[string]any {
	if title == "" {
		title = exerciseKey
	}
	normalized := map[string]any{}
	for _, k := range DeadlineKeys {
		normalized[k] = deadlines[k]
	}
	m := CommonMetadata()
	m["judge_master"] = map[string]any{
		"autograde":    autograde,
		"deadlines":    normalized,
		"exercise_key": exerciseKey,
		"title":        title,
		"version":      version,
	}
	return m
}

// MasterVersion extracts the version from master metadata, or "" if absent.
func MasterVersion(metadata map[string]any) string {
	if master, ok := metadata["judge_master"].(map[string]any); ok {
		if v, ok := master["version"].(string); ok {
			return v
		}
	}
	return ""
}

// MasterDeadlines extracts the deadline map from master metadata. Missing
// keys come back as explicit nulls.
func MasterDeadlines(metadata map[string]any) map[string]any {
	var deadlines map[string]any
	if master, ok := metadata["judge_master"].(map[string]any); ok {
		deadlines, _ = master["deadlines"].(map[string]any)
	}
	normalized := map[string]any{}
	for _, k := range DeadlineKeys {
		normalized[k] = deadlines[k]
	}
	return normalized
}
