package normalizer

import (
	"strings"

	"github.com/lac-hong-legacy/devscope/dto"
)

// repoShape pairs a detector name with an extractor. Extractors return
// ok=false when the entry does not have their shape.
type repoShape struct {
	name    string
	extract func(obj map[string]any) (dto.RepoScore, bool)
}

// repoShapes is tried in priority order: current API, legacy API, then a
// single-key {"<name>": <score>} object.
var repoShapes = []repoShape{
	{name: "repo_name", extract: extractRepoName},
	{name: "full_name", extract: extractFullName},
	{name: "key_value", extract: extractKeyValue},
}

const shapeSentinel = "sentinel"

// knownRepoKeys are never treated as a repository name by the key/value
// fallback.
var knownRepoKeys = map[string]struct{}{
	"repo_name": {}, "fullName": {}, "full_name": {}, "name": {}, "score": {}, "repo": {},
}

func extractRepoName(obj map[string]any) (dto.RepoScore, bool) {
	name, ok := stringField(obj, "repo_name")
	if !ok {
		return dto.RepoScore{}, false
	}
	return dto.RepoScore{FullName: name, Score: scoreOrZero(obj["score"])}, true
}

func extractFullName(obj map[string]any) (dto.RepoScore, bool) {
	name, ok := stringField(obj, "fullName", "full_name", "repo", "name")
	if !ok {
		return dto.RepoScore{}, false
	}
	return dto.RepoScore{FullName: name, Score: scoreOrZero(obj["score"])}, true
}

func extractKeyValue(obj map[string]any) (dto.RepoScore, bool) {
	if len(obj) != 1 {
		return dto.RepoScore{}, false
	}
	for key, value := range obj {
		if _, reserved := knownRepoKeys[key]; reserved {
			return dto.RepoScore{}, false
		}
		name := strings.TrimSpace(key)
		if name == "" {
			return dto.RepoScore{}, false
		}
		score, ok := asScore(value)
		if !ok {
			return dto.RepoScore{}, false
		}
		return dto.RepoScore{FullName: name, Score: score}, true
	}
	return dto.RepoScore{}, false
}

func scoreOrZero(v any) string {
	if s, ok := asScore(v); ok {
		return s
	}
	return dto.SentinelRepoScore
}

func sentinelRepo() dto.RepoScore {
	return dto.RepoScore{FullName: dto.SentinelRepoName, Score: dto.SentinelRepoScore}
}

// detectRepo returns the canonical entry and the name of the shape that
// produced it. It never fails: unrecognised entries become the sentinel.
func detectRepo(v any) (dto.RepoScore, string) {
	obj, ok := asObject(v)
	if !ok {
		return sentinelRepo(), shapeSentinel
	}
	for _, shape := range repoShapes {
		if repo, ok := shape.extract(obj); ok {
			return repo, shape.name
		}
	}
	return sentinelRepo(), shapeSentinel
}

func normalizeRepos(v any) []dto.RepoScore {
	entries, ok := asArray(v)
	if !ok {
		return []dto.RepoScore{}
	}
	repos := make([]dto.RepoScore, 0, len(entries))
	for _, entry := range entries {
		repo, _ := detectRepo(entry)
		repos = append(repos, repo)
	}
	return repos
}

// ValidRepos filters out sentinel entries; used for display counts.
func ValidRepos(repos []dto.RepoScore) []dto.RepoScore {
	valid := make([]dto.RepoScore, 0, len(repos))
	for _, r := range repos {
		if !r.IsSentinel() {
			valid = append(valid, r)
		}
	}
	return valid
}
