package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-hong-legacy/devscope/dto"
)

func TestNormalize_NestedDataDropsAggregate(t *testing.T) {
	raw := []byte(`{
		"data": {"users": [{
			"actor_id": "42",
			"ecosystem_scores": [
				{"ecosystem": "ALL", "total_score": 999, "repos": []},
				{"ecosystem": "Base", "total_score": 10, "repos": [{"repo_name": "x/y", "score": 5}]}
			]
		}]},
		"github": {"users": []}
	}`)

	report := Normalize(raw)

	require.Len(t, report.Contestants, 1)
	c := report.Contestants[0]
	assert.Equal(t, "42", c.Profile.Username)
	assert.Equal(t, "42", c.Profile.Name)
	require.Len(t, c.Analytics, 1)
	assert.Equal(t, "Base", c.Analytics[0].Name)
	assert.Equal(t, 10.0, c.Analytics[0].Score)
	assert.Equal(t, []dto.RepoScore{{FullName: "x/y", Score: "5"}}, c.Analytics[0].Repos)
}

func TestNormalize_UsersAtRoot(t *testing.T) {
	raw := []byte(`{
		"id": "job-1",
		"type": "event",
		"description": "Spring hackathon",
		"users": [{"actor": "alice", "ecosystems": [{"name": "Solana", "score": "7.5", "repos": []}]}]
	}`)

	report := Normalize(raw)

	assert.Equal(t, "job-1", report.ID)
	assert.Equal(t, "event", report.Type)
	assert.Equal(t, "Spring hackathon", report.Description)
	require.Len(t, report.Contestants, 1)
	assert.Equal(t, "alice", report.Contestants[0].Profile.Username)
	require.Len(t, report.Contestants[0].Analytics, 1)
	assert.Equal(t, 7.5, report.Contestants[0].Analytics[0].Score)
}

func TestNormalize_DataAsArray(t *testing.T) {
	raw := []byte(`{"data": [{"login": "bob"}, {"login": "carol"}]}`)

	report := Normalize(raw)

	require.Len(t, report.Contestants, 2)
	assert.Equal(t, "bob", report.Contestants[0].Profile.Username)
	assert.Empty(t, report.Contestants[1].Analytics)
	assert.NotNil(t, report.Contestants[1].Analytics)
}

func TestNormalize_ProfileJoin(t *testing.T) {
	raw := []byte(`{
		"data": {"users": [
			{"actor_id": 1001, "ecosystem_scores": []},
			{"actor_id": "Dave", "ecosystem_scores": []},
			{"actor_id": "ghost", "ecosystem_scores": []}
		]},
		"github": [
			{"id": 1001, "login": "erin", "name": "Erin E", "avatar_url": "https://a/erin.png", "followers": 12},
			{"id": 2002, "login": "dave", "html_url": "https://github.com/dave"}
		]
	}`)

	report := Normalize(raw)

	require.Len(t, report.Contestants, 3)

	byID := report.Contestants[0].Profile
	assert.Equal(t, "1001", byID.ID)
	assert.Equal(t, "erin", byID.Username)
	assert.Equal(t, "Erin E", byID.Name)
	assert.Equal(t, "https://a/erin.png", byID.AvatarURL)
	assert.Equal(t, 12, byID.Followers)

	byLogin := report.Contestants[1].Profile
	assert.Equal(t, "2002", byLogin.ID)
	assert.Equal(t, "dave", byLogin.Username)
	assert.Equal(t, "https://github.com/dave", byLogin.ProfileURL)

	synthesized := report.Contestants[2].Profile
	assert.Equal(t, dto.Developer{ID: "ghost", Username: "ghost", Name: "ghost"}, synthesized)
}

func TestNormalize_ProfilesWithoutAnalysisStayContestants(t *testing.T) {
	raw := []byte(`{
		"data": {"users": [{"actor_id": "frank", "ecosystem_scores": []}]},
		"github": {"users": [{"id": 1, "login": "frank"}, {"id": 2, "login": "grace"}]}
	}`)

	report := Normalize(raw)

	require.Len(t, report.Contestants, 2)
	assert.Equal(t, "frank", report.Contestants[0].Profile.Username)
	assert.Equal(t, "grace", report.Contestants[1].Profile.Username)
}

func TestNormalize_DuplicateUsersMerge(t *testing.T) {
	raw := []byte(`{"users": [
		{"actor_id": "henry", "ecosystem_scores": [{"ecosystem": "Base", "total_score": 1}]},
		{"actor_id": "Henry", "ecosystem_scores": [{"ecosystem": "base", "total_score": 9}, {"ecosystem": "Solana", "total_score": 2}]}
	]}`)

	report := Normalize(raw)

	require.Len(t, report.Contestants, 1)
	analytics := report.Contestants[0].Analytics
	require.Len(t, analytics, 2)
	assert.Equal(t, 1.0, analytics[0].Score)
	assert.Equal(t, "Solana", analytics[1].Name)
}

func TestNormalize_RequestData(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"array", `{"request_data": ["https://github.com/a", "@b"]}`, []string{"https://github.com/a", "@b"}},
		{"urls object", `{"request_data": {"urls": ["c", "d"]}}`, []string{"c", "d"}},
		{"nested in data", `{"data": {"request_data": ["e"]}}`, []string{"e"}},
		{"absent", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize([]byte(tt.raw)).RequestData)
		})
	}
}

func TestNormalize_Totality(t *testing.T) {
	inputs := map[string]string{
		"empty object":      `{}`,
		"null users":        `{"users": null}`,
		"null data":         `{"data": null}`,
		"scalar payload":    `42`,
		"array payload":     `[1, 2, 3]`,
		"not json":          `{{{`,
		"empty":             ``,
		"users not array":   `{"data": {"users": "nope"}}`,
		"user not object":   `{"users": [1, "two", null]}`,
		"ecosystems scalar": `{"users": [{"actor_id": "x", "ecosystem_scores": 3}]}`,
		"repos scalar":      `{"users": [{"actor_id": "x", "ecosystem_scores": [{"ecosystem": "Base", "repos": "nope"}]}]}`,
		"no identifiers":    `{"users": [{"ecosystem_scores": [{"ecosystem": "Base"}]}, {"ecosystem_scores": [{"ecosystem": "Solana"}]}]}`,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			var report dto.EventReport
			require.NotPanics(t, func() { report = Normalize([]byte(raw)) })
			assert.NotNil(t, report.Contestants)
			for _, c := range report.Contestants {
				assert.NotEmpty(t, c.Profile.Username)
				assert.NotNil(t, c.Analytics)
				for _, eco := range c.Analytics {
					assert.NotNil(t, eco.Repos)
				}
			}
		})
	}
}

func TestNormalize_RecordsWithoutIdentifierAreKept(t *testing.T) {
	raw := `{"users": [
		{"ecosystem_scores": [{"ecosystem": "Base", "total_score": 1}]},
		{"ecosystem_scores": [{"ecosystem": "Solana", "total_score": 2}]},
		{"actor_id": "octocat", "ecosystem_scores": [{"ecosystem": "Base", "total_score": 3}]},
		{"actor_id": "OctoCat", "ecosystem_scores": [{"ecosystem": "Solana", "total_score": 4}]}
	]}`

	report := Normalize([]byte(raw))
	require.Len(t, report.Contestants, 3)

	first, second, named := report.Contestants[0], report.Contestants[1], report.Contestants[2]
	assert.Equal(t, "unknown-1", first.Profile.Username)
	assert.Equal(t, "unknown-2", second.Profile.Username)
	require.Len(t, first.Analytics, 1)
	require.Len(t, second.Analytics, 1)
	assert.Equal(t, "Base", first.Analytics[0].Name)
	assert.Equal(t, "Solana", second.Analytics[0].Name)

	// identified records still collapse case-insensitively
	assert.Equal(t, "octocat", named.Profile.Username)
	assert.Len(t, named.Analytics, 2)

	// stable across repeated normalization of the same payload
	assert.Equal(t, report, Normalize([]byte(raw)))
}

func TestNormalize_AggregateNeverSurvives(t *testing.T) {
	inputs := []string{
		`{"users": [{"actor_id": "a", "ecosystem_scores": [{"ecosystem": "ALL"}, {"ecosystem": "Base"}]}]}`,
		`{"users": [{"actor_id": "a", "ecosystems": [{"name": " all "}]}]}`,
		`{"users": [{"actor_id": "a", "ecosystems": {"ALL": 5, "Base": 3}}]}`,
		`{"contestants": [{"profile": {"id": "1", "username": "a"}, "analytics": [{"name": "All", "score": 1}]}]}`,
	}

	for _, raw := range inputs {
		for _, c := range Normalize([]byte(raw)).Contestants {
			for _, eco := range c.Analytics {
				assert.NotEqual(t, "ALL", eco.Name)
				assert.NotEqual(t, "all", eco.Name)
			}
		}
	}
}

func TestNormalize_CanonicalContestants(t *testing.T) {
	raw := []byte(`{"contestants": [{
		"profile": {"id": "7", "username": "ivy", "name": "Ivy"},
		"analytics": [{"name": "Ethereum", "score": 4, "repos": [{"fullName": "ivy/dapp", "score": "3"}]}]
	}]}`)

	report := Normalize(raw)

	require.Len(t, report.Contestants, 1)
	assert.Equal(t, "Ivy", report.Contestants[0].Profile.Name)
	assert.Equal(t, []dto.RepoScore{{FullName: "ivy/dapp", Score: "3"}}, report.Contestants[0].Analytics[0].Repos)
}

func TestDetectRepo(t *testing.T) {
	tests := []struct {
		name  string
		entry any
		want  dto.RepoScore
		shape string
	}{
		{"new api", map[string]any{"repo_name": "a/b", "score": 5.0}, dto.RepoScore{FullName: "a/b", Score: "5"}, "repo_name"},
		{"new api wins over legacy", map[string]any{"repo_name": "a/b", "fullName": "c/d", "score": "2"}, dto.RepoScore{FullName: "a/b", Score: "2"}, "repo_name"},
		{"legacy camel", map[string]any{"fullName": "c/d", "score": "1.50"}, dto.RepoScore{FullName: "c/d", Score: "1.5"}, "full_name"},
		{"legacy snake", map[string]any{"full_name": "e/f", "score": 3.25}, dto.RepoScore{FullName: "e/f", Score: "3.25"}, "full_name"},
		{"missing score", map[string]any{"repo_name": "g/h"}, dto.RepoScore{FullName: "g/h", Score: "0"}, "repo_name"},
		{"wrapped score", map[string]any{"repo_name": "g/h", "score": map[string]any{"value": 8.0}}, dto.RepoScore{FullName: "g/h", Score: "8"}, "repo_name"},
		{"key value", map[string]any{"i/j": 6.0}, dto.RepoScore{FullName: "i/j", Score: "6"}, "key_value"},
		{"key value wrapped", map[string]any{"k/l": map[string]any{"score": "4"}}, dto.RepoScore{FullName: "k/l", Score: "4"}, "key_value"},
		{"key value non numeric", map[string]any{"m/n": "high"}, sentinelRepo(), shapeSentinel},
		{"reserved key only", map[string]any{"score": 3.0}, sentinelRepo(), shapeSentinel},
		{"empty object", map[string]any{}, sentinelRepo(), shapeSentinel},
		{"blank name", map[string]any{"repo_name": "  ", "score": 1.0}, sentinelRepo(), shapeSentinel},
		{"scalar", "a/b", sentinelRepo(), shapeSentinel},
		{"null", nil, sentinelRepo(), shapeSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, shape := detectRepo(tt.entry)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.shape, shape)
		})
	}
}

func TestNormalize_SentinelsKeepCounts(t *testing.T) {
	raw := []byte(`{"users": [{"actor_id": "a", "ecosystem_scores": [{"ecosystem": "Base", "total_score": 1,
		"repos": [{"repo_name": "a/b", "score": 1}, {}, "junk", {"x/y": 2}]}]}]}`)

	eco := Normalize(raw).Contestants[0].Analytics[0]
	repos := eco.Repos

	require.Len(t, repos, 4)
	assert.True(t, repos[1].IsSentinel())
	assert.True(t, repos[2].IsSentinel())
	assert.Len(t, ValidRepos(repos), 2)
	assert.Equal(t, 2, eco.ValidRepoCount)
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := []byte(`{"users": [{"actor_id": "a", "ecosystems": {"Solana": 2, "Base": {"total_score": 3}, "Aptos": 1}}]}`)

	first := Normalize(raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Normalize(raw))
	}
	names := []string{}
	for _, eco := range first.Contestants[0].Analytics {
		names = append(names, eco.Name)
	}
	assert.Equal(t, []string{"Aptos", "Base", "Solana"}, names)
}

func TestParseGithubUsers(t *testing.T) {
	users := ParseGithubUsers([]any{
		map[string]any{"id": 5.0, "login": "jack"},
		map[string]any{"login": "kate"},
		map[string]any{"bio": "no identity"},
		"skip",
	})

	require.Len(t, users, 2)
	assert.Equal(t, dto.Developer{ID: "5", Username: "jack", Name: "jack"}, users[0])
	assert.Equal(t, "kate", users[1].ID)
	assert.Empty(t, ParseGithubUsers(nil))
}
