package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-hong-legacy/devscope/dto"
)

func TestNormalizePartial_ExplicitStatuses(t *testing.T) {
	raw := []byte(`{"data": {"users": [{
		"actor_id": "a",
		"status": "analyzing",
		"progress": 40,
		"estimated_time": 90,
		"ecosystem_scores": [
			{"ecosystem": "Base", "total_score": 3, "status": "completed"},
			{"ecosystem": "Solana", "progress": 20},
			{"ecosystem": "ALL", "status": "completed"}
		]
	}]}}`)

	snap := NormalizePartial(raw)

	assert.Equal(t, dto.AnalysisStatus(""), snap.Status)
	require.Len(t, snap.Contestants, 1)
	c := snap.Contestants[0]
	assert.Equal(t, dto.StatusAnalyzing, c.AnalysisStatus)
	assert.Equal(t, 40, c.AnalysisProgress)
	assert.Equal(t, 90, c.EstimatedTime)
	require.Len(t, c.Analytics, 2)
	assert.Equal(t, dto.StatusCompleted, c.Analytics[0].Status)
	assert.Equal(t, 100, c.Analytics[0].Progress)
	assert.Equal(t, dto.StatusAnalyzing, c.Analytics[1].Status)
	assert.Equal(t, 20, c.Analytics[1].Progress)
}

func TestNormalizePartial_DataPresenceDoesNotImplyCompletion(t *testing.T) {
	raw := []byte(`{"users": [{"actor_id": "a", "ecosystem_scores": [
		{"ecosystem": "Base", "total_score": 10, "repos": [{"repo_name": "x/y", "score": 5}]}
	]}]}`)

	c := NormalizePartial(raw).Contestants[0]

	assert.Equal(t, dto.StatusAnalyzing, c.AnalysisStatus)
	assert.Equal(t, dto.StatusAnalyzing, c.Analytics[0].Status)
	assert.Equal(t, 0, c.Analytics[0].Progress)
}

func TestNormalizePartial_JobStatusInherited(t *testing.T) {
	raw := []byte(`{"status": "done", "users": [{"actor_id": "a", "ecosystem_scores": [
		{"ecosystem": "Base"}, {"ecosystem": "Solana", "status": "failed", "progress": 60}
	]}]}`)

	snap := NormalizePartial(raw)

	assert.Equal(t, dto.StatusCompleted, snap.Status)
	c := snap.Contestants[0]
	assert.Equal(t, dto.StatusCompleted, c.AnalysisStatus)
	assert.Equal(t, 100, c.AnalysisProgress)
	assert.Equal(t, dto.StatusCompleted, c.Analytics[0].Status)
	assert.Equal(t, dto.StatusFailed, c.Analytics[1].Status)
	assert.Equal(t, 60, c.Analytics[1].Progress)
}

func TestNormalizePartial_ProgressFromEcosystems(t *testing.T) {
	raw := []byte(`{"users": [{"actor_id": "a", "ecosystem_scores": [
		{"ecosystem": "Base", "progress": 150},
		{"ecosystem": "Solana", "progress": -5}
	]}]}`)

	c := NormalizePartial(raw).Contestants[0]

	assert.Equal(t, 100, c.Analytics[0].Progress)
	assert.Equal(t, 0, c.Analytics[1].Progress)
	assert.Equal(t, 50, c.AnalysisProgress)
}

func TestNormalizePartial_Malformed(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `{"users": null}`} {
		snap := NormalizePartial([]byte(raw))
		assert.NotNil(t, snap.Contestants)
		assert.Empty(t, snap.Contestants)
	}
}
