package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/tracker"
)

func partial(login string, st dto.AnalysisStatus, progress int, ecos ...dto.PartialEcosystemAnalytics) dto.PartialContestant {
	return dto.PartialContestant{
		Profile:          dto.Developer{ID: login, Username: login, Name: login},
		AnalysisStatus:   st,
		AnalysisProgress: progress,
		Analytics:        ecos,
	}
}

func eco(name string, st dto.AnalysisStatus, progress int) dto.PartialEcosystemAnalytics {
	return dto.PartialEcosystemAnalytics{Name: name, Status: st, Progress: progress, Repos: []dto.RepoScore{}}
}

func TestMerge_IntoSeed(t *testing.T) {
	prev := tracker.Seed(users("ann"), ecosystems, 10)
	incoming := []dto.PartialContestant{
		partial("ann", dto.StatusAnalyzing, 45, eco("Base", dto.StatusCompleted, 100), eco("Solana", dto.StatusAnalyzing, 30)),
	}

	merged := tracker.Merge(prev, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, "id-ann", merged[0].Profile.ID, "seeded profile is richer than a synthesized one")
	assert.Equal(t, 45, merged[0].AnalysisProgress)
	require.Len(t, merged[0].Analytics, 3)
	assert.Equal(t, dto.StatusPending, merged[0].Analytics[0].Status)
	assert.Equal(t, dto.StatusCompleted, merged[0].Analytics[1].Status)
	assert.Equal(t, dto.StatusAnalyzing, merged[0].Analytics[2].Status)
	assert.Equal(t, dto.StatusPending, prev[0].Analytics[1].Status, "input must not change")
}

func TestMerge_StaleSnapshotDoesNotRegress(t *testing.T) {
	prev := []dto.PartialContestant{partial("ann", dto.StatusAnalyzing, 60, eco("Base", dto.StatusCompleted, 100), eco("Solana", dto.StatusAnalyzing, 50))}
	stale := []dto.PartialContestant{partial("ann", dto.StatusPending, 10, eco("Base", dto.StatusAnalyzing, 10))}

	merged := tracker.Merge(prev, stale)

	assert.Equal(t, dto.StatusAnalyzing, merged[0].AnalysisStatus)
	assert.Equal(t, dto.StatusCompleted, merged[0].Analytics[0].Status)
	assert.Equal(t, 100, merged[0].Analytics[0].Progress)
}

func TestMerge_CompletedContestantDropsPlaceholders(t *testing.T) {
	prev := tracker.Seed(users("ann"), ecosystems, 10)
	incoming := []dto.PartialContestant{
		partial("ann", dto.StatusCompleted, 100, eco("Base", dto.StatusCompleted, 100)),
	}

	merged := tracker.Merge(prev, incoming)

	require.Len(t, merged[0].Analytics, 1)
	assert.Equal(t, dto.StatusCompleted, merged[0].AnalysisStatus)
	assert.True(t, tracker.IsComplete(merged))
}

func TestMerge_AppendsNewContestants(t *testing.T) {
	prev := tracker.Seed(users("ann"), ecosystems, 10)
	incoming := []dto.PartialContestant{partial("zed", dto.StatusAnalyzing, 5, eco("Base", dto.StatusAnalyzing, 5))}

	merged := tracker.Merge(prev, incoming)

	require.Len(t, merged, 2)
	assert.Equal(t, "zed", merged[1].Profile.Username)
	assert.Equal(t, dto.StatusAnalyzing, merged[1].AnalysisStatus)
}

func TestMerge_Idempotent(t *testing.T) {
	incoming := []dto.PartialContestant{
		partial("ann", dto.StatusAnalyzing, 45, eco("Base", dto.StatusCompleted, 100), eco("Solana", dto.StatusAnalyzing, 30)),
	}

	once := tracker.Merge(nil, incoming)
	twice := tracker.Merge(once, incoming)

	assert.Equal(t, once, twice)
}

func TestMerge_CompletesWhenAllEcosystemsDo(t *testing.T) {
	prev := []dto.PartialContestant{partial("ann", dto.StatusAnalyzing, 60, eco("Base", dto.StatusCompleted, 100), eco("Solana", dto.StatusAnalyzing, 50))}
	incoming := []dto.PartialContestant{partial("ann", dto.StatusAnalyzing, 90, eco("Solana", dto.StatusCompleted, 100))}

	merged := tracker.Merge(prev, incoming)

	assert.Equal(t, dto.StatusCompleted, merged[0].AnalysisStatus)
	assert.Equal(t, 100, merged[0].AnalysisProgress)
	assert.True(t, tracker.IsComplete(merged))
}
