package normalizer

import "github.com/lac-hong-legacy/devscope/dto"

// PartialSnapshot is the progressive view of one raw payload. Status is the
// job-level status when upstream states one explicitly, empty otherwise.
type PartialSnapshot struct {
	Status      dto.AnalysisStatus
	Contestants []dto.PartialContestant
}

// NormalizePartial builds the in-flight view of a payload. Statuses are only
// ever taken from explicit status fields, inherited downward from contestant
// to ecosystem and from job to contestant; an entity without any stated
// status is analyzing, whatever data it already carries.
func NormalizePartial(raw []byte) PartialSnapshot {
	doc := parse(raw)
	snapshot := PartialSnapshot{
		Status:      doc.status,
		Contestants: make([]dto.PartialContestant, 0, len(doc.contestants)),
	}
	for _, c := range doc.contestants {
		snapshot.Contestants = append(snapshot.Contestants, partialContestant(c, doc.status))
	}
	return snapshot
}

func partialContestant(c contestantRecord, jobStatus dto.AnalysisStatus) dto.PartialContestant {
	status := inheritStatus(c.status, jobStatus)

	analytics := make([]dto.PartialEcosystemAnalytics, 0, len(c.ecosystems))
	sum := 0
	for _, eco := range c.ecosystems {
		ecoStatus := inheritStatus(eco.status, inheritStatus(c.status, jobStatus))
		progress := progressFor(eco.progress, ecoStatus)
		sum += progress
		analytics = append(analytics, dto.PartialEcosystemAnalytics{
			Name:     eco.analytics.Name,
			Score:    eco.analytics.Score,
			Repos:    eco.analytics.Repos,
			Status:   ecoStatus,
			Progress: progress,
		})
	}

	progress := progressFor(c.progress, status)
	if c.progress == nil && status != dto.StatusCompleted && len(analytics) > 0 {
		progress = sum / len(analytics)
	}

	return dto.PartialContestant{
		Profile:          c.profile,
		AnalysisStatus:   status,
		AnalysisProgress: progress,
		EstimatedTime:    c.eta,
		Analytics:        analytics,
	}
}

func inheritStatus(own, parent dto.AnalysisStatus) dto.AnalysisStatus {
	if own != "" {
		return own
	}
	if parent != "" {
		return parent
	}
	return dto.StatusAnalyzing
}

func progressFor(explicit *int, status dto.AnalysisStatus) int {
	if explicit != nil {
		return *explicit
	}
	if status == dto.StatusCompleted {
		return 100
	}
	return 0
}
