// Package tracker maintains the progressive per-contestant, per-ecosystem
// view of an analysis job. All operations return new lists; inputs are
// never modified.
package tracker

import (
	"strings"

	"github.com/lac-hong-legacy/devscope/dto"
)

// ContestantUpdate carries one contestant-level progress report. Nil fields
// leave the current value untouched.
type ContestantUpdate struct {
	Progress      int
	Status        *dto.AnalysisStatus
	EstimatedTime *int
}

// EcosystemUpdate carries one ecosystem-level progress report.
type EcosystemUpdate struct {
	Progress int
	Status   *dto.AnalysisStatus
	Score    *float64
	Repos    []dto.RepoScore
}

// Seed initialises every user as analyzing with seedProgress and a pending
// entry per ecosystem, so there is something to render before any real
// analysis data exists.
func Seed(users []dto.Developer, ecosystems []string, seedProgress int) []dto.PartialContestant {
	list := make([]dto.PartialContestant, 0, len(users))
	for _, u := range users {
		analytics := make([]dto.PartialEcosystemAnalytics, 0, len(ecosystems))
		for _, name := range ecosystems {
			if isAggregate(name) || indexOfEcosystem(analytics, name) >= 0 {
				continue
			}
			analytics = append(analytics, dto.PartialEcosystemAnalytics{
				Name:   strings.TrimSpace(name),
				Repos:  []dto.RepoScore{},
				Status: dto.StatusPending,
			})
		}
		list = append(list, dto.PartialContestant{
			Profile:          u,
			AnalysisStatus:   dto.StatusAnalyzing,
			AnalysisProgress: clamp(seedProgress),
			Analytics:        analytics,
		})
	}
	return list
}

// ApplyContestantProgress returns a copy of list with the contestant named
// by id updated. A contestant only becomes completed once all of its
// ecosystems are; a request to complete it earlier is ignored.
func ApplyContestantProgress(list []dto.PartialContestant, id string, update ContestantUpdate) []dto.PartialContestant {
	out := clone(list)
	i := indexOfContestant(out, id)
	if i < 0 {
		return out
	}
	c := out[i]
	if update.Status != nil {
		c.AnalysisStatus = transition(c.AnalysisStatus, *update.Status, c.Analytics)
	}
	if !c.AnalysisStatus.IsTerminal() {
		c.AnalysisProgress = clamp(update.Progress)
	}
	if update.EstimatedTime != nil {
		c.EstimatedTime = *update.EstimatedTime
	}
	out[i] = settle(c)
	return out
}

// ApplyEcosystemProgress returns a copy of list with one ecosystem of one
// contestant updated. Ecosystems not yet listed are appended unless the
// contestant has already reached a terminal state.
func ApplyEcosystemProgress(list []dto.PartialContestant, id, ecosystem string, update EcosystemUpdate) []dto.PartialContestant {
	out := clone(list)
	i := indexOfContestant(out, id)
	if i < 0 || isAggregate(ecosystem) {
		return out
	}
	c := out[i]
	c.Analytics = cloneAnalytics(c.Analytics)

	j := indexOfEcosystem(c.Analytics, ecosystem)
	if j < 0 {
		if c.AnalysisStatus.IsTerminal() {
			return out
		}
		c.Analytics = append(c.Analytics, dto.PartialEcosystemAnalytics{
			Name:   strings.TrimSpace(ecosystem),
			Repos:  []dto.RepoScore{},
			Status: dto.StatusPending,
		})
		j = len(c.Analytics) - 1
	}
	c.Analytics[j] = applyEcosystem(c.Analytics[j], update)
	if c.AnalysisStatus == dto.StatusPending && c.Analytics[j].Status != dto.StatusPending {
		c.AnalysisStatus = dto.StatusAnalyzing
	}
	out[i] = settle(c)
	return out
}

func applyEcosystem(eco dto.PartialEcosystemAnalytics, update EcosystemUpdate) dto.PartialEcosystemAnalytics {
	if update.Status != nil && eco.Status.CanTransition(*update.Status) {
		eco.Status = *update.Status
	}
	switch {
	case eco.Status == dto.StatusCompleted:
		eco.Progress = 100
	case !eco.Status.IsTerminal():
		eco.Progress = clamp(update.Progress)
	}
	if update.Score != nil {
		eco.Score = *update.Score
	}
	if update.Repos != nil {
		eco.Repos = append(make([]dto.RepoScore, 0, len(update.Repos)), update.Repos...)
	}
	return eco
}

// transition applies the state machine to a contestant status.
func transition(from, to dto.AnalysisStatus, analytics []dto.PartialEcosystemAnalytics) dto.AnalysisStatus {
	if !from.CanTransition(to) {
		return from
	}
	if to == dto.StatusCompleted && !allEcosystems(analytics, dto.StatusCompleted) {
		if from == dto.StatusPending {
			return dto.StatusAnalyzing
		}
		return from
	}
	return to
}

// settle promotes a contestant to completed once every ecosystem is.
func settle(c dto.PartialContestant) dto.PartialContestant {
	if !c.AnalysisStatus.IsTerminal() && len(c.Analytics) > 0 && allEcosystems(c.Analytics, dto.StatusCompleted) {
		c.AnalysisStatus = dto.StatusCompleted
	}
	if c.AnalysisStatus == dto.StatusCompleted {
		c.AnalysisProgress = 100
		c.EstimatedTime = 0
	}
	return c
}

// IsComplete is true iff the list is non-empty, every contestant is
// completed and every ecosystem of every contestant is completed. It is the
// only stop condition for a successful job.
func IsComplete(list []dto.PartialContestant) bool {
	if len(list) == 0 {
		return false
	}
	for _, c := range list {
		if c.AnalysisStatus != dto.StatusCompleted || !allEcosystems(c.Analytics, dto.StatusCompleted) {
			return false
		}
	}
	return true
}

// IsSettled reports whether no contestant can make further progress: each
// one is terminal itself or has only terminal ecosystems. A settled list
// that is not complete carries at least one failure.
func IsSettled(list []dto.PartialContestant) bool {
	if len(list) == 0 {
		return false
	}
	for _, c := range list {
		if c.AnalysisStatus.IsTerminal() {
			continue
		}
		if len(c.Analytics) == 0 {
			return false
		}
		for _, eco := range c.Analytics {
			if !eco.Status.IsTerminal() {
				return false
			}
		}
	}
	return true
}

// OverallProgress is the arithmetic mean of contestant progress. Advisory
// only; it never gates completion.
func OverallProgress(list []dto.PartialContestant) int {
	if len(list) == 0 {
		return 0
	}
	sum := 0
	for _, c := range list {
		sum += clamp(c.AnalysisProgress)
	}
	return sum / len(list)
}

func allEcosystems(analytics []dto.PartialEcosystemAnalytics, status dto.AnalysisStatus) bool {
	for _, eco := range analytics {
		if eco.Status != status {
			return false
		}
	}
	return true
}

func indexOfContestant(list []dto.PartialContestant, id string) int {
	for i, c := range list {
		if c.Matches(id) {
			return i
		}
	}
	for i, c := range list {
		if id != "" && strings.EqualFold(c.Profile.Username, id) {
			return i
		}
	}
	return -1
}

func indexOfEcosystem(analytics []dto.PartialEcosystemAnalytics, name string) int {
	name = strings.TrimSpace(name)
	for i, eco := range analytics {
		if strings.EqualFold(eco.Name, name) {
			return i
		}
	}
	return -1
}

func isAggregate(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), dto.AggregateEcosystem)
}

func clone(list []dto.PartialContestant) []dto.PartialContestant {
	return append(make([]dto.PartialContestant, 0, len(list)), list...)
}

func cloneAnalytics(analytics []dto.PartialEcosystemAnalytics) []dto.PartialEcosystemAnalytics {
	return append(make([]dto.PartialEcosystemAnalytics, 0, len(analytics)), analytics...)
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
