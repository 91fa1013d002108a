package tracker

import "github.com/lac-hong-legacy/devscope/dto"

// Merge folds a freshly normalized snapshot into the previous view. Order
// of prev is kept and new contestants are appended. Statuses follow the
// state machine, so a stale or contradictory snapshot can never move an
// entity backwards.
func Merge(prev, incoming []dto.PartialContestant) []dto.PartialContestant {
	out := clone(prev)
	for _, in := range incoming {
		i := indexOfContestant(out, in.Key())
		if i < 0 && in.Profile.ID != "" {
			i = indexOfContestant(out, in.Profile.ID)
		}
		if i < 0 {
			out = append(out, settle(fresh(in)))
			continue
		}
		out[i] = mergeContestant(out[i], in)
	}
	return out
}

func fresh(in dto.PartialContestant) dto.PartialContestant {
	c := in
	c.Analytics = make([]dto.PartialEcosystemAnalytics, 0, len(in.Analytics))
	c.AnalysisStatus = dto.StatusPending
	c.AnalysisProgress = 0
	return mergeContestant(c, in)
}

func mergeContestant(cur, in dto.PartialContestant) dto.PartialContestant {
	if synthesized(cur.Profile) && !synthesized(in.Profile) {
		cur.Profile = in.Profile
	}
	cur.Analytics = cloneAnalytics(cur.Analytics)

	if !cur.AnalysisStatus.IsTerminal() {
		for _, eco := range in.Analytics {
			status := eco.Status
			score := eco.Score
			update := EcosystemUpdate{Progress: eco.Progress, Status: &status, Score: &score, Repos: eco.Repos}
			if j := indexOfEcosystem(cur.Analytics, eco.Name); j >= 0 {
				cur.Analytics[j] = applyEcosystem(cur.Analytics[j], update)
				continue
			}
			if isAggregate(eco.Name) {
				continue
			}
			cur.Analytics = append(cur.Analytics, applyEcosystem(dto.PartialEcosystemAnalytics{
				Name:   eco.Name,
				Repos:  []dto.RepoScore{},
				Status: dto.StatusPending,
			}, update))
		}

		// Upstream declaring a contestant done means placeholder ecosystems
		// it never reported on will not arrive.
		if in.AnalysisStatus.IsTerminal() {
			cur.Analytics = dropPlaceholders(cur.Analytics, in.Analytics)
		}

		if in.AnalysisStatus != "" {
			cur.AnalysisStatus = transition(cur.AnalysisStatus, in.AnalysisStatus, cur.Analytics)
		}
		if cur.AnalysisStatus == dto.StatusPending && len(in.Analytics) > 0 {
			cur.AnalysisStatus = dto.StatusAnalyzing
		}
		if !cur.AnalysisStatus.IsTerminal() {
			cur.AnalysisProgress = clamp(in.AnalysisProgress)
			cur.EstimatedTime = in.EstimatedTime
		}
	}
	return settle(cur)
}

func dropPlaceholders(analytics, reported []dto.PartialEcosystemAnalytics) []dto.PartialEcosystemAnalytics {
	kept := analytics[:0]
	for _, eco := range analytics {
		if eco.Status == dto.StatusPending && indexOfEcosystem(reported, eco.Name) < 0 {
			continue
		}
		kept = append(kept, eco)
	}
	return kept
}

// synthesized reports whether the profile is the minimal record built from
// a bare actor identifier.
func synthesized(p dto.Developer) bool {
	return p.ID == p.Username && p.Username == p.Name && p.AvatarURL == "" && p.ProfileURL == ""
}
