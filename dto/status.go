package dto

import "strings"

type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// ParseAnalysisStatus maps an upstream status string onto the enum.
// Upstream services are inconsistent about naming, so a few aliases are
// accepted. ok is false for anything unrecognised.
func ParseAnalysisStatus(s string) (AnalysisStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "queued", "waiting":
		return StatusPending, true
	case "analyzing", "analysing", "running", "processing", "in_progress":
		return StatusAnalyzing, true
	case "completed", "complete", "done", "success", "succeeded":
		return StatusCompleted, true
	case "failed", "failure", "error", "errored":
		return StatusFailed, true
	}
	return "", false
}

func (s AnalysisStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s AnalysisStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition enforces pending -> analyzing -> {completed | failed}.
// Staying in the same state is allowed; terminal states never move.
func (s AnalysisStatus) CanTransition(to AnalysisStatus) bool {
	if !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	switch s {
	case "", StatusPending:
		return true
	case StatusAnalyzing:
		return to != StatusPending
	}
	return false
}
