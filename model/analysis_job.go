package model

import "time"

// AnalysisJob is the local registry entry of an upstream analysis job.
// Snapshot holds the latest raw upstream payload while the job is in flight;
// once the job settles the payload may be moved to the archive and
// ArchiveKey points at it. Partial holds the merged progressive view.
type AnalysisJob struct {
	ID          string `json:"id" gorm:"primaryKey;type:text;not null"`
	Type        string `json:"type" gorm:"not null;size:20;index"`
	OwnerID     string `json:"owner_id" gorm:"size:255;index"`
	Description string `json:"description" gorm:"type:text"`
	Query       string `json:"query" gorm:"type:text"`
	Keyword     string `json:"keyword" gorm:"size:100"`
	// RequestData is the JSON-encoded original roster input.
	RequestData string `json:"request_data" gorm:"type:text"`
	UpstreamID  string `json:"upstream_id" gorm:"size:255;index"`

	Status       string     `json:"status" gorm:"not null;size:20;index"`
	Snapshot     string     `json:"-" gorm:"type:text"`
	Partial      string     `json:"-" gorm:"type:text"`
	ArchiveKey   string     `json:"archive_key,omitempty" gorm:"size:255"`
	PollCount    int        `json:"poll_count" gorm:"default:0;not null"`
	LastPolledAt *time.Time `json:"last_polled_at,omitempty"`
	LastError    string     `json:"last_error,omitempty" gorm:"type:text"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (AnalysisJob) TableName() string { return "analysis_jobs" }
