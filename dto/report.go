package dto

// SentinelRepoName and SentinelRepoScore replace repository entries whose
// name or score cannot be resolved, so repository counts stay stable.
const (
	SentinelRepoName  = "unknown/repository"
	SentinelRepoScore = "0"
)

// AggregateEcosystem is the system-generated pseudo ecosystem that never
// reaches a contestant's ecosystem list.
const AggregateEcosystem = "ALL"

type RepoScore struct {
	FullName string `json:"fullName"`
	Score    string `json:"score"`
}

// IsSentinel reports whether the entry is the unresolvable placeholder.
func (r RepoScore) IsSentinel() bool {
	return r.FullName == SentinelRepoName && r.Score == SentinelRepoScore
}

// ValidRepoCount counts Repos without sentinel entries and is the figure
// shown to users.
type EcosystemAnalytics struct {
	Name           string      `json:"name"`
	Score          float64     `json:"score"`
	Repos          []RepoScore `json:"repos"`
	ValidRepoCount int         `json:"validRepoCount"`
}

// Developer is the GitHub-derived identity of a contestant.
type Developer struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	ProfileURL  string `json:"profileUrl,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Location    string `json:"location,omitempty"`
	Company     string `json:"company,omitempty"`
	Blog        string `json:"blog,omitempty"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	PublicRepos int    `json:"publicRepos"`
}

type Contestant struct {
	Profile   Developer            `json:"profile"`
	Analytics []EcosystemAnalytics `json:"analytics"`
}

type EventReport struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Contestants []Contestant `json:"contestants"`
	RequestData []string     `json:"request_data,omitempty"`
}

type PartialEcosystemAnalytics struct {
	Name     string         `json:"name"`
	Score    float64        `json:"score"`
	Repos    []RepoScore    `json:"repos"`
	Status   AnalysisStatus `json:"status"`
	Progress int            `json:"progress"`
}

// PartialContestant is the in-flight projection of a Contestant.
// EstimatedTime is expressed in seconds.
type PartialContestant struct {
	Profile          Developer                   `json:"profile"`
	AnalysisStatus   AnalysisStatus              `json:"analysisStatus"`
	AnalysisProgress int                         `json:"analysisProgress"`
	EstimatedTime    int                         `json:"estimatedTime"`
	Analytics        []PartialEcosystemAnalytics `json:"analytics"`
}

// Key identifies a contestant inside a partial list.
func (p PartialContestant) Key() string {
	if p.Profile.Username != "" {
		return p.Profile.Username
	}
	return p.Profile.ID
}

// Matches reports whether id names this contestant by username or id.
func (p PartialContestant) Matches(id string) bool {
	if id == "" {
		return false
	}
	return p.Profile.Username == id || p.Profile.ID == id
}

type JobStatusResponse struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Status          AnalysisStatus `json:"status"`
	OverallProgress int            `json:"overallProgress"`
	Complete        bool           `json:"complete"`
	PollCount       int            `json:"pollCount"`
	LastError       string         `json:"lastError,omitempty"`
	CompletedAt     *int64         `json:"completedAt,omitempty"`
}

// PartialResponse is the progressive view of a job. LastError is set when
// the latest upstream fetch failed and the view is the last stored one.
type PartialResponse struct {
	JobID           string              `json:"jobId"`
	Status          AnalysisStatus      `json:"status"`
	Contestants     []PartialContestant `json:"contestants"`
	OverallProgress int                 `json:"overallProgress"`
	Complete        bool                `json:"complete"`
	LastError       string              `json:"lastError,omitempty"`
}

type ArchiveResponse struct {
	JobID     string `json:"jobId"`
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}
