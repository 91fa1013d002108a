package model

import "time"

// LimiterClass selects which ceiling a caller consumes from.
type LimiterClass string

const (
	LimiterGuest         LimiterClass = "guest"
	LimiterAuthenticated LimiterClass = "user"
)

// QuotaBucket is a point-in-time view of one windowed counter. Buckets live
// only in the quota store and disappear with its TTL.
type QuotaBucket struct {
	Key             string        `json:"key"`
	PointsConsumed  int64         `json:"points_consumed"`
	WindowStartedAt time.Time     `json:"window_started_at"`
	WindowDuration  time.Duration `json:"window_duration"`
}

// ResetsAt is the moment the store expires the bucket.
func (b QuotaBucket) ResetsAt() time.Time {
	return b.WindowStartedAt.Add(b.WindowDuration)
}

// Remaining returns how many points are left under limit.
func (b QuotaBucket) Remaining(limit int64) int64 {
	if r := limit - b.PointsConsumed; r > 0 {
		return r
	}
	return 0
}
