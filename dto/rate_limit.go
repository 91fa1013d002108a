package dto

import "time"

type RateLimitInfo struct {
	Allowed   bool       `json:"allowed"`
	Class     string     `json:"class"`
	Limit     int64      `json:"limit"`
	Remaining int64      `json:"remaining"`
	ResetTime *time.Time `json:"reset_time,omitempty"`
}
