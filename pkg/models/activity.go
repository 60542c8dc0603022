package models

import "time"

// ActivityStatus describes the outcome recorded with an activity entry.
type ActivityStatus string

const (
	ActivityCompleted ActivityStatus = "completed"
	ActivityWarning   ActivityStatus = "warning"
	ActivityError     ActivityStatus = "error"
)

// Activity is one entry in a user's activity log.
type Activity struct {
	ID        string         `json:"id"`
	UserID    string         `json:"-"`
	Module    string         `json:"module"`
	Activity  string         `json:"activity"`
	Status    ActivityStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}
