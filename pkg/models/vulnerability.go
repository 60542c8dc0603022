package models

import "time"

// Severity ranks a vulnerability finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Vulnerability is a heuristic finding attached to a scanned device.
type Vulnerability struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"deviceId"`
	Description    string    `json:"description"`
	Severity       Severity  `json:"severity"`
	Recommendation string    `json:"recommendation"`
	Resolved       bool      `json:"resolved"`
	CreatedAt      time.Time `json:"createdAt"`

	// Populated on list endpoints by joining the owning device.
	DeviceName string `json:"deviceName,omitempty"`
	DeviceIP   string `json:"deviceIp,omitempty"`
}
