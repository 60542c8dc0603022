package netscan

import "github.com/cybershield/cybershield/pkg/models"

// Event topics published by the netscan module.
const (
	TopicScanStarted   = "netscan.scan.started"
	TopicScanProgress  = "netscan.scan.progress"
	TopicScanCompleted = "netscan.scan.completed"
	TopicScanFailed    = "netscan.scan.failed"
	TopicDeviceFound   = "netscan.device.found"
)

// ScanStartedEvent is the payload for TopicScanStarted.
type ScanStartedEvent struct {
	ScanID  string `json:"scan_id"`
	IPRange string `json:"ip_range"`
	Hosts   int    `json:"hosts"`
}

// ScanProgressEvent is published after each chunk completes.
type ScanProgressEvent struct {
	ScanID       string `json:"scan_id"`
	HostsScanned int    `json:"hosts_scanned"`
	HostsTotal   int    `json:"hosts_total"`
	DevicesFound int    `json:"devices_found"`
}

// ScanCompletedEvent is the payload for TopicScanCompleted.
type ScanCompletedEvent struct {
	ScanID  string             `json:"scan_id"`
	Summary models.ScanSummary `json:"summary"`
}

// ScanFailedEvent is the payload for TopicScanFailed.
type ScanFailedEvent struct {
	ScanID string `json:"scan_id"`
	Reason string `json:"reason"`
}

// DeviceFoundEvent is the payload for TopicDeviceFound.
type DeviceFoundEvent struct {
	ScanID string        `json:"scan_id"`
	Device models.Device `json:"device"`
}
