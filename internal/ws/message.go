package ws

import "time"

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageScanStarted   MessageType = "scan.started"
	MessageScanProgress  MessageType = "scan.progress"
	MessageScanCompleted MessageType = "scan.completed"
	MessageScanFailed    MessageType = "scan.failed"
	MessageDeviceFound   MessageType = "device.found"
)

// Message is the envelope for all WebSocket messages. Payload carries the
// bus event payload unchanged.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
	TS      time.Time   `json:"ts"`
}
