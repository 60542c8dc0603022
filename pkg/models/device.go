package models

import "time"

// DeviceType categorizes a scanned network device.
type DeviceType string

const (
	DeviceTypeRouter   DeviceType = "router"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypePrinter  DeviceType = "printer"
	DeviceTypeCamera   DeviceType = "camera"
	DeviceTypeSmartTV  DeviceType = "smarttv"
	DeviceTypeServer   DeviceType = "server"
	DeviceTypeIoT      DeviceType = "iot"
	DeviceTypeUnknown  DeviceType = "unknown"
)

// DeviceStatus represents whether a device answered the liveness probe.
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
)

// Device is one discovered host on the local network.
//
// Ports holds only the open ports, sorted ascending. MAC may be a
// deterministic pseudo-address synthesized from the IP when the neighbor
// table has no entry; it is stable across scans of the same address.
type Device struct {
	ID           string       `json:"id"`
	IP           string       `json:"ip"`
	MAC          string       `json:"mac"`
	Name         string       `json:"name"`
	Type         DeviceType   `json:"type"`
	Ports        []int        `json:"ports"`
	Status       DeviceStatus `json:"status"`
	IsVulnerable bool         `json:"isVulnerable"`
	LastSeen     time.Time    `json:"lastSeen"`
}
