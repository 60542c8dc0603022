// Package testutil provides shared fixtures for module tests.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/cybershield/cybershield/pkg/models"
)

// NewDevice returns a Device with sensible defaults, suitable for test fixtures.
// Override individual fields via options.
func NewDevice(opts ...func(*models.Device)) models.Device {
	d := models.Device{
		ID:       uuid.NewString(),
		IP:       "192.168.1.100",
		MAC:      "00:11:22:33:44:55",
		Name:     "test-device",
		Type:     models.DeviceTypeComputer,
		Ports:    []int{22, 80},
		Status:   models.DeviceStatusActive,
		LastSeen: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithIP sets the device IP.
func WithIP(ip string) func(*models.Device) {
	return func(d *models.Device) { d.IP = ip }
}

// WithMAC sets the device MAC address.
func WithMAC(mac string) func(*models.Device) {
	return func(d *models.Device) { d.MAC = mac }
}

// WithName sets the device display name.
func WithName(name string) func(*models.Device) {
	return func(d *models.Device) { d.Name = name }
}

// WithType sets the device type.
func WithType(t models.DeviceType) func(*models.Device) {
	return func(d *models.Device) { d.Type = t }
}

// WithPorts sets the open port list.
func WithPorts(ports ...int) func(*models.Device) {
	return func(d *models.Device) { d.Ports = ports }
}

// WithStatus sets the device status.
func WithStatus(s models.DeviceStatus) func(*models.Device) {
	return func(d *models.Device) { d.Status = s }
}

// Vulnerable marks the device vulnerable.
func Vulnerable() func(*models.Device) {
	return func(d *models.Device) { d.IsVulnerable = true }
}
