package netscan

import (
	"strings"

	"github.com/cybershield/cybershield/pkg/models"
)

// Classify infers a device category from the lowered hostname and the open
// port set. Pure function; hostname rules take precedence over port rules,
// and within each group the first match wins.
func Classify(hostname string, ports []int) models.DeviceType {
	name := strings.ToLower(hostname)

	switch {
	case strings.Contains(name, "router"), strings.Contains(name, "gateway"):
		return models.DeviceTypeRouter
	case strings.Contains(name, "printer"):
		return models.DeviceTypePrinter
	case strings.Contains(name, "cam"):
		return models.DeviceTypeCamera
	case strings.Contains(name, "tv"), strings.Contains(name, "smart"):
		return models.DeviceTypeSmartTV
	case strings.Contains(name, "phone"), strings.Contains(name, "mobile"):
		return models.DeviceTypePhone
	}

	has := make(map[int]bool, len(ports))
	for _, p := range ports {
		has[p] = true
	}
	web := has[80] || has[443]

	switch {
	case web && (has[21] || has[22]):
		return models.DeviceTypeServer
	case web && (has[25] || has[110] || has[143]):
		return models.DeviceTypeServer
	case web && (has[515] || has[631]):
		return models.DeviceTypePrinter
	case web && (has[554] || has[1935]):
		return models.DeviceTypeCamera
	case web:
		return models.DeviceTypeComputer
	case has[21] || has[22] || has[3389]:
		return models.DeviceTypeComputer
	case has[53] || has[67] || has[68]:
		return models.DeviceTypeRouter
	case has[5000] || has[8080] || has[8443]:
		return models.DeviceTypeIoT
	}

	return models.DeviceTypeUnknown
}
