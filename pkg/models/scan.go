package models

// ScanType selects the default port set and host subset for a scan.
type ScanType string

const (
	ScanTypeQuick   ScanType = "quick"
	ScanTypeFull    ScanType = "full"
	ScanTypePorts   ScanType = "ports"
	ScanTypeDevices ScanType = "devices"
)

// ScanOptions configures a network scan.
type ScanOptions struct {
	ScanType              ScanType `json:"scanType"`
	IPRange               string   `json:"ipRange"`
	ScanPorts             bool     `json:"scanPorts"`
	PortRanges            []string `json:"portRanges"`
	ScanSpeed             int      `json:"scanSpeed"` // 10-100
	DetectVulnerabilities bool     `json:"detectVulnerabilities"`
}

// ScanResult is the aggregate output of one scan pass.
type ScanResult struct {
	Devices         []Device `json:"devices"`
	IPRangeScanned  string   `json:"ipRangeScanned"`
	IPsScanned      int      `json:"ipsScanned"`
	PortsScanned    []int    `json:"portsScanned"`
	ScanTimeSeconds float64  `json:"scanTimeSeconds"`
}

// ScanSummary holds derived counts for the HTTP response.
type ScanSummary struct {
	DevicesFound      int     `json:"devicesFound"`
	ActiveDevices     int     `json:"activeDevices"`
	VulnerableDevices int     `json:"vulnerableDevices"`
	ScanTimeSeconds   float64 `json:"scanTimeSeconds"`
	IPRange           string  `json:"ipRange"`
	IPsScanned        int     `json:"ipsScanned"`
	PortsScanned      int     `json:"portsScanned"`
	TotalOpenPorts    int     `json:"totalOpenPorts"`
}

// ScanStatistics holds per-scan distributions for the HTTP response.
type ScanStatistics struct {
	DeviceTypeCounts map[string]int `json:"deviceTypeCounts"`
	CommonPorts      map[int]int    `json:"commonPorts"`
}

// Summarize computes the derived summary counts from a scan result.
func (r *ScanResult) Summarize() ScanSummary {
	s := ScanSummary{
		DevicesFound:    len(r.Devices),
		ScanTimeSeconds: r.ScanTimeSeconds,
		IPRange:         r.IPRangeScanned,
		IPsScanned:      r.IPsScanned,
		PortsScanned:    len(r.PortsScanned),
	}
	for _, d := range r.Devices {
		if d.Status == DeviceStatusActive {
			s.ActiveDevices++
		}
		if d.IsVulnerable {
			s.VulnerableDevices++
		}
		s.TotalOpenPorts += len(d.Ports)
	}
	return s
}

// Statistics computes device-type and open-port distributions.
func (r *ScanResult) Statistics() ScanStatistics {
	stats := ScanStatistics{
		DeviceTypeCounts: make(map[string]int),
		CommonPorts:      make(map[int]int),
	}
	for _, d := range r.Devices {
		stats.DeviceTypeCounts[string(d.Type)]++
		for _, p := range d.Ports {
			stats.CommonPorts[p]++
		}
	}
	return stats
}
