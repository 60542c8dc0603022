package netscan

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// quickPorts is the default set for quick scans.
var quickPorts = []int{22, 23, 80, 443, 3389, 8080}

// fullPorts is the default set for full scans: well-known service ports.
var fullPorts = []int{
	20, 21, 22, 23, 25, 53, 67, 68, 80, 110, 119, 123, 135, 137, 138, 139,
	143, 161, 389, 443, 445, 465, 500, 515, 631, 993, 995, 1433, 1521, 1723,
	3306, 3389, 5060, 5432, 5900, 8000, 8080, 8443, 8888, 10000,
}

// identificationPorts are probed when a scan only needs to identify devices,
// not inventory their ports.
var identificationPorts = []int{80, 443, 22}

// commonPortsFilter restricts a port-range scan to frequently seen services.
var commonPortsFilter = []int{
	21, 22, 23, 25, 53, 80, 110, 143, 443, 445, 993, 995, 1433, 3306, 3389,
	5432, 8080, 8443,
}

// Scan speed bounds.
const (
	minScanSpeed = 10
	maxScanSpeed = 100
)

// probeTimeout maps scan speed to a per-probe TCP connect timeout:
// max(500, 2000 - speed*15) milliseconds. Speed 100 gives 500ms; speed 10
// gives 1850ms.
func probeTimeout(scanSpeed int) time.Duration {
	ms := 2000 - scanSpeed*15
	if ms < 500 {
		ms = 500
	}
	return time.Duration(ms) * time.Millisecond
}

// concurrencyFor maps scan speed to the host fan-out: clamp(speed/2, 5, 50).
func concurrencyFor(scanSpeed int) int {
	c := scanSpeed / 2
	if c < 5 {
		c = 5
	}
	if c > 50 {
		c = 50
	}
	return c
}

// clampSpeed bounds a user-supplied speed to [10,100], defaulting to 50.
func clampSpeed(speed int) int {
	if speed == 0 {
		return 50
	}
	if speed < minScanSpeed {
		return minScanSpeed
	}
	if speed > maxScanSpeed {
		return maxScanSpeed
	}
	return speed
}

// ParsePortRanges expands port-range specs into a sorted, de-duplicated port
// set. Each spec is "start-end", a comma list, a single port, or the named
// set "common". Malformed tokens are skipped.
func ParsePortRanges(specs []string) []int {
	seen := make(map[int]bool)

	add := func(p int) {
		if p >= 1 && p <= 65535 {
			seen[p] = true
		}
	}

	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		switch {
		case spec == "":
			continue
		case strings.EqualFold(spec, "common"):
			for _, p := range commonPortsFilter {
				add(p)
			}
		case strings.Contains(spec, ","):
			for _, tok := range strings.Split(spec, ",") {
				if p, err := strconv.Atoi(strings.TrimSpace(tok)); err == nil {
					add(p)
				}
			}
		case strings.Contains(spec, "-"):
			startStr, endStr, _ := strings.Cut(spec, "-")
			start, err1 := strconv.Atoi(strings.TrimSpace(startStr))
			end, err2 := strconv.Atoi(strings.TrimSpace(endStr))
			if err1 != nil || err2 != nil || start > end {
				continue
			}
			for p := start; p <= end; p++ {
				add(p)
			}
		default:
			if p, err := strconv.Atoi(spec); err == nil {
				add(p)
			}
		}
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// filterCommon restricts ports to the common-ports list, preserving order.
func filterCommon(ports []int) []int {
	common := make(map[int]bool, len(commonPortsFilter))
	for _, p := range commonPortsFilter {
		common[p] = true
	}

	var out []int
	for _, p := range ports {
		if common[p] {
			out = append(out, p)
		}
	}
	return out
}
