package netscan

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpandRange parses a range specification into an ordered list of dotted-quad
// addresses. Supported forms: CIDR ("192.168.1.0/24", mask 24-32), dash range
// ("192.168.1.10-20"), comma list, or a single literal address.
//
// Malformed segments contribute nothing; an empty result means "zero hosts",
// never an error.
func ExpandRange(spec string) []string {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}

	switch {
	case strings.Contains(spec, "/"):
		return expandCIDR(spec)
	case strings.Contains(spec, ","):
		parts := strings.Split(spec, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case strings.Contains(spec, "-"):
		return expandDashRange(spec)
	default:
		return []string{spec}
	}
}

// expandCIDR handles masks 24-32: the prefix is the first three octets, the
// host portion iterates 1-254 (mask 31 stops at 2; mask 32 pins the exact host).
func expandCIDR(spec string) []string {
	base, maskStr, ok := strings.Cut(spec, "/")
	if !ok {
		return nil
	}
	mask, err := strconv.Atoi(strings.TrimSpace(maskStr))
	if err != nil || mask < 24 || mask > 32 {
		return nil
	}

	octets := strings.Split(strings.TrimSpace(base), ".")
	if len(octets) != 4 {
		return nil
	}
	prefix := strings.Join(octets[:3], ".")

	start, end := 1, 254
	switch mask {
	case 31:
		end = 2
	case 32:
		last, err := strconv.Atoi(octets[3])
		if err != nil {
			return nil
		}
		start, end = last, last
	}

	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, fmt.Sprintf("%s.%d", prefix, i))
	}
	return out
}

// expandDashRange handles "a.b.c.start-end".
func expandDashRange(spec string) []string {
	lastDot := strings.LastIndex(spec, ".")
	if lastDot < 0 {
		return nil
	}
	prefix := spec[:lastDot]
	bounds := spec[lastDot+1:]

	startStr, endStr, ok := strings.Cut(bounds, "-")
	if !ok {
		return nil
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(startStr))
	end, err2 := strconv.Atoi(strings.TrimSpace(endStr))
	if err1 != nil || err2 != nil || start > end {
		return nil
	}

	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, fmt.Sprintf("%s.%d", prefix, i))
	}
	return out
}

// lastOctet returns the final dotted segment of an address ("192.168.1.42"
// yields "42"). Used for synthesized device names and quick-scan sampling.
func lastOctet(ip string) string {
	if i := strings.LastIndex(ip, "."); i >= 0 {
		return ip[i+1:]
	}
	return ip
}
