package netscan

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// macPattern matches colon- or dash-separated hex pair MAC addresses.
var macPattern = regexp.MustCompile(`(?i)\b([0-9a-f]{2}[:-]){5}[0-9a-f]{2}\b`)

// ARPReader looks up hardware addresses in the system neighbor table.
type ARPReader struct {
	logger *zap.Logger
}

// NewARPReader creates a neighbor-table reader.
func NewARPReader(logger *zap.Logger) *ARPReader {
	return &ARPReader{logger: logger}
}

// Lookup returns the MAC for an IP from the neighbor table, normalized to
// uppercase colon-separated form. Returns false when the platform has no
// readable table or the entry is missing/incomplete.
func (r *ARPReader) Lookup(ctx context.Context, ip string) (string, bool) {
	switch runtime.GOOS {
	case "linux":
		return lookupARP(r.readProcNetARP(), ip)
	case "windows", "darwin":
		return lookupARP(r.runArpCommand(ctx), ip)
	default:
		return "", false
	}
}

func (r *ARPReader) readProcNetARP() string {
	data, err := os.ReadFile("/proc/net/arp")
	if err != nil {
		r.logger.Debug("failed to read /proc/net/arp", zap.Error(err))
		return ""
	}
	return string(data)
}

func (r *ARPReader) runArpCommand(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		r.logger.Debug("failed to run arp -a", zap.Error(err))
		return ""
	}
	return string(out)
}

// lookupARP scans neighbor-table output for the line holding the given IP
// and extracts the first MAC-shaped token on it.
func lookupARP(output, ip string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !lineMatchesIP(line, ip) {
			continue
		}

		mac := macPattern.FindString(line)
		if mac == "" {
			continue
		}
		mac = strings.ToUpper(strings.ReplaceAll(mac, "-", ":"))
		if mac == "00:00:00:00:00:00" || mac == "FF:FF:FF:FF:FF:FF" {
			continue
		}
		return mac, true
	}
	return "", false
}

// lineMatchesIP checks that the line contains the IP as a whole token
// ("10.0.0.1" must not match "10.0.0.10").
func lineMatchesIP(line, ip string) bool {
	for _, field := range strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ')'
	}) {
		if field == ip {
			return true
		}
	}
	return false
}
