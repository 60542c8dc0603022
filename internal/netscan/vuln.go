package netscan

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cybershield/cybershield/pkg/models"
)

// databasePorts are well-known database listeners that should never face the
// local network unprotected.
var databasePorts = []int{1433, 1521, 3306, 5432, 27017}

// vulnRule is one heuristic: a predicate over the device plus fixed finding
// text. Rules are independent; every matching rule fires. A predicate may
// return detail text spliced into the description at "%s".
type vulnRule struct {
	name           string
	severity       models.Severity
	description    string
	recommendation string
	match          func(d *models.Device, has map[int]bool) (bool, string)
}

// vulnRules is the rule table, evaluated in order.
var vulnRules = []vulnRule{
	{
		name:           "telnet",
		severity:       models.SeverityHigh,
		description:    "Telnet service exposed (port 23); traffic is unencrypted",
		recommendation: "Disable Telnet and use SSH instead",
		match: func(_ *models.Device, has map[int]bool) (bool, string) {
			return has[23], ""
		},
	},
	{
		name:           "plain-ftp",
		severity:       models.SeverityMedium,
		description:    "Unencrypted FTP service exposed (port 21)",
		recommendation: "Use SFTP or FTPS for file transfers",
		match: func(_ *models.Device, has map[int]bool) (bool, string) {
			return has[21] && !has[990], ""
		},
	},
	{
		name:           "http-without-tls",
		severity:       models.SeverityMedium,
		description:    "Web service without TLS (port 80 open, 443 closed)",
		recommendation: "Enable HTTPS and redirect plain HTTP traffic",
		match: func(_ *models.Device, has map[int]bool) (bool, string) {
			return has[80] && !has[443], ""
		},
	},
	{
		name:           "remote-desktop",
		severity:       models.SeverityHigh,
		description:    "Remote desktop exposed (port 3389)",
		recommendation: "Restrict RDP access with a VPN or firewall rules",
		match: func(_ *models.Device, has map[int]bool) (bool, string) {
			return has[3389], ""
		},
	},
	{
		name:           "exposed-database",
		severity:       models.SeverityHigh,
		description:    "Database port(s) exposed: %s",
		recommendation: "Bind database services to localhost or firewall the port(s)",
		match: func(_ *models.Device, has map[int]bool) (bool, string) {
			var matched []string
			for _, p := range databasePorts {
				if has[p] {
					matched = append(matched, strconv.Itoa(p))
				}
			}
			return len(matched) > 0, strings.Join(matched, ", ")
		},
	},
	{
		name:           "iot-web-ui",
		severity:       models.SeverityMedium,
		description:    "IoT/camera web interface reachable on the network",
		recommendation: "Change default credentials and isolate the device on a separate VLAN",
		match: func(d *models.Device, has map[int]bool) (bool, string) {
			if d.Type != models.DeviceTypeCamera && d.Type != models.DeviceTypeIoT {
				return false, ""
			}
			return has[80] || has[8080] || has[8443], ""
		},
	},
	{
		name:           "router-admin-shell",
		severity:       models.SeverityMedium,
		description:    "Router admin interface reachable alongside remote shell access",
		recommendation: "Disable WAN-side administration and remote shell on the router",
		match: func(d *models.Device, has map[int]bool) (bool, string) {
			if d.Type != models.DeviceTypeRouter {
				return false, ""
			}
			return (has[80] || has[443]) && (has[22] || has[23]), ""
		},
	},
}

// EvaluateVulnerabilities runs the rule table against a device and returns
// one finding per matching rule, highest severity first. The device itself
// is not mutated; callers set IsVulnerable from a non-empty result.
func EvaluateVulnerabilities(d *models.Device) []models.Vulnerability {
	has := make(map[int]bool, len(d.Ports))
	for _, p := range d.Ports {
		has[p] = true
	}

	var findings []models.Vulnerability
	for _, rule := range vulnRules {
		matched, detail := rule.match(d, has)
		if !matched {
			continue
		}

		description := rule.description
		if detail != "" {
			description = strings.Replace(description, "%s", detail, 1)
		}
		findings = append(findings, models.Vulnerability{
			DeviceID:       d.ID,
			Description:    description,
			Severity:       rule.severity,
			Recommendation: rule.recommendation,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return severityRank(findings[i].Severity) < severityRank(findings[j].Severity)
	})
	return findings
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return 0
	case models.SeverityMedium:
		return 1
	default:
		return 2
	}
}
