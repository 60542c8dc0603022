package netscan

import (
	"regexp"
	"testing"
)

func TestPseudoMACDeterministic(t *testing.T) {
	a := PseudoMAC("192.168.1.10")
	b := PseudoMAC("192.168.1.10")
	if a != b {
		t.Fatalf("PseudoMAC not stable: %q vs %q", a, b)
	}
	if c := PseudoMAC("192.168.1.11"); c == a {
		t.Errorf("distinct IPs produced the same pseudo MAC %q", c)
	}
}

func TestPseudoMACFormat(t *testing.T) {
	mac := PseudoMAC("10.0.0.1")
	if !regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`).MatchString(mac) {
		t.Errorf("PseudoMAC = %q, want uppercase colon-separated pairs", mac)
	}
}

func TestLookupARPLinuxFormat(t *testing.T) {
	procNetARP := `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         a4:2b:b0:c1:d2:e3     *        eth0
192.168.1.10     0x1         0x0         00:00:00:00:00:00     *        eth0
192.168.1.15     0x1         0x2         DE-AD-BE-EF-00-15     *        eth0
`
	mac, ok := lookupARP(procNetARP, "192.168.1.1")
	if !ok || mac != "A4:2B:B0:C1:D2:E3" {
		t.Errorf("got (%q, %v), want normalized uppercase MAC", mac, ok)
	}

	// Incomplete entries (all-zero MAC) are skipped.
	if mac, ok := lookupARP(procNetARP, "192.168.1.10"); ok {
		t.Errorf("got %q for incomplete entry, want miss", mac)
	}

	// Dash-separated MACs are normalized to colons.
	mac, ok = lookupARP(procNetARP, "192.168.1.15")
	if !ok || mac != "DE:AD:BE:EF:00:15" {
		t.Errorf("got (%q, %v), want DE:AD:BE:EF:00:15", mac, ok)
	}
}

func TestLookupARPDarwinFormat(t *testing.T) {
	out := `? (192.168.1.1) at a4:2b:b0:c1:d2:e3 on en0 ifscope [ethernet]
? (192.168.1.255) at ff:ff:ff:ff:ff:ff on en0 ifscope [ethernet]
`
	mac, ok := lookupARP(out, "192.168.1.1")
	if !ok || mac != "A4:2B:B0:C1:D2:E3" {
		t.Errorf("got (%q, %v), want MAC from parenthesized IP line", mac, ok)
	}

	// Broadcast entries are skipped.
	if mac, ok := lookupARP(out, "192.168.1.255"); ok {
		t.Errorf("got %q for broadcast entry, want miss", mac)
	}
}

func TestLookupARPNoPrefixMatch(t *testing.T) {
	out := `192.168.1.10     0x1     0x2     aa:bb:cc:dd:ee:10     *     eth0
`
	// "192.168.1.1" must not match the "192.168.1.10" line.
	if mac, ok := lookupARP(out, "192.168.1.1"); ok {
		t.Errorf("got %q for prefix match, want miss", mac)
	}
}

func TestLookupARPMiss(t *testing.T) {
	if mac, ok := lookupARP("", "10.0.0.1"); ok {
		t.Errorf("got %q from empty table, want miss", mac)
	}
}

func TestLineMatchesIP(t *testing.T) {
	cases := []struct {
		line, ip string
		want     bool
	}{
		{"192.168.1.1 at aa:bb", "192.168.1.1", true},
		{"? (192.168.1.1) at aa:bb", "192.168.1.1", true},
		{"192.168.1.10 at aa:bb", "192.168.1.1", false},
		{"192.168.1.1\taa:bb", "192.168.1.1", true},
	}
	for _, tc := range cases {
		if got := lineMatchesIP(tc.line, tc.ip); got != tc.want {
			t.Errorf("lineMatchesIP(%q, %q) = %v, want %v", tc.line, tc.ip, got, tc.want)
		}
	}
}
