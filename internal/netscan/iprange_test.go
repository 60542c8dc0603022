package netscan

import (
	"testing"
)

func TestExpandRangeCIDR(t *testing.T) {
	addrs := ExpandRange("192.168.1.0/24")
	if len(addrs) != 254 {
		t.Fatalf("len = %d, want 254", len(addrs))
	}
	if addrs[0] != "192.168.1.1" {
		t.Errorf("first = %q, want 192.168.1.1", addrs[0])
	}
	if addrs[253] != "192.168.1.254" {
		t.Errorf("last = %q, want 192.168.1.254", addrs[253])
	}
}

func TestExpandRangeCIDREdgeMasks(t *testing.T) {
	if addrs := ExpandRange("10.0.0.0/31"); len(addrs) != 2 {
		t.Errorf("/31 len = %d, want 2", len(addrs))
	}

	addrs := ExpandRange("10.0.0.42/32")
	if len(addrs) != 1 || addrs[0] != "10.0.0.42" {
		t.Errorf("/32 = %v, want [10.0.0.42]", addrs)
	}

	if addrs := ExpandRange("10.0.0.0/16"); len(addrs) != 0 {
		t.Errorf("/16 len = %d, want 0 (mask below 24 unsupported)", len(addrs))
	}
}

func TestExpandRangeDash(t *testing.T) {
	addrs := ExpandRange("192.168.1.10-15")
	want := []string{
		"192.168.1.10", "192.168.1.11", "192.168.1.12",
		"192.168.1.13", "192.168.1.14", "192.168.1.15",
	}
	if len(addrs) != len(want) {
		t.Fatalf("len = %d, want %d", len(addrs), len(want))
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %q, want %q", i, addrs[i], want[i])
		}
	}
}

func TestExpandRangeComma(t *testing.T) {
	addrs := ExpandRange("10.0.0.1, 10.0.0.5,10.0.0.9")
	if len(addrs) != 3 || addrs[1] != "10.0.0.5" {
		t.Fatalf("addrs = %v, want three trimmed entries", addrs)
	}
}

func TestExpandRangeSingle(t *testing.T) {
	addrs := ExpandRange("172.16.0.1")
	if len(addrs) != 1 || addrs[0] != "172.16.0.1" {
		t.Fatalf("addrs = %v, want [172.16.0.1]", addrs)
	}
}

func TestExpandRangeMalformed(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"192.168.1.0/abc",
		"192.168.1.20-10",
		"192.168.1.a-b",
		"nonsense/24",
	}
	for _, spec := range cases {
		if addrs := ExpandRange(spec); len(addrs) != 0 {
			t.Errorf("ExpandRange(%q) = %v, want empty", spec, addrs)
		}
	}
}

func TestLastOctet(t *testing.T) {
	if got := lastOctet("192.168.1.42"); got != "42" {
		t.Errorf("lastOctet = %q, want 42", got)
	}
	if got := lastOctet("nodots"); got != "nodots" {
		t.Errorf("lastOctet = %q, want input unchanged", got)
	}
}
