package netscan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HostInfo is the resolved identity of a live host.
type HostInfo struct {
	Name string
	MAC  string
}

// Identifier resolves a display name and hardware address for a host.
type Identifier interface {
	Identify(ctx context.Context, ip string) HostInfo
}

// HostIdentifier resolves names via reverse DNS and MACs via the system
// neighbor table, synthesizing deterministic fallbacks for both.
type HostIdentifier struct {
	dnsTimeout time.Duration
	resolver   *net.Resolver
	arp        *ARPReader
	logger     *zap.Logger
}

// NewHostIdentifier creates an identifier. A zero dnsTimeout defaults to 500ms.
func NewHostIdentifier(dnsTimeout time.Duration, logger *zap.Logger) *HostIdentifier {
	if dnsTimeout <= 0 {
		dnsTimeout = 500 * time.Millisecond
	}
	return &HostIdentifier{
		dnsTimeout: dnsTimeout,
		resolver:   net.DefaultResolver,
		arp:        NewARPReader(logger),
		logger:     logger,
	}
}

// Identify resolves the host's name and MAC. Lookup failures degrade to
// synthesized values, never errors.
func (h *HostIdentifier) Identify(ctx context.Context, ip string) HostInfo {
	return HostInfo{
		Name: h.resolveName(ctx, ip),
		MAC:  h.resolveMAC(ctx, ip),
	}
}

func (h *HostIdentifier) resolveName(ctx context.Context, ip string) string {
	ctx, cancel := context.WithTimeout(ctx, h.dnsTimeout)
	defer cancel()

	names, err := h.resolver.LookupAddr(ctx, ip)
	if err == nil && len(names) > 0 {
		return strings.TrimSuffix(names[0], ".")
	}
	return "Device-" + lastOctet(ip)
}

func (h *HostIdentifier) resolveMAC(ctx context.Context, ip string) string {
	if mac, ok := h.arp.Lookup(ctx, ip); ok {
		return mac
	}
	return PseudoMAC(ip)
}

// PseudoMAC synthesizes a deterministic MAC-shaped value from an IP by
// hashing the address string and formatting the first six bytes as uppercase
// colon-separated octet pairs. Stable across scans of the same address, which
// matters because clients key some displays on MAC.
func PseudoMAC(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	hexStr := strings.ToUpper(hex.EncodeToString(sum[:6]))

	pairs := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		pairs = append(pairs, hexStr[i:i+2])
	}
	return strings.Join(pairs, ":")
}
