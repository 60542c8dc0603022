package netscan

import (
	"context"
	"net"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

// Liveness decides whether a host responds on the network at all.
type Liveness interface {
	Alive(ctx context.Context, ip string) bool
}

// ICMPProber checks liveness with a single ICMP echo.
type ICMPProber struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewICMPProber creates a liveness prober. A zero timeout defaults to 1s.
func NewICMPProber(timeout time.Duration, logger *zap.Logger) *ICMPProber {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &ICMPProber{timeout: timeout, logger: logger}
}

// Alive sends one echo request and reports whether a reply arrived in time.
// Any failure maps to "not alive": hosts blocking ICMP are acceptably
// under-detected in exchange for speed.
func (p *ICMPProber) Alive(ctx context.Context, ip string) bool {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		p.logger.Debug("failed to create pinger", zap.String("ip", ip), zap.Error(err))
		return false
	}

	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if runErr := pinger.Run(); runErr != nil {
			p.logger.Debug("ping failed", zap.String("ip", ip), zap.Error(runErr))
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		pinger.Stop()
		return false
	}

	return pinger.Statistics().PacketsRecv > 0
}

// localIP returns the machine's outbound IPv4 address, used to derive the
// default scan range and the quick-scan sample. Falls back to 192.168.1.1.
func localIP() string {
	conn, err := net.Dial("udp", "192.0.2.1:80")
	if err != nil {
		return "192.168.1.1"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return "192.168.1.1"
}
