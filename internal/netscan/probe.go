package netscan

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"
)

// PortProber attempts TCP connections to single (host, port) pairs.
type PortProber interface {
	IsOpen(ctx context.Context, ip string, port int, timeout time.Duration) bool
}

// TCPProber probes ports with plain TCP connect attempts.
type TCPProber struct{}

// IsOpen reports whether a TCP connect to ip:port completes before the
// timeout. Refused, reset, and timed-out connections all map to closed.
func (TCPProber) IsOpen(ctx context.Context, ip string, port int, timeout time.Duration) bool {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// scanPorts probes all candidate ports on one host concurrently, bounded by
// the semaphore, and returns the open ports sorted ascending.
func scanPorts(ctx context.Context, prober PortProber, ip string, ports []int, timeout time.Duration, sem chan struct{}) []int {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var open []int

	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(p int) {
			defer wg.Done()
			defer func() { <-sem }()

			if prober.IsOpen(ctx, ip, p, timeout) {
				mu.Lock()
				open = append(open, p)
				mu.Unlock()
			}
		}(port)
	}
	wg.Wait()

	sort.Ints(open)
	return open
}
