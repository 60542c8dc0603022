package netscan

import (
	"context"
	"net"
	"reflect"
	"strconv"
	"testing"
	"time"
)

// startListener opens a TCP listener on loopback and returns its port.
func startListener(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return port
}

// closedPort returns a loopback port with no listener behind it.
func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	port, _ := strconv.Atoi(portStr)
	return port
}

func TestTCPProberIsOpen(t *testing.T) {
	open := startListener(t)
	closed := closedPort(t)

	var p TCPProber
	ctx := context.Background()

	if !p.IsOpen(ctx, "127.0.0.1", open, time.Second) {
		t.Error("listener port reported closed")
	}
	if p.IsOpen(ctx, "127.0.0.1", closed, time.Second) {
		t.Error("closed port reported open")
	}
}

func TestScanPorts(t *testing.T) {
	open1 := startListener(t)
	open2 := startListener(t)
	closed := closedPort(t)

	ports := []int{closed, open2, open1}
	sem := make(chan struct{}, 4)
	got := scanPorts(context.Background(), TCPProber{}, "127.0.0.1", ports, time.Second, sem)

	want := []int{open1, open2}
	if open2 < open1 {
		want = []int{open2, open1}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v (open ports sorted)", got, want)
	}
}

func TestScanPortsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sem := make(chan struct{}, 1)
	got := scanPorts(ctx, TCPProber{}, "127.0.0.1", []int{80, 443}, time.Second, sem)
	if len(got) != 0 {
		t.Errorf("got %v after cancellation, want empty", got)
	}
}
