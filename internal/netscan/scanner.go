package netscan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cybershield/cybershield/pkg/models"
	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Prometheus scan metrics.
var (
	scansStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netscan_scans_started_total",
		Help: "Total number of network scans started.",
	})
	scansCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netscan_scans_completed_total",
		Help: "Total number of network scans finished, by outcome.",
	}, []string{"outcome"})
	devicesDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netscan_devices_discovered_total",
		Help: "Total number of live devices discovered across all scans.",
	})
)

func init() {
	prometheus.MustRegister(scansStarted, scansCompleted, devicesDiscovered)
}

// ActivityLog records user-visible audit entries. Wired in main to the
// activity module.
type ActivityLog interface {
	Record(ctx context.Context, userID, module, activity string, status models.ActivityStatus)
}

// Scanner owns the end-to-end scan: range expansion, bounded fan-out,
// per-host probing, classification, vulnerability evaluation, persistence.
type Scanner struct {
	liveness Liveness
	prober   PortProber
	identify Identifier
	store    *Store
	bus      plugin.EventBus
	activity ActivityLog
	logger   *zap.Logger
	cfg      Config

	// selfIP is swappable for tests; defaults to localIP.
	selfIP func() string
}

// NewScanner assembles a scanner from its collaborators. bus and activity
// may be nil.
func NewScanner(liveness Liveness, prober PortProber, identify Identifier,
	store *Store, bus plugin.EventBus, activity ActivityLog,
	cfg Config, logger *zap.Logger) *Scanner {
	return &Scanner{
		liveness: liveness,
		prober:   prober,
		identify: identify,
		store:    store,
		bus:      bus,
		activity: activity,
		logger:   logger,
		cfg:      cfg,
		selfIP:   localIP,
	}
}

// Scan runs one full scan for the given user and returns the aggregate
// result. The user's previous device inventory is replaced wholesale.
func (s *Scanner) Scan(ctx context.Context, userID string, opts models.ScanOptions) (*models.ScanResult, error) {
	start := time.Now()
	scanID := uuid.NewString()
	speed := clampSpeed(opts.ScanSpeed)

	ipRange := strings.TrimSpace(opts.IPRange)
	if ipRange == "" {
		ipRange = defaultRange(s.selfIP())
	}

	addrs := ExpandRange(ipRange)
	if opts.ScanType == models.ScanTypeQuick {
		addrs = s.quickSample(ipRange)
	}

	ports := s.resolvePorts(opts)

	s.record(ctx, userID, "Network scan started", models.ActivityCompleted)
	scansStarted.Inc()

	if err := s.store.ClearDevices(ctx, userID); err != nil {
		s.record(ctx, userID, "Network scan failed", models.ActivityError)
		scansCompleted.WithLabelValues("failed").Inc()
		s.publish(ctx, TopicScanFailed, ScanFailedEvent{ScanID: scanID, Reason: "storage unavailable"})
		return nil, fmt.Errorf("clear devices: %w", err)
	}

	s.publish(ctx, TopicScanStarted, ScanStartedEvent{
		ScanID:  scanID,
		IPRange: ipRange,
		Hosts:   len(addrs),
	})
	s.logger.Info("scan started",
		zap.String("scan_id", scanID),
		zap.String("range", ipRange),
		zap.Int("hosts", len(addrs)),
		zap.Int("ports", len(ports)),
		zap.Int("speed", speed),
	)

	result := &models.ScanResult{
		IPRangeScanned: ipRange,
		IPsScanned:     len(addrs),
		PortsScanned:   ports,
	}

	concurrency := concurrencyFor(speed)
	timeout := probeTimeout(speed)
	portSem := make(chan struct{}, concurrency)

	var mu sync.Mutex
	scanned := 0

	// Chunks run sequentially; hosts within a chunk run concurrently.
	for chunkStart := 0; chunkStart < len(addrs); chunkStart += concurrency {
		chunkEnd := chunkStart + concurrency
		if chunkEnd > len(addrs) {
			chunkEnd = len(addrs)
		}
		chunk := addrs[chunkStart:chunkEnd]

		var wg sync.WaitGroup
		for _, ip := range chunk {
			wg.Add(1)
			go func(ip string) {
				defer wg.Done()

				device := s.scanHost(ctx, userID, scanID, ip, ports, timeout, portSem, opts.DetectVulnerabilities)
				if device == nil {
					return
				}
				mu.Lock()
				result.Devices = append(result.Devices, *device)
				mu.Unlock()
			}(ip)
		}
		wg.Wait()

		scanned += len(chunk)
		mu.Lock()
		found := len(result.Devices)
		mu.Unlock()
		s.publish(ctx, TopicScanProgress, ScanProgressEvent{
			ScanID:       scanID,
			HostsScanned: scanned,
			HostsTotal:   len(addrs),
			DevicesFound: found,
		})
	}

	result.ScanTimeSeconds = time.Since(start).Seconds()

	s.record(ctx, userID, "Network scan completed", models.ActivityCompleted)
	scansCompleted.WithLabelValues("completed").Inc()
	s.publish(ctx, TopicScanCompleted, ScanCompletedEvent{
		ScanID:  scanID,
		Summary: result.Summarize(),
	})
	s.logger.Info("scan completed",
		zap.String("scan_id", scanID),
		zap.Int("devices", len(result.Devices)),
		zap.Float64("seconds", result.ScanTimeSeconds),
	)

	return result, nil
}

// scanHost runs the per-host pipeline. Returns nil for hosts that did not
// answer the liveness probe; only live hosts are persisted.
func (s *Scanner) scanHost(ctx context.Context, userID, scanID, ip string, ports []int,
	timeout time.Duration, portSem chan struct{}, detectVulns bool) *models.Device {

	if !s.liveness.Alive(ctx, ip) {
		return nil
	}

	// Identification and port probing run concurrently.
	var info HostInfo
	var open []int
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		info = s.identify.Identify(ctx, ip)
	}()
	go func() {
		defer wg.Done()
		open = scanPorts(ctx, s.prober, ip, ports, timeout, portSem)
	}()
	wg.Wait()

	device := &models.Device{
		IP:       ip,
		MAC:      info.MAC,
		Name:     info.Name,
		Type:     Classify(info.Name, open),
		Ports:    open,
		Status:   models.DeviceStatusActive,
		LastSeen: time.Now(),
	}

	var findings []models.Vulnerability
	if detectVulns {
		findings = EvaluateVulnerabilities(device)
		device.IsVulnerable = len(findings) > 0
	}

	// Persistence failures degrade to log-and-continue; the batch never
	// aborts on a single host.
	if err := s.store.CreateDevice(ctx, userID, device); err != nil {
		s.logger.Warn("failed to persist device", zap.String("ip", ip), zap.Error(err))
		return device
	}
	devicesDiscovered.Inc()

	for i := range findings {
		findings[i].DeviceID = device.ID
		if err := s.store.CreateVulnerability(ctx, userID, &findings[i]); err != nil {
			s.logger.Warn("failed to persist vulnerability",
				zap.String("ip", ip), zap.Error(err))
		}
	}

	s.publish(ctx, TopicDeviceFound, DeviceFoundEvent{ScanID: scanID, Device: *device})
	return device
}

// ScanSinglePorts probes one host's ports without touching the device
// inventory. Backs the /scan-ports endpoint.
func (s *Scanner) ScanSinglePorts(ctx context.Context, userID, ip, portRange string, onlyCommon bool) ([]int, int, float64) {
	start := time.Now()

	ports := ParsePortRanges([]string{portRange})
	if len(ports) == 0 {
		ports = fullPorts
	}
	if onlyCommon {
		ports = filterCommon(ports)
	}

	s.record(ctx, userID, "Port scan started for "+ip, models.ActivityCompleted)

	speed := clampSpeed(s.cfg.DefaultScanSpeed)
	sem := make(chan struct{}, concurrencyFor(speed))
	open := scanPorts(ctx, s.prober, ip, ports, probeTimeout(speed), sem)

	s.record(ctx, userID, "Port scan completed for "+ip, models.ActivityCompleted)

	return open, len(ports), time.Since(start).Seconds()
}

// resolvePorts unions explicit port ranges, falling back to scan-type
// defaults. Scans that skip port inventory still probe a minimal set used
// for identification.
func (s *Scanner) resolvePorts(opts models.ScanOptions) []int {
	if len(opts.PortRanges) > 0 {
		if ports := ParsePortRanges(opts.PortRanges); len(ports) > 0 {
			return ports
		}
	}
	if !opts.ScanPorts {
		return identificationPorts
	}
	switch opts.ScanType {
	case models.ScanTypeQuick:
		return quickPorts
	case models.ScanTypeDevices:
		return identificationPorts
	default:
		return fullPorts
	}
}

// quickSample returns the fixed quick-scan host subset: sample hosts from
// the range's /24 prefix plus the local machine's own address.
func (s *Scanner) quickSample(ipRange string) []string {
	addrs := ExpandRange(ipRange)
	if len(addrs) == 0 {
		return nil
	}

	prefix := addrs[0]
	if i := strings.LastIndex(prefix, "."); i >= 0 {
		prefix = prefix[:i]
	}

	sample := s.cfg.QuickSampleHosts
	if len(sample) == 0 {
		sample = DefaultConfig().QuickSampleHosts
	}

	seen := make(map[string]bool)
	var out []string
	for _, host := range sample {
		ip := fmt.Sprintf("%s.%d", prefix, host)
		if !seen[ip] {
			seen[ip] = true
			out = append(out, ip)
		}
	}
	if self := s.selfIP(); self != "" && !seen[self] {
		out = append(out, self)
	}
	return out
}

// defaultRange derives the scan range from the machine's own /24.
func defaultRange(selfIP string) string {
	if i := strings.LastIndex(selfIP, "."); i >= 0 {
		return selfIP[:i] + ".1-254"
	}
	return "192.168.1.1-254"
}

func (s *Scanner) record(ctx context.Context, userID, activity string, status models.ActivityStatus) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, "netscan", activity, status)
	}
}

func (s *Scanner) publish(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "netscan",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
