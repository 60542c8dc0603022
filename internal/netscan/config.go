package netscan

import "time"

// Config holds the netscan module configuration.
type Config struct {
	DefaultScanSpeed int           `mapstructure:"default_scan_speed"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	DNSTimeout       time.Duration `mapstructure:"dns_timeout"`
	QuickSampleHosts []int         `mapstructure:"quick_sample_hosts"`
}

// DefaultConfig returns the default configuration for the netscan module.
func DefaultConfig() Config {
	return Config{
		DefaultScanSpeed: 50,
		PingTimeout:      time.Second,
		DNSTimeout:       500 * time.Millisecond,
		QuickSampleHosts: []int{1, 100, 254},
	}
}
