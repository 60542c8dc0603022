package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.dsn", "./data/cybershield.db")

	// Module defaults
	v.SetDefault("modules.netscan.enabled", true)
	v.SetDefault("modules.netscan.default_scan_speed", 50)
	v.SetDefault("modules.netscan.ping_timeout", "1s")
	v.SetDefault("modules.netscan.dns_timeout", "500ms")
	v.SetDefault("modules.netscan.quick_sample_hosts", []int{1, 100, 254})
	v.SetDefault("modules.vault.enabled", true)
	v.SetDefault("modules.vault.secret", "")
	v.SetDefault("modules.phishing.enabled", true)
	v.SetDefault("modules.phishing.seed_examples", true)
	v.SetDefault("modules.activity.enabled", true)
	v.SetDefault("modules.activity.retention_period", "2160h")
	v.SetDefault("modules.dashboard.enabled", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("cybershield")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/cybershield")
	}

	// Environment variable support: CS_SERVER_PORT=9090
	v.SetEnvPrefix("CS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
