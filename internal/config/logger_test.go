package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "defaults", level: "info", format: "json"},
		{name: "debug level", level: "debug", format: "json"},
		{name: "console format", level: "warn", format: "console"},
		{name: "empty format falls back to json", level: "info", format: ""},
		{name: "invalid level", level: "banana", format: "json", wantErr: true},
		{name: "invalid format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set("logging.level", tt.level)
			v.Set("logging.format", tt.format)

			logger, err := NewLogger(v)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewLogger() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if logger == nil {
				t.Fatal("NewLogger() returned nil logger")
			}
		})
	}
}

func TestSubMissingSectionReturnsEmptyConfig(t *testing.T) {
	cfg := New(nil)
	sub := cfg.Sub("modules.netscan")
	if sub == nil {
		t.Fatal("Sub() returned nil for missing section")
	}
	if sub.IsSet("anything") {
		t.Error("empty sub-config reports keys as set")
	}
}
