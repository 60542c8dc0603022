package activity

import (
	"path/filepath"
	"testing"

	"github.com/cybershield/cybershield/internal/config"
	"github.com/cybershield/cybershield/internal/store"
	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/cybershield/cybershield/pkg/plugin/plugintest"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t,
		func() plugin.Plugin { return New() },
		func(t *testing.T) plugin.Dependencies {
			st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("create store: %v", err)
			}
			t.Cleanup(func() { st.Close() })
			return plugin.Dependencies{
				Config: config.New(viper.New()),
				Logger: zap.NewNop(),
				Store:  st,
			}
		})
}
