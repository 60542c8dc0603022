package dashboard

import (
	"testing"

	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/cybershield/cybershield/pkg/plugin/plugintest"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t,
		func() plugin.Plugin { return New(Providers{}) },
		func(t *testing.T) plugin.Dependencies {
			return plugin.Dependencies{Logger: zap.NewNop()}
		})
}
