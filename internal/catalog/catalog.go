// Package catalog holds the closed provider table. Adding a provider is a
// code change here, never a runtime data change: each provider package
// contributes one descriptor and its parser, and Register installs them all
// before the registry is sealed.
package catalog

import (
	"github.com/user/quotabar/internal/catalog/claude"
	"github.com/user/quotabar/internal/catalog/codex"
	"github.com/user/quotabar/internal/catalog/copilot"
	"github.com/user/quotabar/internal/catalog/cursor"
	"github.com/user/quotabar/internal/catalog/gemini"
	"github.com/user/quotabar/internal/catalog/kimi"
	"github.com/user/quotabar/internal/catalog/minimax"
	"github.com/user/quotabar/internal/catalog/zai"
	"github.com/user/quotabar/internal/provider"
)

// Overrides carries the per-provider knobs config may adjust without
// reopening the table: alternate local database locations and CLI binaries.
type Overrides struct {
	DatabasePaths map[provider.ProviderID]string
	Commands      map[provider.ProviderID]string
}

// Register installs every catalog provider into reg and seals it.
func Register(reg *provider.Registry, ov Overrides) {
	descriptors := []*provider.Descriptor{
		claude.Descriptor(),
		codex.Descriptor(),
		copilot.Descriptor(),
		cursor.Descriptor(),
		gemini.Descriptor(),
		kimi.Descriptor(),
		minimax.Descriptor(),
		zai.Descriptor(),
	}
	for _, desc := range descriptors {
		apply(desc, ov)
		reg.MustRegister(desc)
	}
	reg.Seal()
}

func apply(desc *provider.Descriptor, ov Overrides) {
	for i := range desc.Strategies {
		cfg := &desc.Strategies[i]
		if path, ok := ov.DatabasePaths[desc.ID]; ok && cfg.Kind == provider.StrategyLocalDB {
			cfg.DatabasePath = path
		}
		if cmd, ok := ov.Commands[desc.ID]; ok && cfg.Kind == provider.StrategyCLI {
			cfg.Command = cmd
		}
	}
}
