// Package cli wires the commands: query, watch, providers, auth and serve.
package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/user/quotabar/internal/catalog"
	"github.com/user/quotabar/internal/config"
	"github.com/user/quotabar/internal/credstore"
	"github.com/user/quotabar/internal/httpx"
	"github.com/user/quotabar/internal/orchestrator"
	"github.com/user/quotabar/internal/provider"
	"github.com/user/quotabar/internal/strategy"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "quotabar",
		Short: "LLM provider usage and quota monitor",
		Long:  `Aggregates usage, quota and spend data from your LLM provider accounts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryCmd.RunE(cmd, args)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/quotabar/config.yaml)")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	rootCmd.Flags().StringP("provider", "p", "", "Filter by provider ID")
}

// app bundles everything a command needs after setup.
type app struct {
	cfg   *config.Config
	reg   *provider.Registry
	store credstore.Store
	orch  *orchestrator.Orchestrator
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	reg := provider.NewRegistry()
	catalog.Register(reg, catalogOverrides(cfg))

	store, err := credstore.NewFileStore(cfg.Settings.CredentialDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	opts := []httpx.Option{
		httpx.WithMetrics(httpx.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if cfg.Settings.CaptureDir != "" {
		capture, err := httpx.NewCapture(cfg.Settings.CaptureDir, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to enable debug capture: %w", err)
		}
		opts = append(opts, httpx.WithCapture(capture))
	}

	client := httpx.NewClient(httpx.DefaultPolicy(), opts...)
	for _, desc := range reg.All() {
		client.Register(desc.ID, desc.Hosts, desc.RatePolicyOrDefault())
	}

	deps := strategy.Deps{
		Store:             store,
		Client:            client,
		SubprocessTimeout: cfg.Settings.Timeout,
	}
	orch := orchestrator.New(reg, deps, orchestrator.Options{
		Timeout:       cfg.Settings.Timeout,
		MaxConcurrent: cfg.Settings.MaxConcurrent,
		StaleAfter:    cfg.Settings.StaleAfter,
	})

	return &app{cfg: cfg, reg: reg, store: store, orch: orch}, nil
}

func catalogOverrides(cfg *config.Config) catalog.Overrides {
	ov := catalog.Overrides{
		DatabasePaths: make(map[provider.ProviderID]string),
		Commands:      make(map[provider.ProviderID]string),
	}
	for id, o := range cfg.Overrides {
		if o.DatabasePath != "" {
			ov.DatabasePaths[provider.ProviderID(id)] = o.DatabasePath
		}
		if o.Command != "" {
			ov.Commands[provider.ProviderID(id)] = o.Command
		}
	}
	return ov
}
