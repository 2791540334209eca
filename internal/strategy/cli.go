package strategy

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/user/quotabar/internal/provider"
)

const defaultSubprocessTimeout = 30 * time.Second

// acquireCLI shells out to the provider's own CLI and captures stdout.
// A missing binary is an environment condition (fall through); a failed
// or empty run is a transient hiccup worth retrying later.
func acquireCLI(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps) (*provider.RawResponse, error) {
	if cfg.Command == "" {
		return nil, provider.Errorf(provider.ResultPermanent, "cli strategy for %s has no command", desc.ID)
	}
	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, ErrUnsupported
	}

	timeout := deps.SubprocessTimeout
	if timeout <= 0 {
		timeout = defaultSubprocessTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, path, cfg.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		deps.logger().Debug("provider cli failed",
			"provider", desc.ID, "command", cfg.Command, "error", err,
			"stderr_len", stderr.Len())
		return nil, provider.WrapErr(provider.ResultTransient, err,
			"%s %v exited abnormally", cfg.Command, cfg.Args)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, provider.Errorf(provider.ResultTransient,
			"%s produced no output", cfg.Command)
	}

	return &provider.RawResponse{
		ProviderID: desc.ID,
		Source:     provider.StrategyCLI,
		Body:       out,
		FetchedAt:  start,
		Elapsed:    time.Since(start),
	}, nil
}
