package httpx

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/user/quotabar/internal/provider"
)

// Capture writes raw payloads to disk for diagnosis. It is never active by
// default: construction requires an explicit directory, files are 0600 in
// a 0700 directory, and headers are already sanitized upstream. The nil
// Capture is a no-op.
type Capture struct {
	dir string
	log *slog.Logger
	seq atomic.Uint64
}

// NewCapture enables debug capture under dir.
func NewCapture(dir string, log *slog.Logger) (*Capture, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("capture dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Capture{dir: dir, log: log}, nil
}

type captureEntry struct {
	ProviderID provider.ProviderID    `json:"provider_id"`
	Source     provider.StrategyKind  `json:"source"`
	StatusCode int                    `json:"status_code"`
	FetchedAt  string                 `json:"fetched_at"`
	Sensitive  bool                   `json:"sensitive"`
	Body       string                 `json:"body"`
}

// Write persists one raw response. Failures are logged, never fatal: a
// broken debug hook must not break fetching.
func (c *Capture) Write(raw *provider.RawResponse) {
	if c == nil || raw == nil {
		return
	}
	entry := captureEntry{
		ProviderID: raw.ProviderID,
		Source:     raw.Source,
		StatusCode: raw.StatusCode,
		FetchedAt:  raw.FetchedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		Sensitive:  true,
		Body:       string(raw.Body),
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		c.log.Warn("debug capture marshal failed", "provider", raw.ProviderID, "error", err)
		return
	}
	name := fmt.Sprintf("%s-%s-%06d.json", raw.ProviderID, raw.FetchedAt.UTC().Format("20060102T150405"), c.seq.Add(1))
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		c.log.Warn("debug capture write failed", "provider", raw.ProviderID, "error", err)
	}
}
