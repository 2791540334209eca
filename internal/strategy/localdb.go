package strategy

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/user/quotabar/internal/provider"
)

// acquireLocalDB reads a provider's local SQLite log with a parameterized
// query and encodes the rows as the raw payload. The database is opened
// read-only and is never written.
func acquireLocalDB(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps) (*provider.RawResponse, error) {
	if cfg.DatabasePath == "" || cfg.Query == "" {
		return nil, provider.Errorf(provider.ResultPermanent,
			"local db strategy for %s needs a path and query", desc.ID)
	}

	path := expandHome(cfg.DatabasePath)
	if _, err := os.Stat(path); err != nil {
		// The app that owns this database is not installed here.
		return nil, ErrUnsupported
	}

	dsn := "file:" + path + "?" + url.Values{
		"mode":         {"ro"},
		"_time_format": {"sqlite"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, provider.WrapErr(provider.ResultTransient, err, "opening %s", path)
	}
	defer db.Close()

	start := time.Now()
	rows, err := db.QueryContext(ctx, cfg.Query, cfg.QueryArgs...)
	if err != nil {
		// A reachable database that cannot answer the catalog query is
		// a data condition, not a connectivity one.
		return nil, provider.WrapErr(provider.ResultPermanent, err, "querying %s", path)
	}
	defer rows.Close()

	records, err := rowsToMaps(rows)
	if err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "reading rows from %s", path)
	}

	body, err := json.Marshal(records)
	if err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "encoding rows")
	}

	return &provider.RawResponse{
		ProviderID: desc.ID,
		Source:     provider.StrategyLocalDB,
		Body:       body,
		FetchedAt:  start,
		Elapsed:    time.Since(start),
	}, nil
}

// rowsToMaps materializes a result set as column-keyed maps so parsers can
// treat database rows like any other structured payload.
func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, 8)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[col] = v
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
