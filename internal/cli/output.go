package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/user/quotabar/internal/provider"
)

func PrintJSON(data interface{}) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

func PrintTable(results map[provider.ProviderID]provider.FetchResult) error {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.ASCIIBorder()).
		BorderRow(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		}).
		Headers("PROVIDER", "PLAN", "USAGE", "SPEND", "STATUS")

	for _, res := range sortedResults(results) {
		t.Row(
			string(res.ProviderID),
			formatPlan(res.Record),
			formatUsage(res.Record),
			formatSpend(res.Record),
			formatStatus(res),
		)
	}

	fmt.Println("Provider Usage")
	fmt.Println(t)
	fmt.Printf("Updated: %s\n", time.Now().Format(time.RFC1123))

	return nil
}

func sortedResults(results map[provider.ProviderID]provider.FetchResult) []provider.FetchResult {
	out := make([]provider.FetchResult, 0, len(results))
	for _, res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProviderID < out[j].ProviderID
	})
	return out
}

func formatPlan(rec *provider.UsageRecord) string {
	if rec == nil || rec.Plan == "" {
		return "N/A"
	}
	return rec.Plan
}

func formatUsage(rec *provider.UsageRecord) string {
	if rec == nil || rec.Quota == nil {
		return "N/A"
	}
	q := rec.Quota

	var line string
	switch {
	case q.Used != nil && q.Limit != nil && *q.Limit > 0:
		percent := (*q.Used / *q.Limit) * 100
		line = fmt.Sprintf("%s %.0f%% (%s/%s %s)",
			progressBar(percent), percent,
			formatNumber(*q.Used), formatNumber(*q.Limit), q.Unit)
	case q.Used != nil:
		line = fmt.Sprintf("%s %s", formatNumber(*q.Used), q.Unit)
	case q.Limit != nil:
		line = fmt.Sprintf("-/%s %s", formatNumber(*q.Limit), q.Unit)
	default:
		return "N/A"
	}

	if rl := rec.RateLimit; rl != nil && rl.ResetsAt != nil {
		remaining := time.Until(*rl.ResetsAt)
		if remaining > 0 {
			line += fmt.Sprintf("\nresets in %s", formatDuration(remaining))
		} else {
			line += "\nresets soon"
		}
	}
	return line
}

func formatSpend(rec *provider.UsageRecord) string {
	if rec == nil || rec.Cost == nil || rec.Cost.Amount == nil {
		return "N/A"
	}
	c := rec.Cost
	if c.Limit != nil {
		return fmt.Sprintf("%s / %s %s",
			formatMinorUnits(*c.Amount), formatMinorUnits(*c.Limit), c.Currency)
	}
	return fmt.Sprintf("%s %s", formatMinorUnits(*c.Amount), c.Currency)
}

func formatStatus(res provider.FetchResult) string {
	switch res.Kind {
	case provider.ResultSuccess:
		if res.Record != nil && res.Record.Inconsistent {
			return "ok (inconsistent)"
		}
		if res.Record != nil && res.Record.Stale {
			return "ok (stale)"
		}
		return "ok"
	case provider.ResultAuthRequired:
		return "needs auth"
	case provider.ResultRateLimited:
		if res.RetryAfter > 0 {
			return fmt.Sprintf("rate limited (%s)", formatDuration(res.RetryAfter))
		}
		return "rate limited"
	case provider.ResultTransient:
		return "unreachable"
	default:
		return "error"
	}
}

// formatMinorUnits renders integer cents/fen as a decimal amount.
func formatMinorUnits(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

func progressBar(percent float64) string {
	width := 10

	if percent < 0 || percent != percent {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int((percent / 100) * float64(width))
	empty := width - filled

	return fmt.Sprintf("[%s%s]",
		strings.Repeat("#", filled),
		strings.Repeat("-", empty),
	)
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", n/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return strconv.FormatFloat(n, 'f', 0, 64)
}
