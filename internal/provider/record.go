package provider

import (
	"fmt"
	"time"
)

// Quota is a consumable allowance: requests, tokens, percent of window.
type Quota struct {
	Used  *float64 `json:"used,omitempty"`
	Limit *float64 `json:"limit,omitempty"`
	Unit  string   `json:"unit"`
}

// Cost is spend expressed in integer minor units (cents, fen) so repeated
// fetches never accumulate float rounding drift.
type Cost struct {
	Amount   *int64 `json:"amount,omitempty"`
	Limit    *int64 `json:"limit,omitempty"`
	Currency string `json:"currency"`
}

// RateWindow describes the provider's own rate-limit window state.
type RateWindow struct {
	ResetsAt  *time.Time `json:"resets_at,omitempty"`
	Remaining *float64   `json:"remaining,omitempty"`
	Label     string     `json:"label,omitempty"`
}

// UsageRecord is the normalized, provider-agnostic usage model. Quota and
// Cost are both optional since not every provider exposes both.
type UsageRecord struct {
	ProviderID ProviderID  `json:"provider_id"`
	CapturedAt time.Time   `json:"captured_at"`
	Quota      *Quota      `json:"quota,omitempty"`
	Cost       *Cost       `json:"cost,omitempty"`
	RateLimit  *RateWindow `json:"rate_limit,omitempty"`
	Plan       string      `json:"plan,omitempty"`

	// Inconsistent marks records where used exceeds limit; such records
	// are kept, not rejected.
	Inconsistent bool `json:"inconsistent,omitempty"`

	// Stale marks records older than the freshness threshold.
	Stale bool `json:"stale,omitempty"`
}

// Validate enforces the record invariants: numeric fields non-negative,
// and used <= limit where both are present (a violation flags the record
// inconsistent rather than rejecting it).
func (r *UsageRecord) Validate() error {
	if r.ProviderID == "" {
		return fmt.Errorf("usage record without provider id")
	}
	if q := r.Quota; q != nil {
		if q.Used != nil && *q.Used < 0 {
			return fmt.Errorf("quota used %v is negative", *q.Used)
		}
		if q.Limit != nil && *q.Limit < 0 {
			return fmt.Errorf("quota limit %v is negative", *q.Limit)
		}
		if q.Used != nil && q.Limit != nil && *q.Used > *q.Limit {
			r.Inconsistent = true
		}
	}
	if c := r.Cost; c != nil {
		if c.Amount != nil && *c.Amount < 0 {
			return fmt.Errorf("cost amount %d is negative", *c.Amount)
		}
		if c.Limit != nil && *c.Limit < 0 {
			return fmt.Errorf("cost limit %d is negative", *c.Limit)
		}
		if c.Amount != nil && c.Limit != nil && *c.Amount > *c.Limit {
			r.Inconsistent = true
		}
	}
	if r.RateLimit != nil && r.RateLimit.Remaining != nil && *r.RateLimit.Remaining < 0 {
		return fmt.Errorf("rate window remaining %v is negative", *r.RateLimit.Remaining)
	}
	return nil
}

// MarkStale sets the staleness flag when the record is older than threshold.
func (r *UsageRecord) MarkStale(now time.Time, threshold time.Duration) {
	if threshold > 0 && now.Sub(r.CapturedAt) > threshold {
		r.Stale = true
	}
}
