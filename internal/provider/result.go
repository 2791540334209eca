package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ResultKind classifies the outcome of one fetch attempt.
type ResultKind string

const (
	ResultSuccess      ResultKind = "success"
	ResultAuthRequired ResultKind = "auth_required"
	ResultRateLimited  ResultKind = "rate_limited"
	ResultTransient    ResultKind = "transient_error"
	ResultPermanent    ResultKind = "permanent_error"
)

// Error is a classified fetch failure. Every non-success path through the
// strategies, HTTP layer and parsers surfaces one of these so the caller
// can distinguish "re-auth" from "back off" from "give up".
type Error struct {
	Kind       ResultKind
	RetryAfter time.Duration
	msg        string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		if e.msg == "" {
			return e.cause.Error()
		}
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Errorf builds a classified error.
func Errorf(kind ResultKind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// WrapErr classifies an underlying error without losing it.
func WrapErr(kind ResultKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// RateLimitedErr carries the provider's retry-after hint.
func RateLimitedErr(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       ResultRateLimited,
		RetryAfter: retryAfter,
		msg:        "rate limited by provider",
	}
}

// KindOf classifies an arbitrary error. Unclassified errors and context
// timeouts count as transient; explicit cancellation is permanent since
// retrying a cancelled operation is never useful.
func KindOf(err error) ResultKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return ResultPermanent
	}
	return ResultTransient
}

// RetryAfterOf extracts the retry-after hint, if the error carries one.
func RetryAfterOf(err error) time.Duration {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.RetryAfter
	}
	return 0
}

// Attempt records one strategy try, kept for diagnostics on the result.
type Attempt struct {
	Strategy StrategyKind  `json:"strategy"`
	Err      string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// FetchResult is the outcome of one (provider, fetch) pair. Exactly one of
// Record (on success) or Err (otherwise) is meaningful.
type FetchResult struct {
	ProviderID ProviderID    `json:"provider_id"`
	Kind       ResultKind    `json:"kind"`
	Record     *UsageRecord  `json:"record,omitempty"`
	Err        string        `json:"error,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Strategy   StrategyKind  `json:"strategy,omitempty"`
	Attempts   []Attempt     `json:"attempts,omitempty"`
}

// Success builds a successful result.
func Success(id ProviderID, rec *UsageRecord, via StrategyKind) FetchResult {
	return FetchResult{ProviderID: id, Kind: ResultSuccess, Record: rec, Strategy: via}
}

// Failure builds a result from a classified error.
func Failure(id ProviderID, err error) FetchResult {
	return FetchResult{
		ProviderID: id,
		Kind:       KindOf(err),
		Err:        err.Error(),
		RetryAfter: RetryAfterOf(err),
	}
}

// OK reports whether the fetch produced a usable record.
func (r FetchResult) OK() bool { return r.Kind == ResultSuccess && r.Record != nil }
