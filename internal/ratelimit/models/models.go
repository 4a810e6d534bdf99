// Package models holds the rate limit value types shared by the stores and
// the HTTP middleware.
package models

import (
	"strings"
	"time"
)

// Class groups routes that share one limit.
type Class string

const (
	// ClassAuth covers wallet challenge and token issuance, keyed by client IP.
	ClassAuth Class = "auth"
	// ClassEndorse covers endorsement submission, keyed by the authenticated holder.
	ClassEndorse Class = "endorse"
	// ClassWrite covers the remaining mutations, keyed by the authenticated holder.
	ClassWrite Class = "write"
)

// Limit is a sliding window allowance.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds; zero when allowed
}

// ExceededResponse is the body written with a 429.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// SanitizeKeySegment escapes the key delimiter so a caller-controlled
// segment cannot spill into a neighbouring bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewKey builds the bucket key for one class and identifier, e.g. "rl:endorse:holder:0xabc".
func NewKey(class Class, kind, identifier string) string {
	return "rl:" + string(class) + ":" + kind + ":" + SanitizeKeySegment(identifier)
}
