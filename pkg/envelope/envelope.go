// Package envelope builds the standard response wrapper every tool returns.
// Verbosity tiers are strictly additive: each tier carries a superset of
// the fields of the tier below it, and a response is never mutated after
// construction.
package envelope

import (
	"fmt"
	"time"
)

// Verbosity orders the response tiers: silent < compact < diagnostic < debug.
type Verbosity int

const (
	Silent Verbosity = iota
	Compact
	Diagnostic
	Debug
)

// String returns the wire spelling of the tier.
func (v Verbosity) String() string {
	switch v {
	case Silent:
		return "silent"
	case Compact:
		return "compact"
	case Diagnostic:
		return "diagnostic"
	case Debug:
		return "debug"
	default:
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
}

// ParseVerbosity parses a wire spelling. The bool is false for unknown
// input, letting callers fall back to their configured default.
func ParseVerbosity(s string) (Verbosity, bool) {
	switch s {
	case "silent":
		return Silent, true
	case "compact":
		return Compact, true
	case "diagnostic":
		return Diagnostic, true
	case "debug":
		return Debug, true
	default:
		return Silent, false
	}
}

// Meta carries the compact-tier request accounting fields.
type Meta struct {
	Timestamp       string  `json:"timestamp"`
	RequestID       string  `json:"request_id"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	Score           float64 `json:"score"`
}

// Diagnostics carries the diagnostic-tier explanation fields.
type Diagnostics struct {
	Narrative string   `json:"narrative"`
	Warnings  []string `json:"warnings"`
	RootCause string   `json:"root_cause,omitempty"`
}

// DebugInfo carries the debug-tier raw material.
type DebugInfo struct {
	Logs       []string `json:"logs"`
	SQLQueries []string `json:"sql_queries"`
}

// Response is the outer wrapper for every tool result. Recovery is typed
// as any so the envelope stays independent of the advisor's types; it is
// only populated at diagnostic tier and above.
type Response struct {
	Success     bool         `json:"success"`
	Data        any          `json:"data"`
	Meta        *Meta        `json:"meta,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
	Debug       *DebugInfo   `json:"debug,omitempty"`
	Recovery    any          `json:"recovery,omitempty"`
}

// Options supplies the optional envelope inputs. Zero values are fine
// everywhere; Score distinguishes "not set" via the pointer.
type Options struct {
	RequestID     string
	ExecutionTime time.Duration
	Timestamp     time.Time // zero means time.Now()
	Score         *float64
	Narrative     string
	Warnings      []string
	RootCause     string
	Recovery      any
	Logs          []string
	SQLQueries    []string
}

// Build assembles a Response for one tool invocation at the requested
// verbosity tier.
func Build(success bool, data any, verbosity Verbosity, opts Options) *Response {
	resp := &Response{
		Success: success,
		Data:    data,
	}

	if verbosity < Compact {
		return resp
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	score := 0.0
	if success {
		score = 1.0
	}
	if opts.Score != nil {
		score = *opts.Score
	}
	resp.Meta = &Meta{
		Timestamp:       ts.UTC().Format(time.RFC3339),
		RequestID:       opts.RequestID,
		ExecutionTimeMs: float64(opts.ExecutionTime.Microseconds()) / 1000.0,
		Score:           score,
	}

	if verbosity < Diagnostic {
		return resp
	}

	narrative := opts.Narrative
	if narrative == "" {
		if success {
			narrative = "The operation completed successfully."
		} else {
			narrative = "The operation failed; see errors and recovery for next steps."
		}
	}
	warnings := opts.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	resp.Diagnostics = &Diagnostics{
		Narrative: narrative,
		Warnings:  warnings,
		RootCause: opts.RootCause,
	}
	resp.Recovery = opts.Recovery

	if verbosity < Debug {
		return resp
	}

	logs := opts.Logs
	if logs == nil {
		logs = []string{}
	}
	queries := opts.SQLQueries
	if queries == nil {
		queries = []string{}
	}
	resp.Debug = &DebugInfo{
		Logs:       logs,
		SQLQueries: queries,
	}

	return resp
}
