// Package validation detects structural corruption in pipeline phase
// outputs: duplicate keys, cartesian-product blowups from faulty joins,
// row-count drift and malformed identifiers. Checks are dynamic and
// threshold-relative; nothing is hard-coded to a particular corpus size.
package validation

import (
	"fmt"
	"io"
	"os"

	"github.com/trialpipe/trialpipe/pkg/observability"
)

// Tolerance bands for row-count comparisons.
const (
	// ToleranceStrict is for phases that should match exactly.
	ToleranceStrict = 0.01

	// ToleranceNormal is for phases with some expected variation.
	ToleranceNormal = 0.05

	// ToleranceLoose is for phases with more variation.
	ToleranceLoose = 0.10
)

// Context accumulates warnings and errors across checks for one validation
// run. It replaces process-wide mutable logs: callers own the instance, so
// isolated or parallel runs need no manual global resets. A validator
// invoked standalone accumulates onto whatever Context it is handed.
type Context struct {
	out      io.Writer
	warnings []string
	errors   []string
	metrics  *observability.Metrics
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithOutput redirects human-readable check output (default os.Stdout).
func WithOutput(out io.Writer) ContextOption {
	return func(c *Context) { c.out = out }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(metrics *observability.Metrics) ContextOption {
	return func(c *Context) { c.metrics = metrics }
}

// NewContext creates an empty validation context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{out: os.Stdout}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Reset clears both logs for a fresh run.
func (c *Context) Reset() {
	c.warnings = nil
	c.errors = nil
}

// Warnings returns the recorded warnings in order.
func (c *Context) Warnings() []string {
	return c.warnings
}

// Errors returns the recorded errors in order.
func (c *Context) Errors() []string {
	return c.errors
}

// ErrorCount returns the number of recorded errors. Validators snapshot it
// before running their checklist: any new error during execution vetoes the
// validator's verdict even if every individual check passed.
func (c *Context) ErrorCount() int {
	return len(c.errors)
}

// RecordWarning appends a warning to the run log.
func (c *Context) RecordWarning(msg string) {
	c.warnings = append(c.warnings, msg)

	if c.metrics != nil {
		c.metrics.WarningsTotal.Inc()
	}
}

// RecordError appends an error to the run log. Any recorded error vetoes
// overall run success regardless of per-check verdicts.
func (c *Context) RecordError(msg string) {
	c.errors = append(c.errors, msg)

	if c.metrics != nil {
		c.metrics.ErrorsTotal.Inc()
	}
}

// recordCheck counts a check execution by result.
func (c *Context) recordCheck(passed bool) {
	if c.metrics == nil {
		return
	}

	result := "pass"
	if !passed {
		result = "fail"
	}

	c.metrics.ChecksTotal.WithLabelValues(result).Inc()
}

// Printf writes human-readable output for the operator. Console output is
// informational only; the logs and returned booleans carry the verdict.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
