package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// Phase output filenames under the pipeline output root.
const (
	FilePhase1         = "phase1_pubmed_guidelines.csv"
	FilePhase2         = "phase2_crossref_guidelines_and_references.csv"
	FilePhase3         = "phase3_references_with_trials.csv"
	FilePhase4         = "phase4_ctgov_trials_detailed.csv"
	FilePhase5         = "phase5_guidelines_summary.csv"
	FilePhase6         = "phase6_references_with_abstracts.csv"
	FilePhase7Dedup    = "phase7_trials_sex_analysis_deduplicated.csv"
	FilePhase7WithDups = "phase7_trials_sex_analysis_with_duplicates.csv"
	FilePhase7BDedup   = "phase7b_all_trials_deduplicated.csv"
	FilePhase7BCites   = "phase7b_all_trials_with_citations.csv"
)

// Runner loads every phase output from disk and runs the full validation
// sequence against it.
type Runner struct {
	ctx  *Context
	root string

	// schemas maps a phase filename to a JSON Schema applied at load time.
	// Empty unless strict-schema mode is on.
	schemas map[string][]byte
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSchemas enables strict-schema mode: each listed file is validated
// against its JSON Schema right after loading, and every violation is
// recorded as an error.
func WithSchemas(schemas map[string][]byte) RunnerOption {
	return func(r *Runner) { r.schemas = schemas }
}

// NewRunner creates a Runner reading phase outputs from root.
func NewRunner(ctx *Context, root string, opts ...RunnerOption) *Runner {
	r := &Runner{ctx: ctx, root: root}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// load reads one phase CSV, applying the file's schema when strict-schema
// mode configured one.
func (r *Runner) load(name string) (*dataset.Dataset, error) {
	ds, err := dataset.LoadCSV(filepath.Join(r.root, name))
	if err != nil {
		return nil, err
	}

	schema, ok := r.schemas[name]
	if !ok {
		return ds, nil
	}

	violations, err := ds.CheckSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("schema check %s: %w", name, err)
	}

	for _, v := range violations {
		r.ctx.RecordError(fmt.Sprintf("❌ Schema: %s row %d: %s", name, v.RowIndex, v.Detail))
	}

	return ds, nil
}

// RunAll runs every phase validation in sequence and returns the run summary.
// A missing required phase file aborts the run with an error; the 7B outputs
// are optional and skipped when absent.
func (r *Runner) RunAll() (*Summary, error) {
	c := r.ctx

	c.printHeader("RUNNING COMPREHENSIVE PIPELINE VALIDATION")
	c.Reset()

	required := []string{
		FilePhase1, FilePhase2, FilePhase3, FilePhase4,
		FilePhase5, FilePhase6, FilePhase7Dedup, FilePhase7WithDups,
	}

	tables := make(map[string]*dataset.Dataset, len(required))

	for _, name := range required {
		ds, err := r.load(name)
		if err != nil {
			c.Printf("❌ Error loading phase data: %v\n", err)

			return nil, fmt.Errorf("load phase data: %w", err)
		}

		tables[name] = ds
	}

	hasPhase7B := true

	phase7bDedup, err := r.load(FilePhase7BDedup)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load phase data: %w", err)
		}

		hasPhase7B = false

		c.Printf("\nℹ️ Phase 7B not found (optional)\n")
	}

	var phase7bCites *dataset.Dataset

	if hasPhase7B {
		phase7bCites, err = r.load(FilePhase7BCites)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load phase data: %w", err)
			}

			hasPhase7B = false

			c.Printf("\nℹ️ Phase 7B not found (optional)\n")
		}
	}

	summary := &Summary{}

	run := func(phase string, validate func() bool) {
		warningsBefore := len(c.Warnings())
		errorsBefore := c.ErrorCount()
		passed := validate()

		summary.Results = append(summary.Results, PhaseResult{
			Phase:    phase,
			Passed:   passed,
			Warnings: len(c.Warnings()) - warningsBefore,
			Errors:   c.ErrorCount() - errorsBefore,
		})
	}

	run("Phase 1", func() bool { return ValidatePhase1(c, tables[FilePhase1]) })
	run("Phase 2", func() bool { return ValidatePhase2(c, tables[FilePhase2], tables[FilePhase1]) })
	run("Phase 3", func() bool { return ValidatePhase3(c, tables[FilePhase3], tables[FilePhase2]) })
	run("Phase 4", func() bool { return ValidatePhase4(c, tables[FilePhase4], tables[FilePhase3]) })
	run("Phase 5", func() bool { return ValidatePhase5(c, tables[FilePhase5], tables[FilePhase1]) })
	run("Phase 6", func() bool { return ValidatePhase6(c, tables[FilePhase6], tables[FilePhase3]) })
	run("Phase 7", func() bool {
		return ValidatePhase7(c, tables[FilePhase7Dedup], tables[FilePhase7WithDups], tables[FilePhase4])
	})

	if hasPhase7B {
		run("Phase 7B", func() bool {
			return ValidatePhase7B(c, phase7bDedup, phase7bCites, tables[FilePhase7Dedup])
		})
	}

	summary.Warnings = append(summary.Warnings, c.Warnings()...)
	summary.Errors = append(summary.Errors, c.Errors()...)
	summary.AllPassed = summary.computeVerdict()

	r.printSummary(summary)

	return summary, nil
}

// computeVerdict folds per-phase verdicts with the error-log veto.
func (s *Summary) computeVerdict() bool {
	for _, result := range s.Results {
		if !result.Passed {
			return false
		}
	}

	return len(s.Errors) == 0
}

// printSummary prints the run-wide report: per-phase verdicts, counts, and
// the full error and warning logs.
func (r *Runner) printSummary(summary *Summary) {
	c := r.ctx

	c.printHeader("VALIDATION SUMMARY")

	for _, result := range summary.Results {
		status := "✓ PASSED"
		if !result.Passed {
			status = "⚠️ ISSUES FOUND"
		}

		c.Printf("%s: %s\n", result.Phase, status)
	}

	c.Printf("\nTotal Warnings: %d\n", len(summary.Warnings))
	c.Printf("Total Errors: %d\n", len(summary.Errors))

	if len(summary.Errors) > 0 {
		c.printHeader("CRITICAL ERRORS:")

		for _, msg := range summary.Errors {
			c.Printf("%s\n", msg)
		}
	}

	if len(summary.Warnings) > 0 {
		c.printHeader("WARNINGS:")

		for _, msg := range summary.Warnings {
			c.Printf("%s\n", msg)
		}
	}

	if summary.AllPassed {
		c.printHeader("🎉 ALL VALIDATIONS PASSED!")
	} else {
		c.printHeader("⚠️ SOME VALIDATIONS FAILED - REVIEW ABOVE")
	}
}

// Quick-check thresholds.
const (
	// quickRule is the banner width for quick checks.
	quickRule = 50

	// largeChangePercent flags a suspicious row-count swing between
	// consecutive phases.
	largeChangePercent = 50.0

	// expectedDriftPercent flags drift from a caller-supplied expectation.
	expectedDriftPercent = 10.0
)

// QuickCheck is a lightweight per-phase sanity check for use right after a
// phase completes, before the full validation run. prev may be nil and
// expectedCount negative when unknown. Returns false only for an empty table.
func QuickCheck(c *Context, phaseNum int, ds, prev *dataset.Dataset, expectedCount int) bool {
	rule := strings.Repeat("=", quickRule)

	c.Printf("\n%s\nQUICK CHECK: Phase %d\n%s\n", rule, phaseNum, rule)
	c.Printf("Rows: %s\n", comma(ds.Len()))
	c.Printf("Columns: %d\n", len(ds.Columns))

	if ds.Len() == 0 {
		c.Printf("⚠️ WARNING: Dataset is empty!\n")

		return false
	}

	if prev != nil {
		diff := ds.Len() - prev.Len()

		pctChange := 0.0
		if prev.Len() > 0 {
			pctChange = float64(diff) / float64(prev.Len()) * percent
		}

		c.Printf("Change from previous: %+d rows (%+.1f%%)\n", diff, pctChange)

		if pctChange > largeChangePercent || pctChange < -largeChangePercent {
			c.Printf("⚠️ WARNING: Large change in row count!\n")
		}
	}

	if expectedCount >= 0 {
		diff := ds.Len() - expectedCount

		pctDiff := 0.0
		if expectedCount > 0 {
			absDiff := diff
			if absDiff < 0 {
				absDiff = -absDiff
			}

			pctDiff = float64(absDiff) / float64(expectedCount) * percent
		}

		if pctDiff > expectedDriftPercent {
			c.Printf("⚠️ WARNING: %+d rows different from expected (%.1f%%)\n", diff, pctDiff)
		} else {
			c.Printf("✓ Row count matches expected (±%.1f%%)\n", pctDiff)
		}
	}

	c.Printf("%s\n\n", rule)

	return true
}
