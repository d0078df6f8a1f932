package validation

import "github.com/trialpipe/trialpipe/pkg/dataset"

// ValidatePhase5 checks the per-document summary table: exactly one row per
// source document from phase 1, so the strict tolerance applies.
func ValidatePhase5(c *Context, phase5, phase1 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 5: Guidelines Summary")

	errorsBefore := c.ErrorCount()

	var checks []bool

	passed, msg := c.CheckRowCountMatch(phase5, phase1.Len(), "Phase 5", ToleranceStrict,
		"should have one row per guideline from Phase 1")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	passed, msg = c.CheckNoDuplicates(phase5, []string{ColPMID}, "Phase 5",
		"Each guideline should appear once")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	return c.finishValidator(checks, errorsBefore)
}
