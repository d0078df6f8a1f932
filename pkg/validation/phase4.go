package validation

import "github.com/trialpipe/trialpipe/pkg/dataset"

// ValidatePhase4 checks the trial-detail table: one row per unique registry
// identifier from phase 3, with strictly formatted identifiers.
func ValidatePhase4(c *Context, phase4, phase3 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 4: ClinicalTrials.gov Details")

	errorsBefore := c.ErrorCount()

	var checks []bool

	expectedCount := 0
	if phase3.HasColumn(ColNCTNumber) {
		expectedCount = phase3.UniqueCount(ColNCTNumber)
	}

	passed, msg := c.CheckNoDuplicates(phase4, []string{ColNCTNumber}, "Phase 4",
		"Each trial should appear once")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	passed, msg = c.CheckRowCountMatch(phase4, expectedCount, "Phase 4", ToleranceNormal,
		"should match unique NCT numbers from Phase 3")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	passed, msg = c.CheckColumnValues(phase4, ColNCTNumber, NCTFormat, "Phase 4",
		"NCT numbers should be NCT########")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	return c.finishValidator(checks, errorsBefore)
}
