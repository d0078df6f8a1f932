package validation

import (
	"fmt"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// ValidatePhase7B checks the extended all-trials outputs, which widen phase 7
// to non-registered trials: the deduplicated table must be strictly larger
// than phase 7's, keyed by ref_pmid, and the citations table never smaller
// than the deduplicated one.
func ValidatePhase7B(c *Context, dedup, citations, phase7Dedup *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 7B: All Trials Analysis")

	errorsBefore := c.ErrorCount()

	var checks []bool

	expectedMin := phase7Dedup.Len()

	if dedup.Len() <= expectedMin {
		warnMsg := fmt.Sprintf("⚠️ Phase 7B: Has %s trials (same or less than Phase 7: %s)\n",
			comma(dedup.Len()), comma(expectedMin)) +
			"   Phase 7B should analyze MORE trials (including non-registered)"
		c.Printf("%s\n", warnMsg)
		c.RecordWarning(warnMsg)
		checks = append(checks, false)
	} else {
		additional := dedup.Len() - expectedMin
		c.Printf("✓ Phase 7B: Has %s trials (%s more than Phase 7)\n", comma(dedup.Len()), comma(additional))
		checks = append(checks, true)
	}

	passed, msg := c.CheckNoDuplicates(dedup, []string{ColRefPMID}, "Phase 7B (Deduplicated)",
		"Each trial reference should appear once")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	if citations.Len() < dedup.Len() {
		errMsg := fmt.Sprintf("❌ Phase 7B: Citations (%s) has FEWER rows than deduplicated (%s)!",
			comma(citations.Len()), comma(dedup.Len()))
		c.Printf("%s\n", errMsg)
		c.RecordError(errMsg)
		checks = append(checks, false)
	} else {
		c.Printf("✓ Phase 7B: Citations has %s rows (deduplicated: %s)\n",
			comma(citations.Len()), comma(dedup.Len()))
		checks = append(checks, true)
	}

	return c.finishValidator(checks, errorsBefore)
}
