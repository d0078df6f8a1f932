package validation

import (
	"fmt"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// maxTrialCitationRatio: typical trials are cited 1-5 times; above this the
// with-duplicates table likely absorbed a cartesian product during a merge.
const maxTrialCitationRatio = 10.0

// ValidatePhase7 checks the two sex-analysis outputs: the deduplicated table
// (one row per trial, matching phase 4's unique identifiers) and the
// with-duplicates table (one row per citation, so never smaller).
func ValidatePhase7(c *Context, dedup, withDups, phase4 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 7: Sex Analysis")

	errorsBefore := c.ErrorCount()

	var checks []bool

	expectedUnique := phase4.UniqueCount(ColNCTNumber)

	c.Printf("\nℹ️ Phase 7 Baseline:\n")
	c.Printf("  Phase 4 total rows: %s\n", comma(phase4.Len()))
	c.Printf("  Phase 4 UNIQUE NCT numbers: %s\n", comma(expectedUnique))
	c.Printf("  Phase 7 deduplicated rows: %s\n", comma(dedup.Len()))
	c.Printf("  Phase 7 with-duplicates rows: %s\n", comma(withDups.Len()))

	passed, msg := c.CheckNoDuplicates(dedup, []string{ColNCTNumber}, "Phase 7 (Deduplicated)",
		"Each trial should appear once")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	passed, msg = c.CheckRowCountMatch(dedup, expectedUnique, "Phase 7 (Deduplicated)", ToleranceNormal,
		"should match unique NCT numbers from Phase 4")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	if withDups.Len() < dedup.Len() {
		errMsg := fmt.Sprintf("❌ Phase 7: With-duplicates (%s) has FEWER rows than deduplicated (%s)!",
			comma(withDups.Len()), comma(dedup.Len()))
		c.Printf("%s\n", errMsg)
		c.RecordError(errMsg)
		checks = append(checks, false)
	} else {
		c.Printf("✓ Phase 7: With-duplicates has %s rows (deduplicated: %s)\n",
			comma(withDups.Len()), comma(dedup.Len()))
		checks = append(checks, true)
	}

	passed, msg = c.CheckColumnValues(withDups, ColNCTNumber, NCTFormat, "Phase 7 (With Citations)",
		"NCT numbers should be valid")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	ratio := 0.0
	if dedup.Len() > 0 {
		ratio = float64(withDups.Len()) / float64(dedup.Len())
	}

	c.Printf("\n📊 Phase 7: Citation Statistics\n")
	c.Printf("  Citation ratio: %.2fx\n", ratio)
	c.Printf("  Average citations per trial: %.1f\n", ratio)

	if ratio > maxTrialCitationRatio {
		warnMsg := fmt.Sprintf("⚠️ Phase 7: Citation ratio very high (%.1fx)\n", ratio) +
			"   Possible cartesian product in merge!"
		c.Printf("%s\n", warnMsg)
		c.RecordWarning(warnMsg)
		checks = append(checks, false)
	} else {
		c.Printf("  ✓ Citation ratio looks reasonable\n")
		checks = append(checks, true)
	}

	return c.finishValidator(checks, errorsBefore)
}
