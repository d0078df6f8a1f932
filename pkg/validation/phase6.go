package validation

import "github.com/trialpipe/trialpipe/pkg/dataset"

// ValidatePhase6 checks the abstract-enriched citation table: an in-place
// enrichment of phase 3, so row counts must match exactly and the citation
// key must stay unique. Abstract coverage is reported but never judged.
func ValidatePhase6(c *Context, phase6, phase3 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 6: References with Abstracts")

	errorsBefore := c.ErrorCount()

	var checks []bool

	passed, msg := c.CheckRowCountMatch(phase6, phase3.Len(), "Phase 6", ToleranceStrict,
		"should have same rows as Phase 3 (just with abstracts added)")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	passed, msg = c.CheckNoDuplicates(phase6, []string{ColGuidelinePMID, ColRefPMID}, "Phase 6",
		"Each guideline-reference pair should be unique")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	if phase6.HasColumn(ColArticleAbstract) && phase6.Len() > 0 {
		coverage := float64(phase6.NonMissingCount(ColArticleAbstract)) / float64(phase6.Len()) * percent
		c.Printf("ℹ️ Phase 6: Abstract coverage: %.1f%%\n", coverage)
	}

	return c.finishValidator(checks, errorsBefore)
}
