package validation

import (
	"fmt"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// sectionRule is the horizontal rule width for validator report headers.
const sectionRule = 70

// printHeader prints a phase validator's report banner.
func (c *Context) printHeader(title string) {
	rule := make([]byte, sectionRule)
	for i := range rule {
		rule[i] = '='
	}

	c.Printf("\n%s\n%s\n%s\n", rule, title, rule)
}

// finishValidator combines the per-check verdicts with the run-wide error
// veto: a validator succeeds only if every check passed and no new error was
// recorded while it ran.
func (c *Context) finishValidator(checks []bool, errorsBefore int) bool {
	for _, passed := range checks {
		if !passed {
			return false
		}
	}

	return c.ErrorCount() == errorsBefore
}

// ValidatePhase1 checks the source-document table: one row per document,
// unique non-missing PMIDs, with flexible presence-only reporting for
// title/journal-shaped columns (header spellings vary between exports).
func ValidatePhase1(c *Context, phase1 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 1: PubMed Guidelines Collection")

	errorsBefore := c.ErrorCount()

	var checks []bool

	passed, msg := c.CheckNoDuplicates(phase1, []string{ColPMID}, "Phase 1", "Each PMID should appear once")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	if !phase1.HasColumn(ColPMID) {
		errMsg := fmt.Sprintf("❌ Phase 1: Missing critical columns: [%s]", ColPMID)
		c.Printf("%s\n", errMsg)
		c.RecordError(errMsg)
		checks = append(checks, false)
	} else {
		c.Printf("✓ Phase 1: Critical columns present (%s)\n", ColPMID)
		checks = append(checks, true)
	}

	titleCols := phase1.ColumnsContaining("title")
	if len(titleCols) == 0 {
		c.Printf("  ℹ️ No title column found (looked for columns with 'title')\n")
	} else {
		c.Printf("  ✓ Title column(s) found: %v\n", titleCols)
	}

	journalCols := phase1.ColumnsContaining("journal", "source")
	if len(journalCols) == 0 {
		c.Printf("  ℹ️ No journal column found (looked for columns with 'journal' or 'source')\n")
	} else {
		c.Printf("  ✓ Journal column(s) found: %v\n", journalCols)
	}

	nullPMIDs := phase1.Len() - phase1.NonMissingCount(ColPMID)
	if nullPMIDs > 0 {
		warnMsg := fmt.Sprintf("⚠️ Phase 1: Found %s rows with null PMIDs", comma(nullPMIDs))
		c.Printf("%s\n", warnMsg)
		c.RecordWarning(warnMsg)
		checks = append(checks, false)
	} else {
		c.Printf("✓ Phase 1: No null PMIDs\n")
		checks = append(checks, true)
	}

	return c.finishValidator(checks, errorsBefore)
}
