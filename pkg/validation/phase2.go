package validation

import (
	"fmt"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// Phase 2 distribution thresholds.
const (
	// minCoveragePercent: below this share of documents with at least one
	// reference, extraction is probably broken.
	minCoveragePercent = 50.0

	// minRefsPerGuideline and maxRefsPerGuideline bound the sanity band for
	// total reference counts; typical guidelines cite 50-200 sources.
	minRefsPerGuideline = 20
	maxRefsPerGuideline = 500

	// skewFactor flags one document whose reference count dwarfs the mean.
	skewFactor = 10.0
)

// ValidatePhase2 checks the reference table: a one-to-many extraction where
// many rows per source document are expected, so it validates coverage,
// distribution shape and total-count sanity rather than uniqueness.
func ValidatePhase2(c *Context, phase2, phase1 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 2: CrossRef References")

	errorsBefore := c.ErrorCount()

	var checks []bool

	expectedGuidelines := phase1.UniqueCount(ColPMID)
	actualGuidelines := phase2.UniqueCount(ColGuidelinePMID)

	coveragePct := 0.0
	if expectedGuidelines > 0 {
		coveragePct = float64(actualGuidelines) / float64(expectedGuidelines) * percent
	}

	if coveragePct < minCoveragePercent {
		msg := "⚠️ Phase 2: Low guideline coverage!\n" +
			fmt.Sprintf("   Expected guidelines: %s\n", comma(expectedGuidelines)) +
			fmt.Sprintf("   Guidelines with references: %s (%.1f%%)\n", comma(actualGuidelines), coveragePct) +
			"   Check if CrossRef extraction is working"
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)
		checks = append(checks, false)
	} else {
		c.Printf("✓ Phase 2: Guideline coverage good (%s/%s = %.1f%%)\n",
			comma(actualGuidelines), comma(expectedGuidelines), coveragePct)
		checks = append(checks, true)
	}

	c.reportMultiCited(phase2)
	checks = append(checks, true) // Multi-citation is informational, never an error.

	refsPerGuideline := phase2.GroupSizes(ColGuidelinePMID)
	stats := summarizeGroups(refsPerGuideline)

	c.Printf("\n📊 Phase 2: Reference Distribution\n")
	c.Printf("   Total references: %s\n", comma(phase2.Len()))
	c.Printf("   Guidelines with references: %s\n", comma(actualGuidelines))
	c.Printf("   Mean refs per guideline: %.1f\n", stats.Mean)
	c.Printf("   Median refs per guideline: %.0f\n", stats.Median)
	c.Printf("   Max refs per guideline: %s\n", comma(stats.Max))

	if stats.Mean > 0 && float64(stats.Max) > stats.Mean*skewFactor {
		msg := fmt.Sprintf("⚠️ Phase 2: One guideline has %s references (mean: %.0f)\n", comma(stats.Max), stats.Mean) +
			fmt.Sprintf("   This is %.1fx the average - possible duplicate issue\n", float64(stats.Max)/stats.Mean) +
			fmt.Sprintf("   Check guideline PMID: %s", stats.MaxKey)
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)
		checks = append(checks, false)
	} else {
		c.Printf("✓ Phase 2: Reference distribution looks normal\n")
		checks = append(checks, true)
	}

	checks = append(checks, c.checkTotalReferenceBand(phase2, expectedGuidelines))

	return c.finishValidator(checks, errorsBefore)
}

// reportMultiCited reports references cited multiple times within the same
// source document. This is normal (key papers are cited in several sections)
// and intentionally preserved, so the report is informational only.
func (c *Context) reportMultiCited(phase2 *dataset.Dataset) {
	refsWithDOI := phase2.Filter(func(row dataset.Row) bool {
		return !row.Missing(ColRefDOI)
	})

	pair := []string{ColGuidelinePMID, ColRefDOI}
	multiCited := len(duplicateRows(refsWithDOI, pair))

	if multiCited == 0 {
		c.Printf("\nℹ️ Phase 2: No articles cited multiple times within same guideline\n")

		return
	}

	groups := 0

	for _, count := range groupCounts(refsWithDOI, pair) {
		if count > 1 {
			groups++
		}
	}

	c.Printf("\nℹ️ Phase 2: %s references are cited multiple times within their guideline\n", comma(multiCited))
	c.Printf("   %s unique articles cited 2+ times in same guideline\n", comma(groups))
	c.Printf("   This is normal - guidelines often cite key papers in multiple sections\n")
	c.Printf("   These will be preserved in Phase 2 (shows citation importance)\n")
}

// groupCounts counts rows per composite key tuple.
func groupCounts(ds *dataset.Dataset, columns []string) map[string]int {
	counts := make(map[string]int, ds.Len())

	for _, row := range ds.Rows {
		counts[row.KeyTuple(columns)]++
	}

	return counts
}

// checkTotalReferenceBand verifies the total reference count falls inside the
// expected per-guideline band.
func (c *Context) checkTotalReferenceBand(phase2 *dataset.Dataset, expectedGuidelines int) bool {
	expectedMin := expectedGuidelines * minRefsPerGuideline
	expectedMax := expectedGuidelines * maxRefsPerGuideline
	total := phase2.Len()

	switch {
	case total < expectedMin:
		msg := "⚠️ Phase 2: Unusually low reference count\n" +
			fmt.Sprintf("   Total: %s references\n", comma(total)) +
			fmt.Sprintf("   Expected minimum: %s (%d refs/guideline)\n", comma(expectedMin), minRefsPerGuideline) +
			"   Check if extraction is working correctly"
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)

		return false
	case total > expectedMax:
		msg := "⚠️ Phase 2: Unusually high reference count\n" +
			fmt.Sprintf("   Total: %s references\n", comma(total)) +
			fmt.Sprintf("   Expected maximum: %s (%d refs/guideline)\n", comma(expectedMax), maxRefsPerGuideline) +
			"   Possible duplicate issue or extraction error"
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)

		return false
	default:
		c.Printf("✓ Phase 2: Total reference count reasonable (%s references)\n", comma(total))

		return true
	}
}
