package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// Phase 3 thresholds.
const (
	// impossibleCitationRatio: each unique reference appears in at least one
	// citation row, so a ratio below 1.0 means the table is corrupt.
	impossibleCitationRatio = 1.0

	// highCitationRatio: above this, some references are cited by many
	// documents. Can be real (landmark trials), so informational only.
	highCitationRatio = 5.0

	// Plausibility band for the publication-type trial rate across unique
	// references. Outside it the classification logic deserves a look.
	minTrialRatePercent = 1.0
	maxTrialRatePercent = 60.0

	// multiNCTInfoThreshold: a row with at least this many distinct
	// identifiers is reported as a multi-trial article (reviews,
	// meta-analyses), never flagged.
	multiNCTInfoThreshold = 10

	// maxSuspiciousExamples bounds example rows shown for malformed
	// identifier strings.
	maxSuspiciousExamples = 5

	// maxTopMultiNCT bounds the multi-trial article leaderboard.
	maxTopMultiNCT = 10
)

// citationRow carries the per-row classification derived during phase 3
// validation: parsed identifiers plus the three non-exclusive trial flags.
type citationRow struct {
	GuidelinePMID string
	RefPMID       string
	ParsedNCTs    []string

	// IsClinicalTrial is the PubMed publication-type flag.
	IsClinicalTrial bool

	// HasNCT is the identifier-linkage flag.
	HasNCT bool

	// ForAnalysis is the analysis-universe flag: IsClinicalTrial OR HasNCT.
	ForAnalysis bool

	// RawNCTText is the concatenated raw identifier fields, used for
	// malformed-pattern detection.
	RawNCTText string
}

// classifyCitations derives the per-row trial classification for the table.
// A missing publication-type column degrades to all-false with a warning.
func classifyCitations(c *Context, phase3 *dataset.Dataset) []citationRow {
	if !phase3.HasColumn(ColIsClinicalTrial) {
		msg := "⚠️ Phase 3: Missing 'is_clinical_trial' column; defaulting to False for validation."
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)
	}

	rows := make([]citationRow, 0, phase3.Len())

	for _, row := range phase3.Rows {
		parsed := ExtractNCTs(row.Value(ColAllNCTNumbers), row.Value(ColNCTNumber))

		cr := citationRow{
			GuidelinePMID:   row.Value(ColGuidelinePMID),
			RefPMID:         row.Value(ColRefPMID),
			ParsedNCTs:      parsed,
			IsClinicalTrial: row.Bool(ColIsClinicalTrial),
			HasNCT:          len(parsed) > 0,
			RawNCTText:      row.Value(ColAllNCTNumbers) + fieldSeparator + row.Value(ColNCTNumber),
		}
		cr.ForAnalysis = cr.IsClinicalTrial || cr.HasNCT

		rows = append(rows, cr)
	}

	return rows
}

// ValidatePhase3 checks the citation-level trial-identification table: one
// row per (guideline, reference) pair, with per-row identifier parsing and
// the three-way trial classification (publication-type flag, identifier
// linkage, and their union as the analysis universe).
func ValidatePhase3(c *Context, phase3, phase2 *dataset.Dataset) bool {
	c.printHeader("VALIDATING PHASE 3: Clinical Trial Identification (multi-NCT + NCT flags)")

	errorsBefore := c.ErrorCount()

	var checks []bool

	expectedCount := phase2.NonMissingCount(ColRefPMID)

	c.Printf("\nℹ️ Baseline row counts:\n")
	c.Printf("  Phase 2 total rows:           %s\n", comma(phase2.Len()))
	c.Printf("  Phase 2 rows WITH ref_pmid:   %s\n", comma(expectedCount))
	c.Printf("  Phase 3 citation rows:        %s\n", comma(phase3.Len()))

	if expectedCount > 0 {
		diff := phase3.Len() - expectedCount
		pct := float64(diff) / float64(expectedCount) * percent
		c.Printf("  Difference (Phase3 - Phase2): %+d rows (%+.1f%%)\n", diff, pct)
	}

	passed, msg := c.CheckRowCountMatch(phase3, expectedCount, "Phase 3", ToleranceNormal,
		"should approximately match Phase 2 rows with PMIDs (may be slightly less due to cleaning)")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	c.Printf("\n📦 Structure checks:\n")

	structureOK, structureChecks := c.checkPhase3Structure(phase3)
	checks = append(checks, structureChecks...)

	if !structureOK {
		// Without the composite key the remaining checks are meaningless.
		return false
	}

	passed, msg = c.CheckNoDuplicates(phase3, []string{ColGuidelinePMID, ColRefPMID}, "Phase 3",
		"Each guideline–reference pair should be unique (cartesian products show up here)")
	c.Printf("%s\n", msg)
	checks = append(checks, passed)

	rows := classifyCitations(c, phase3)

	checks = append(checks, c.checkCitationRatio(phase3, rows)...)
	checks = append(checks, c.reportTrialClassification(phase3, rows)...)
	checks = append(checks, c.checkNCTFields(phase3, rows)...)
	checks = append(checks, c.checkNCTDuplicationWithinPMID(rows))

	c.reportMultiNCTArticles(rows)
	checks = append(checks, true)

	c.reportNCTWithoutTrialLabel(rows)
	checks = append(checks, true)

	c.reportGuidelineTrialCoverage(rows)
	checks = append(checks, true)

	ok := c.finishValidator(checks, errorsBefore)

	rule := strings.Repeat("-", sectionRule)
	if ok {
		c.Printf("\n%s\n✓ Phase 3 validation complete (no critical errors).\n%s\n", rule, rule)
	} else {
		c.Printf("\n%s\n⚠️ Phase 3 validation found issues (review warnings/errors above).\n%s\n", rule, rule)
	}

	return ok
}

// checkPhase3Structure verifies the citation-level column layout. The
// returned bool is false when required columns are absent entirely.
func (c *Context) checkPhase3Structure(phase3 *dataset.Dataset) (bool, []bool) {
	var checks []bool

	required := []string{ColGuidelinePMID, ColRefPMID}

	var missing []string

	for _, col := range required {
		if !phase3.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		msg := fmt.Sprintf("❌ Phase 3: Missing required columns: %v", missing)
		c.Printf("%s\n", msg)
		c.RecordError(msg)

		return false, append(checks, false)
	}

	c.Printf("  ✓ Required columns present: %v\n", required)
	checks = append(checks, true)

	if phase3.HasColumn(ColGuidelinePMIDs) {
		msg := "⚠️ Phase 3: Found column 'guideline_pmids' (plural).\n" +
			"   This suggests a unique-ref structure rather than citation-level structure.\n" +
			"   Expected 'guideline_pmid' (singular) per row."
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)
		// Treated as a failed check: it breaks downstream assumptions.
		checks = append(checks, false)
	} else {
		c.Printf("  ✓ No 'guideline_pmids' column (consistent with citation-level structure)\n")
		checks = append(checks, true)
	}

	return true, checks
}

// checkCitationRatio validates citations-per-unique-reference. Below 1.0 is
// structurally impossible (data corruption); above 5.0 is plausible and only
// reported. The ratio is computed from the table under check, so this is a
// consistency assertion, not a structural proof.
func (c *Context) checkCitationRatio(phase3 *dataset.Dataset, rows []citationRow) []bool {
	var checks []bool

	uniqueRefs := phase3.UniqueCount(ColRefPMID)
	uniqueGuidelines := phase3.UniqueCount(ColGuidelinePMID)

	ratio := 0.0
	if uniqueRefs > 0 {
		ratio = float64(len(rows)) / float64(uniqueRefs)
	}

	c.Printf("\n📊 Citation statistics:\n")
	c.Printf("  Total citation rows:         %s\n", comma(len(rows)))
	c.Printf("  Unique ref_pmid:             %s\n", comma(uniqueRefs))
	c.Printf("  Unique guideline_pmid:       %s\n", comma(uniqueGuidelines))
	c.Printf("  Citations per reference avg: %.2f\n", ratio)

	switch {
	case ratio < impossibleCitationRatio:
		msg := fmt.Sprintf("❌ Phase 3: Citation ratio < 1.0 (%.2f) - impossible (data corruption likely).", ratio)
		c.Printf("%s\n", msg)
		c.RecordError(msg)
		checks = append(checks, false)
	case ratio > highCitationRatio:
		c.Printf("ℹ️ Phase 3: High citations/reference ratio (%.2fx). "+
			"Some references may be cited by many guidelines; not necessarily a problem.\n", ratio)
		checks = append(checks, true)
	default:
		c.Printf("  ✓ Citation ratio looks reasonable\n")
		checks = append(checks, true)
	}

	return checks
}

// uniqueRefsWhere counts distinct non-missing RefPMIDs among rows passing the
// predicate.
func uniqueRefsWhere(rows []citationRow, keep func(citationRow) bool) int {
	seen := make(map[string]struct{})

	for _, row := range rows {
		if row.RefPMID == "" || !keep(row) {
			continue
		}

		seen[row.RefPMID] = struct{}{}
	}

	return len(seen)
}

// countWhere counts rows passing the predicate.
func countWhere(rows []citationRow, keep func(citationRow) bool) int {
	count := 0

	for _, row := range rows {
		if keep(row) {
			count++
		}
	}

	return count
}

// reportTrialClassification prints the three-way classification stats and
// applies the plausibility band to the publication-type rate.
func (c *Context) reportTrialClassification(phase3 *dataset.Dataset, rows []citationRow) []bool {
	var checks []bool

	uniqueRefs := phase3.UniqueCount(ColRefPMID)

	ctRows := countWhere(rows, func(r citationRow) bool { return r.IsClinicalTrial })
	ctRefs := uniqueRefsWhere(rows, func(r citationRow) bool { return r.IsClinicalTrial })
	nctRows := countWhere(rows, func(r citationRow) bool { return r.HasNCT })
	nctRefs := uniqueRefsWhere(rows, func(r citationRow) bool { return r.HasNCT })
	analysisRows := countWhere(rows, func(r citationRow) bool { return r.ForAnalysis })
	analysisRefs := uniqueRefsWhere(rows, func(r citationRow) bool { return r.ForAnalysis })

	pct := func(part int) float64 {
		if uniqueRefs == 0 {
			return 0
		}

		return float64(part) / float64(uniqueRefs) * percent
	}

	c.Printf("\n🧪 Trial classification vs NCT linkage:\n")
	c.Printf("  PubMed-labeled clinical trial (is_clinical_trial=True):\n")
	c.Printf("    - Citation rows: %s\n", comma(ctRows))
	c.Printf("    - Unique refs:   %s (%.1f%% of unique refs)\n", comma(ctRefs), pct(ctRefs))
	c.Printf("  NCT-linked articles (has_nct=True):\n")
	c.Printf("    - Citation rows: %s\n", comma(nctRows))
	c.Printf("    - Unique refs:   %s (%.1f%% of unique refs)\n", comma(nctRefs), pct(nctRefs))
	c.Printf("  Analysis trial universe (is_clinical_trial OR has_nct):\n")
	c.Printf("    - Citation rows: %s\n", comma(analysisRows))
	c.Printf("    - Unique refs:   %s (%.1f%% of unique refs)\n", comma(analysisRefs), pct(analysisRefs))

	if uniqueRefs == 0 {
		return checks
	}

	ctPct := pct(ctRefs)

	switch {
	case ctPct < minTrialRatePercent:
		c.Printf("ℹ️ Phase 3: Very low PubMed-labeled clinical trial rate (%.1f%%). This can be normal.\n", ctPct)
		checks = append(checks, true)
	case ctPct > maxTrialRatePercent:
		msg := fmt.Sprintf("⚠️ Phase 3: Very high PubMed-labeled clinical trial rate (%.1f%%). "+
			"Check classification logic.", ctPct)
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)
		checks = append(checks, false)
	default:
		c.Printf("  ✓ PubMed clinical trial rate looks plausible\n")
		checks = append(checks, true)
	}

	return checks
}

// checkNCTFields scans the raw identifier fields for NCT-shaped strings with
// the wrong digit count (truncation/concatenation artifacts).
func (c *Context) checkNCTFields(phase3 *dataset.Dataset, rows []citationRow) []bool {
	var checks []bool

	c.Printf("\n🔎 NCT format + duplication checks:\n")

	if !phase3.HasColumn(ColAllNCTNumbers) && !phase3.HasColumn(ColNCTNumber) {
		c.Printf("  ℹ️ No NCT columns found to validate (nct_number / all_nct_numbers missing).\n")

		return append(checks, true)
	}

	suspicious := 0

	var examples []string

	for _, row := range rows {
		if !HasMalformedNCT(row.RawNCTText) {
			continue
		}

		suspicious++

		if len(examples) < maxSuspiciousExamples {
			examples = append(examples, fmt.Sprintf("(%s, %s)", row.GuidelinePMID, row.RefPMID))
		}
	}

	if suspicious > 0 {
		msg := fmt.Sprintf("⚠️ Phase 3: Found %s rows with suspicious NCT-like strings (e.g., wrong length).\n",
			comma(suspicious)) +
			fmt.Sprintf("   Examples (guideline_pmid, ref_pmid): %s", strings.Join(examples, " "))
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)
		checks = append(checks, false)
	} else {
		c.Printf("  ✓ No suspicious NCT-like strings found in raw NCT fields\n")
		checks = append(checks, true)
	}

	return checks
}

// checkNCTDuplicationWithinPMID flags the same identifier appearing twice for
// the same cited item, a merge-duplication signal.
func (c *Context) checkNCTDuplicationWithinPMID(rows []citationRow) bool {
	pairs := 0
	seen := make(map[string]struct{})

	for _, row := range rows {
		if row.RefPMID == "" {
			continue
		}

		for _, nct := range row.ParsedNCTs {
			pairs++

			seen[row.RefPMID+"\x1f"+nct] = struct{}{}
		}
	}

	if pairs == 0 {
		c.Printf("  ℹ️ No parsed NCTs to check for within-PMID duplication.\n")

		return true
	}

	duplicates := pairs - len(seen)

	if duplicates > 0 {
		msg := fmt.Sprintf("⚠️ Phase 3: Found %s duplicate NCTs within the same PMID.\n", comma(duplicates)) +
			"   This may indicate merge duplication or concatenation artifacts."
		c.Printf("%s\n", msg)
		c.RecordWarning(msg)

		return false
	}

	c.Printf("  ✓ No duplicate NCTs within the same PMID (good)\n")

	return true
}

// reportMultiNCTArticles lists references carrying many identifiers.
// Expected for reviews and meta-analyses, so informational only.
func (c *Context) reportMultiNCTArticles(rows []citationRow) {
	maxPerRef := make(map[string]int)

	for _, row := range rows {
		if row.RefPMID == "" {
			continue
		}

		if len(row.ParsedNCTs) > maxPerRef[row.RefPMID] {
			maxPerRef[row.RefPMID] = len(row.ParsedNCTs)
		}
	}

	multiRefs := 0

	for _, count := range maxPerRef {
		if count >= multiNCTInfoThreshold {
			multiRefs++
		}
	}

	if multiRefs == 0 {
		c.Printf("\nℹ️ No references with ≥%d NCTs parsed.\n", multiNCTInfoThreshold)

		return
	}

	type refCount struct {
		ref   string
		count int
	}

	top := make([]refCount, 0, len(maxPerRef))
	for ref, count := range maxPerRef {
		top = append(top, refCount{ref: ref, count: count})
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].count != top[j].count {
			return top[i].count > top[j].count
		}

		return top[i].ref < top[j].ref
	})

	if len(top) > maxTopMultiNCT {
		top = top[:maxTopMultiNCT]
	}

	c.Printf("\nℹ️ Multi-NCT articles (expected with reviews/meta-analyses):\n")
	c.Printf("  Unique references with ≥%d NCTs: %s\n", multiNCTInfoThreshold, comma(multiRefs))
	c.Printf("  Top references by parsed NCT count (max per PMID):\n")

	for _, entry := range top {
		c.Printf("    %s: %d\n", entry.ref, entry.count)
	}
}

// reportNCTWithoutTrialLabel reports identifier-linked rows that lack the
// publication-type label. Expected for reviews, meta-analyses, pooled
// analyses and secondary reports.
func (c *Context) reportNCTWithoutTrialLabel(rows []citationRow) {
	mismatchRows := countWhere(rows, func(r citationRow) bool { return r.HasNCT && !r.IsClinicalTrial })

	if mismatchRows == 0 {
		c.Printf("\n✓ No NCT-linked rows where is_clinical_trial=False (fine, but not required).\n")

		return
	}

	mismatchRefs := uniqueRefsWhere(rows, func(r citationRow) bool { return r.HasNCT && !r.IsClinicalTrial })

	c.Printf("\nℹ️ NCT-linked but not PubMed-labeled Clinical Trial:\n")
	c.Printf("  Citation rows: %s\n", comma(mismatchRows))
	c.Printf("  Unique refs:   %s\n", comma(mismatchRefs))
	c.Printf("  This is expected for reviews, meta-analyses, pooled analyses, and secondary reports.\n")
}

// reportGuidelineTrialCoverage reports how many source documents cite at
// least one analysis-universe reference. Not all documents cite trials, so
// informational only.
func (c *Context) reportGuidelineTrialCoverage(rows []citationRow) {
	total := make(map[string]struct{})
	withTrials := make(map[string]struct{})

	for _, row := range rows {
		if row.GuidelinePMID == "" {
			continue
		}

		total[row.GuidelinePMID] = struct{}{}

		if row.ForAnalysis {
			withTrials[row.GuidelinePMID] = struct{}{}
		}
	}

	coverage := 0.0
	if len(total) > 0 {
		coverage = float64(len(withTrials)) / float64(len(total)) * percent
	}

	c.Printf("\n📊 Guideline coverage:\n")
	c.Printf("  Guidelines total:                      %s\n", comma(len(total)))
	c.Printf("  Guidelines citing trial-universe refs: %s (%.1f%%)\n", comma(len(withTrials)), coverage)
	c.Printf("  (trial-universe = is_clinical_trial OR has_nct)\n")
}
