package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// Thresholds for the heuristic join checks.
const (
	// cartesianRowFactor flags a probable cartesian product when actual rows
	// exceed the expected upper bound by more than 20%.
	cartesianRowFactor = 1.2

	// fragmentedKeyFactor flags a column whose distinct-value count exceeds
	// its expectation by more than 50% (e.g. whitespace variants of a key).
	fragmentedKeyFactor = 1.5

	// mergeDriftPercent flags a predicted merge size differing from the
	// expected result count by more than 10%.
	mergeDriftPercent = 10.0

	// maxDuplicateExamples bounds example key tuples shown on duplicates.
	maxDuplicateExamples = 3

	// maxValueExamples bounds example values shown on pattern violations.
	maxValueExamples = 5

	// percent converts fractions to percentages.
	percent = 100
)

// comma formats an int with thousands separators.
func comma(n int) string {
	return humanize.Comma(int64(n))
}

// CheckRowCountMatch compares the dataset's row count against an expected
// count within a relative tolerance. An expected count of zero passes
// unconditionally (nothing to compare). Drift beyond tolerance records a
// warning and fails the check.
func (c *Context) CheckRowCountMatch(
	ds *dataset.Dataset, expectedCount int, phaseName string, tolerance float64, explanation string,
) (bool, string) {
	actual := ds.Len()

	if expectedCount == 0 {
		c.recordCheck(true)

		return true, fmt.Sprintf("✓ %s: %s rows (no expected count to compare)", phaseName, comma(actual))
	}

	diff := actual - expectedCount
	if diff < 0 {
		diff = -diff
	}

	pctDiff := float64(diff) / float64(expectedCount) * percent

	if pctDiff > tolerance*percent {
		msg := fmt.Sprintf("⚠️ %s: Row count mismatch!\n", phaseName) +
			fmt.Sprintf("   Expected: %s rows (%s)\n", comma(expectedCount), explanation) +
			fmt.Sprintf("   Actual: %s rows\n", comma(actual)) +
			fmt.Sprintf("   Difference: %s rows (%.1f%%)\n", comma(diff), pctDiff) +
			fmt.Sprintf("   Threshold: %.1f%%", tolerance*percent)

		c.RecordWarning(msg)
		c.recordCheck(false)

		return false, msg
	}

	c.recordCheck(true)

	return true, fmt.Sprintf("✓ %s: Row count OK (%s rows, %.1f%% diff from expected)",
		phaseName, comma(actual), pctDiff)
}

// duplicateRows returns the rows that share a key tuple with at least one
// other row. An identifier shared by k rows contributes all k of them.
func duplicateRows(ds *dataset.Dataset, columns []string) []dataset.Row {
	counts := make(map[string]int, ds.Len())

	for _, row := range ds.Rows {
		counts[row.KeyTuple(columns)]++
	}

	var dups []dataset.Row

	for _, row := range ds.Rows {
		if counts[row.KeyTuple(columns)] > 1 {
			dups = append(dups, row)
		}
	}

	return dups
}

// formatKeyTuple renders a row's key columns like {col: value, ...}.
func formatKeyTuple(row dataset.Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s: %s", col, row.Value(col))
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// CheckNoDuplicates verifies that no two rows share a value tuple on the key
// columns. Duplicates are counted pairwise-inclusive: a key carried by k rows
// counts k, not k−1. Duplicates record an error (they are the classic
// cartesian-product symptom); missing key columns degrade to a warning.
func (c *Context) CheckNoDuplicates(
	ds *dataset.Dataset, columns []string, phaseName, description string,
) (bool, string) {
	if ds.Len() == 0 {
		c.recordCheck(true)

		return true, fmt.Sprintf("✓ %s: Empty dataset (no duplicates possible)", phaseName)
	}

	var missing []string

	for _, col := range columns {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		msg := fmt.Sprintf("⚠️ %s: Cannot check duplicates - missing columns: %v", phaseName, missing)

		c.RecordWarning(msg)
		c.recordCheck(false)

		return false, msg
	}

	dups := duplicateRows(ds, columns)

	if len(dups) > 0 {
		msg := fmt.Sprintf("⚠️ %s: Found %s duplicate rows on %v", phaseName, comma(len(dups)), columns)
		if description != "" {
			msg += fmt.Sprintf(" (%s)", description)
		}

		msg += "\n   This suggests a cartesian product or merge issue!"
		msg += "\n   Example duplicates:"

		shown := len(dups)
		if shown > maxDuplicateExamples {
			shown = maxDuplicateExamples
		}

		for _, row := range dups[:shown] {
			msg += "\n     " + formatKeyTuple(row, columns)
		}

		c.RecordError(msg)
		c.recordCheck(false)

		return false, msg
	}

	msg := fmt.Sprintf("✓ %s: No duplicates on %v", phaseName, columns)
	if description != "" {
		msg += fmt.Sprintf(" (%s)", description)
	}

	c.recordCheck(true)

	return true, msg
}

// CheckCartesianProduct flags a probable cartesian product when the actual
// row count exceeds the product of the supplied expected-unique-counts by
// more than 20%. Columns whose actual distinct-value count exceeds their
// expectation by more than 50% are independently flagged as fragmented keys.
// The product bound is a heuristic: it is only tight when the named columns
// are the actual join keys and are uncorrelated.
func (c *Context) CheckCartesianProduct(
	ds *dataset.Dataset, expectedUniqueCounts map[string]int, phaseName string,
) (bool, string) {
	actualRows := ds.Len()
	expectedMax := 1

	columns := make([]string, 0, len(expectedUniqueCounts))
	for col := range expectedUniqueCounts {
		columns = append(columns, col)
	}

	sort.Strings(columns)

	for _, col := range columns {
		if !ds.HasColumn(col) {
			continue
		}

		expectedUnique := expectedUniqueCounts[col]
		actualUnique := ds.UniqueCount(col)
		expectedMax *= expectedUnique

		if float64(actualUnique) > float64(expectedUnique)*fragmentedKeyFactor {
			msg := fmt.Sprintf("⚠️ %s: Column '%s' has %s unique values\n", phaseName, col, comma(actualUnique)) +
				fmt.Sprintf("   Expected: ~%s\n", comma(expectedUnique)) +
				fmt.Sprintf("   This is %.1fx more than expected!", float64(actualUnique)/float64(expectedUnique))

			c.RecordWarning(msg)
		}
	}

	if float64(actualRows) > float64(expectedMax)*cartesianRowFactor {
		msg := fmt.Sprintf("⚠️ %s: Possible cartesian product detected!\n", phaseName) +
			fmt.Sprintf("   Actual rows: %s\n", comma(actualRows)) +
			fmt.Sprintf("   Expected max: %s\n", comma(expectedMax)) +
			fmt.Sprintf("   Ratio: %.1fx\n", float64(actualRows)/float64(expectedMax)) +
			"   Check for merge issues!"

		c.RecordError(msg)
		c.recordCheck(false)

		return false, msg
	}

	c.recordCheck(true)

	return true, fmt.Sprintf("✓ %s: Row count suggests no cartesian product", phaseName)
}

// CheckColumnValues verifies that every non-missing value in the column
// matches the pattern. A wholly absent column is not an error: many columns
// are optional across phase variants. Violations record a warning with up to
// five distinct example values.
func (c *Context) CheckColumnValues(
	ds *dataset.Dataset, column string, pattern *regexp.Regexp, phaseName, description string,
) (bool, string) {
	if !ds.HasColumn(column) {
		c.recordCheck(true)

		return true, fmt.Sprintf("ℹ️ %s: Column '%s' not present", phaseName, column)
	}

	invalidCount := 0
	seen := make(map[string]struct{})

	var examples []string

	for _, row := range ds.Rows {
		if row.Missing(column) {
			continue
		}

		value := row.Value(column)
		if pattern.MatchString(value) {
			continue
		}

		invalidCount++

		if _, dup := seen[value]; !dup && len(examples) < maxValueExamples {
			seen[value] = struct{}{}
			examples = append(examples, value)
		}
	}

	if invalidCount > 0 {
		msg := fmt.Sprintf("⚠️ %s: Found %s invalid values in '%s'", phaseName, comma(invalidCount), column)
		if description != "" {
			msg += fmt.Sprintf(" (%s)", description)
		}

		msg += fmt.Sprintf("\n   Examples: %v", examples)

		c.RecordWarning(msg)
		c.recordCheck(false)

		return false, msg
	}

	c.recordCheck(true)

	return true, fmt.Sprintf("✓ %s: All '%s' values valid", phaseName, column)
}

// CheckMergeIntegrity predicts the row count of an inner join on mergeKeys by
// intersecting the deduplicated key sets of both sides. Duplicate keys on
// both sides (a many-to-many join) are flagged independently of row-count
// drift: that combination is the strongest predictor of an accidental
// cartesian explosion. A predicted count differing from expectedResultCount
// by more than 10% is also flagged (when the expectation is positive).
// The predicted count is returned alongside the verdict.
func (c *Context) CheckMergeIntegrity(
	left, right *dataset.Dataset, mergeKeys []string, expectedResultCount int, phaseName string,
) (bool, string, int) {
	leftKeys := keySet(left, mergeKeys)
	rightKeys := keySet(right, mergeKeys)

	predicted := 0

	for key := range leftKeys {
		if _, ok := rightKeys[key]; ok {
			predicted++
		}
	}

	leftDuplicates := len(duplicateRows(left, mergeKeys))
	rightDuplicates := len(duplicateRows(right, mergeKeys))

	var messages []string

	passed := true

	if leftDuplicates > 0 && rightDuplicates > 0 {
		msg := fmt.Sprintf("⚠️ %s: Many-to-many join detected!\n", phaseName) +
			fmt.Sprintf("   Left duplicates: %s\n", comma(leftDuplicates)) +
			fmt.Sprintf("   Right duplicates: %s\n", comma(rightDuplicates)) +
			"   Risk of cartesian product!"

		c.RecordWarning(msg)

		messages = append(messages, msg)
		passed = false
	}

	if expectedResultCount > 0 {
		diffPct := math.Abs(float64(predicted-expectedResultCount)) / float64(expectedResultCount) * percent
		if diffPct > mergeDriftPercent {
			msg := fmt.Sprintf("⚠️ %s: Predicted merge result differs from expected\n", phaseName) +
				fmt.Sprintf("   Expected: %s\n", comma(expectedResultCount)) +
				fmt.Sprintf("   Predicted: %s\n", comma(predicted)) +
				fmt.Sprintf("   Difference: %.1f%%", diffPct)

			c.RecordWarning(msg)

			messages = append(messages, msg)
			passed = false
		}
	}

	if passed {
		messages = append(messages,
			fmt.Sprintf("✓ %s: Merge integrity check passed (predicted: %s rows)", phaseName, comma(predicted)))
	}

	c.recordCheck(passed)

	return passed, strings.Join(messages, "\n"), predicted
}

// keySet returns the deduplicated set of key tuples for the given columns.
func keySet(ds *dataset.Dataset, columns []string) map[string]struct{} {
	keys := make(map[string]struct{}, ds.Len())

	for _, row := range ds.Rows {
		keys[row.KeyTuple(columns)] = struct{}{}
	}

	return keys
}
