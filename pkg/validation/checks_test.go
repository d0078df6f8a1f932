package validation

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

func quietContext() *Context {
	return NewContext(WithOutput(io.Discard))
}

func idRows(column string, values ...string) *dataset.Dataset {
	ds := dataset.New(column)

	for _, v := range values {
		ds.Append(dataset.Row{column: v})
	}

	return ds
}

func TestCheckRowCountMatch_WithinTolerance(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := dataset.New("PMID")

	for i := range 105 {
		ds.Append(dataset.Row{"PMID": fmt.Sprintf("%d", i)})
	}

	passed, _ := c.CheckRowCountMatch(ds, 100, "Phase X", ToleranceNormal, "test")

	assert.True(t, passed)
	assert.Empty(t, c.Warnings())
}

func TestCheckRowCountMatch_BeyondTolerance(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := dataset.New("PMID")

	for i := range 106 {
		ds.Append(dataset.Row{"PMID": fmt.Sprintf("%d", i)})
	}

	passed, msg := c.CheckRowCountMatch(ds, 100, "Phase X", ToleranceNormal, "test")

	assert.False(t, passed)
	assert.Contains(t, msg, "Row count mismatch")
	assert.Len(t, c.Warnings(), 1)
}

func TestCheckRowCountMatch_ZeroExpectedPasses(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := idRows("PMID", "1", "2")

	passed, _ := c.CheckRowCountMatch(ds, 0, "Phase X", ToleranceStrict, "test")

	assert.True(t, passed)
}

func TestCheckNoDuplicates_CountsAllDuplicateRows(t *testing.T) {
	t.Parallel()

	c := quietContext()
	// "1" appears three times: all three rows count as duplicates.
	ds := idRows("PMID", "1", "1", "1", "2")

	passed, msg := c.CheckNoDuplicates(ds, []string{"PMID"}, "Phase X", "unique ids")

	assert.False(t, passed)
	assert.Contains(t, msg, "Found 3 duplicate rows")
	require.Len(t, c.Errors(), 1)
}

func TestCheckNoDuplicates_CompositeKey(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := dataset.New("guideline_pmid", "ref_pmid")

	ds.Append(dataset.Row{"guideline_pmid": "1", "ref_pmid": "9"})
	ds.Append(dataset.Row{"guideline_pmid": "1", "ref_pmid": "8"})
	ds.Append(dataset.Row{"guideline_pmid": "2", "ref_pmid": "9"})

	passed, _ := c.CheckNoDuplicates(ds, []string{"guideline_pmid", "ref_pmid"}, "Phase X", "")

	assert.True(t, passed)
	assert.Empty(t, c.Errors())
}

func TestCheckNoDuplicates_MissingColumnWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := idRows("other", "1")

	passed, msg := c.CheckNoDuplicates(ds, []string{"PMID"}, "Phase X", "")

	assert.False(t, passed)
	assert.Contains(t, msg, "missing columns")
	assert.Len(t, c.Warnings(), 1)
	assert.Empty(t, c.Errors())
}

func TestCheckNoDuplicates_EmptyDataset(t *testing.T) {
	t.Parallel()

	c := quietContext()

	passed, _ := c.CheckNoDuplicates(dataset.New("PMID"), []string{"PMID"}, "Phase X", "")

	assert.True(t, passed)
}

func cartesianFixture(rows int) *dataset.Dataset {
	ds := dataset.New("a", "b")

	for i := range rows {
		ds.Append(dataset.Row{"a": fmt.Sprintf("a%d", i%10), "b": fmt.Sprintf("b%d", i%20)})
	}

	return ds
}

func TestCheckCartesianProduct_WithinBound(t *testing.T) {
	t.Parallel()

	c := quietContext()
	// Expected max 10*20 = 200; the 20% margin allows exactly 240 rows.
	ds := cartesianFixture(240)

	passed, _ := c.CheckCartesianProduct(ds, map[string]int{"a": 10, "b": 20}, "Phase X")

	assert.True(t, passed)
	assert.Empty(t, c.Errors())
}

func TestCheckCartesianProduct_BeyondBound(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := cartesianFixture(250)

	passed, msg := c.CheckCartesianProduct(ds, map[string]int{"a": 10, "b": 20}, "Phase X")

	assert.False(t, passed)
	assert.Contains(t, msg, "cartesian product")
	require.Len(t, c.Errors(), 1)
}

func TestCheckCartesianProduct_FragmentedKeyWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := dataset.New("a")

	for i := range 16 {
		ds.Append(dataset.Row{"a": fmt.Sprintf("a%d", i)})
	}

	passed, _ := c.CheckCartesianProduct(ds, map[string]int{"a": 10}, "Phase X")

	// 16 unique values against an expectation of 10 exceeds the 1.5x factor.
	assert.False(t, passed)
	assert.NotEmpty(t, c.Warnings())
}

func TestCheckColumnValues_AbsentColumnPasses(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := idRows("other", "1")

	passed, msg := c.CheckColumnValues(ds, "nct_number", NCTFormat, "Phase X", "")

	assert.True(t, passed)
	assert.Contains(t, msg, "not present")
}

func TestCheckColumnValues_InvalidValues(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := idRows("nct_number", "NCT12345678", "NCT123", "", "nct12345678")

	passed, msg := c.CheckColumnValues(ds, "nct_number", NCTFormat, "Phase X", "strict format")

	assert.False(t, passed)
	assert.Contains(t, msg, "Found 2 invalid values")
	assert.Contains(t, msg, "NCT123")
	assert.Len(t, c.Warnings(), 1)
}

func TestCheckMergeIntegrity_CleanJoin(t *testing.T) {
	t.Parallel()

	c := quietContext()
	left := idRows("k", "1", "2", "3")
	right := idRows("k", "2", "3", "4")

	passed, _, predicted := c.CheckMergeIntegrity(left, right, []string{"k"}, 2, "Phase X")

	assert.True(t, passed)
	assert.Equal(t, 2, predicted)
}

func TestCheckMergeIntegrity_ManyToManyWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	left := idRows("k", "1", "1", "2")
	right := idRows("k", "1", "1", "3")

	passed, msg, _ := c.CheckMergeIntegrity(left, right, []string{"k"}, 0, "Phase X")

	assert.False(t, passed)
	assert.Contains(t, msg, "Many-to-many join")
	assert.Len(t, c.Warnings(), 1)
}

func TestCheckMergeIntegrity_DriftWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	left := idRows("k", "1", "2", "3", "4", "5")
	right := idRows("k", "1", "2")

	// Predicted 2 vs expected 5 is 60% drift.
	passed, msg, predicted := c.CheckMergeIntegrity(left, right, []string{"k"}, 5, "Phase X")

	assert.False(t, passed)
	assert.Equal(t, 2, predicted)
	assert.Contains(t, msg, "differs from expected")
}

func TestContext_ResetAndAccumulate(t *testing.T) {
	t.Parallel()

	c := quietContext()

	c.RecordWarning("w1")
	c.RecordError("e1")

	assert.Len(t, c.Warnings(), 1)
	assert.Equal(t, 1, c.ErrorCount())

	c.Reset()

	assert.Empty(t, c.Warnings())
	assert.Zero(t, c.ErrorCount())
}
