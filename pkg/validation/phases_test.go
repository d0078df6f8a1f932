package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

func guidelineFixture(n int) *dataset.Dataset {
	ds := dataset.New("PMID", "Article Title", "Journal/Book")

	for i := range n {
		ds.Append(dataset.Row{
			"PMID":          fmt.Sprintf("%d", 10000+i),
			"Article Title": fmt.Sprintf("Guideline %d", i),
			"Journal/Book":  "J Med",
		})
	}

	return ds
}

// referenceFixture builds a citation table with refsPer references per
// guideline. Reference PMIDs are distinct across guidelines.
func referenceFixture(guidelines, refsPer int) *dataset.Dataset {
	ds := dataset.New("guideline_pmid", "ref_pmid", "ref_doi")

	for g := range guidelines {
		for r := range refsPer {
			id := 50000 + g*1000 + r

			ds.Append(dataset.Row{
				"guideline_pmid": fmt.Sprintf("%d", 10000+g),
				"ref_pmid":       fmt.Sprintf("%d", id),
				"ref_doi":        fmt.Sprintf("10.1000/ref%d", id),
			})
		}
	}

	return ds
}

func TestValidatePhase1_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()

	ok := ValidatePhase1(c, guidelineFixture(30))

	assert.True(t, ok)
	assert.Empty(t, c.Errors())
	assert.Empty(t, c.Warnings())
}

func TestValidatePhase1_DuplicatePMIDsFail(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := guidelineFixture(10)
	ds.Append(dataset.Row{"PMID": "10003", "Article Title": "dup", "Journal/Book": "J"})

	ok := ValidatePhase1(c, ds)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Errors())
}

func TestValidatePhase1_MissingPMIDColumn(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := dataset.New("title")
	ds.Append(dataset.Row{"title": "x"})

	ok := ValidatePhase1(c, ds)

	assert.False(t, ok)
	require.NotEmpty(t, c.Errors())
	assert.Contains(t, c.Errors()[0], "Missing critical columns")
}

func TestValidatePhase1_NullPMIDsWarn(t *testing.T) {
	t.Parallel()

	c := quietContext()
	ds := guidelineFixture(10)
	ds.Append(dataset.Row{"PMID": "", "Article Title": "no id", "Journal/Book": "J"})

	ok := ValidatePhase1(c, ds)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase2_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase1 := guidelineFixture(10)
	phase2 := referenceFixture(10, 40)

	ok := ValidatePhase2(c, phase2, phase1)

	assert.True(t, ok)
	assert.Empty(t, c.Warnings())
}

func TestValidatePhase2_LowCoverageWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase1 := guidelineFixture(10)
	// Only 4 of 10 guidelines have references.
	phase2 := referenceFixture(4, 40)

	ok := ValidatePhase2(c, phase2, phase1)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase2_SkewedDistributionWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase1 := guidelineFixture(20)
	phase2 := referenceFixture(20, 40)

	// One guideline with far more references than the mean.
	for r := range 1000 {
		phase2.Append(dataset.Row{
			"guideline_pmid": "10000",
			"ref_pmid":       fmt.Sprintf("%d", 90000+r),
			"ref_doi":        fmt.Sprintf("10.1000/x%d", r),
		})
	}

	ok := ValidatePhase2(c, phase2, phase1)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

// trialCitationFixture builds a citation-level phase 3 table derived from the
// given phase 2 table, flagging every tenth reference as a clinical trial with
// a registry identifier.
func trialCitationFixture(phase2 *dataset.Dataset) *dataset.Dataset {
	ds := dataset.New("guideline_pmid", "ref_pmid", "nct_number", "all_nct_numbers", "is_clinical_trial")

	for _, row := range phase2.Rows {
		out := dataset.Row{
			"guideline_pmid": row.Value("guideline_pmid"),
			"ref_pmid":       row.Value("ref_pmid"),
		}

		var refNum int

		fmt.Sscanf(row.Value("ref_pmid"), "%d", &refNum)

		if refNum%10 == 0 {
			nct := fmt.Sprintf("NCT%08d", refNum)
			out["nct_number"] = nct
			out["all_nct_numbers"] = nct
			out["is_clinical_trial"] = "True"
		}

		ds.Append(out)
	}

	return ds
}

func TestValidatePhase3_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(10, 40)
	phase3 := trialCitationFixture(phase2)

	ok := ValidatePhase3(c, phase3, phase2)

	assert.True(t, ok)
	assert.Empty(t, c.Errors())
}

func TestValidatePhase3_MissingRequiredColumns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(5, 30)
	phase3 := dataset.New("something_else")
	phase3.Append(dataset.Row{"something_else": "x"})

	ok := ValidatePhase3(c, phase3, phase2)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Errors())
}

func TestValidatePhase3_PluralGuidelineColumnWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(10, 40)
	phase3 := trialCitationFixture(phase2)
	phase3.Columns = append(phase3.Columns, "guideline_pmids")

	ok := ValidatePhase3(c, phase3, phase2)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase3_DuplicatePairsFail(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(10, 40)
	phase3 := trialCitationFixture(phase2)
	phase3.Append(phase3.Rows[0])

	ok := ValidatePhase3(c, phase3, phase2)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Errors())
}

func TestValidatePhase3_MalformedNCTWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(10, 40)
	phase3 := trialCitationFixture(phase2)
	phase3.Rows[1]["all_nct_numbers"] = "NCT1234"

	ok := ValidatePhase3(c, phase3, phase2)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase3_NoResolvedReferencesIsError(t *testing.T) {
	t.Parallel()

	c := quietContext()

	// Every ref_pmid is empty: zero unique references against non-zero
	// citation rows makes the citations-per-reference ratio fall below 1.0.
	phase2 := dataset.New("guideline_pmid", "ref_pmid", "ref_doi")
	phase3 := dataset.New("guideline_pmid", "ref_pmid", "is_clinical_trial")

	for i := range 5 {
		phase3.Append(dataset.Row{
			"guideline_pmid":    fmt.Sprintf("%d", 10000+i),
			"ref_pmid":          "",
			"is_clinical_trial": "False",
		})
	}

	ok := ValidatePhase3(c, phase3, phase2)

	assert.False(t, ok)
	require.NotEmpty(t, c.Errors())
	assert.Contains(t, c.Errors()[0], "Citation ratio < 1.0")
}

func trialDetailFixture(n int) *dataset.Dataset {
	ds := dataset.New("nct_number", "brief_title")

	for i := range n {
		ds.Append(dataset.Row{
			"nct_number":  fmt.Sprintf("NCT%08d", i),
			"brief_title": fmt.Sprintf("Trial %d", i),
		})
	}

	return ds
}

func TestValidatePhase4_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase4 := trialDetailFixture(40)

	phase3 := dataset.New("nct_number")
	for i := range 40 {
		phase3.Append(dataset.Row{"nct_number": fmt.Sprintf("NCT%08d", i)})
		phase3.Append(dataset.Row{"nct_number": fmt.Sprintf("NCT%08d", i)})
	}

	ok := ValidatePhase4(c, phase4, phase3)

	assert.True(t, ok)
	assert.Empty(t, c.Errors())
}

func TestValidatePhase4_BadIdentifierFormat(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase4 := trialDetailFixture(10)
	phase4.Append(dataset.Row{"nct_number": "NCT99", "brief_title": "bad"})

	phase3 := dataset.New("nct_number")
	for i := range 11 {
		phase3.Append(dataset.Row{"nct_number": fmt.Sprintf("NCT%08d", i)})
	}

	ok := ValidatePhase4(c, phase4, phase3)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase5_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase1 := guidelineFixture(25)
	phase5 := guidelineFixture(25)

	ok := ValidatePhase5(c, phase5, phase1)

	assert.True(t, ok)
}

func TestValidatePhase5_RowCountDriftWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase1 := guidelineFixture(25)
	phase5 := guidelineFixture(20)

	ok := ValidatePhase5(c, phase5, phase1)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase6_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(10, 40)
	phase3 := trialCitationFixture(phase2)

	phase6 := dataset.New(append([]string{}, phase3.Columns...)...)
	phase6.Columns = append(phase6.Columns, "article_abstract")

	for i, row := range phase3.Rows {
		out := dataset.Row{}
		for k, v := range row {
			out[k] = v
		}

		if i%2 == 0 {
			out["article_abstract"] = "Background: ..."
		}

		phase6.Append(out)
	}

	ok := ValidatePhase6(c, phase6, phase3)

	assert.True(t, ok)
	assert.Empty(t, c.Errors())
}

func TestValidatePhase6_RowMismatchWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	phase2 := referenceFixture(10, 40)
	phase3 := trialCitationFixture(phase2)

	phase6 := dataset.New(phase3.Columns...)
	for _, row := range phase3.Rows[:phase3.Len()/2] {
		phase6.Append(row)
	}

	ok := ValidatePhase6(c, phase6, phase3)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func sexAnalysisFixture(trials, citationsPer int) (*dataset.Dataset, *dataset.Dataset) {
	dedup := dataset.New("nct_number", "sex_breakdown")
	withDups := dataset.New("nct_number", "sex_breakdown", "guideline_pmid")

	for i := range trials {
		nct := fmt.Sprintf("NCT%08d", i)
		dedup.Append(dataset.Row{"nct_number": nct, "sex_breakdown": "52%F"})

		for j := range citationsPer {
			withDups.Append(dataset.Row{
				"nct_number":     nct,
				"sex_breakdown":  "52%F",
				"guideline_pmid": fmt.Sprintf("%d", 10000+j),
			})
		}
	}

	return dedup, withDups
}

func TestValidatePhase7_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()
	dedup, withDups := sexAnalysisFixture(100, 3)
	phase4 := trialDetailFixture(100)

	ok := ValidatePhase7(c, dedup, withDups, phase4)

	assert.True(t, ok)
	assert.Empty(t, c.Errors())
	assert.Empty(t, c.Warnings())
}

func TestValidatePhase7_WithDupsSmallerIsError(t *testing.T) {
	t.Parallel()

	c := quietContext()
	dedup, _ := sexAnalysisFixture(100, 1)
	smaller, _ := sexAnalysisFixture(50, 1)
	phase4 := trialDetailFixture(100)

	ok := ValidatePhase7(c, dedup, smaller, phase4)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Errors())
}

func TestValidatePhase7_ExcessiveCitationRatioWarns(t *testing.T) {
	t.Parallel()

	c := quietContext()
	dedup, withDups := sexAnalysisFixture(20, 12)
	phase4 := trialDetailFixture(20)

	ok := ValidatePhase7(c, dedup, withDups, phase4)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}

func TestValidatePhase7B_Clean(t *testing.T) {
	t.Parallel()

	c := quietContext()

	phase7Dedup, _ := sexAnalysisFixture(100, 1)

	dedup := dataset.New("ref_pmid")
	for i := range 150 {
		dedup.Append(dataset.Row{"ref_pmid": fmt.Sprintf("%d", 50000+i)})
	}

	citations := dataset.New("ref_pmid", "guideline_pmid")
	for i := range 150 {
		for g := range 2 {
			citations.Append(dataset.Row{
				"ref_pmid":       fmt.Sprintf("%d", 50000+i),
				"guideline_pmid": fmt.Sprintf("%d", 10000+g),
			})
		}
	}

	ok := ValidatePhase7B(c, dedup, citations, phase7Dedup)

	assert.True(t, ok)
	assert.Empty(t, c.Errors())
}

func TestValidatePhase7B_NotLargerThanPhase7Warns(t *testing.T) {
	t.Parallel()

	c := quietContext()

	phase7Dedup, _ := sexAnalysisFixture(100, 1)

	dedup := dataset.New("ref_pmid")
	for i := range 100 {
		dedup.Append(dataset.Row{"ref_pmid": fmt.Sprintf("%d", 50000+i)})
	}

	ok := ValidatePhase7B(c, dedup, dedup, phase7Dedup)

	assert.False(t, ok)
	assert.NotEmpty(t, c.Warnings())
}
