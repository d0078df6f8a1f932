package validation

// Well-known column names across phase outputs.
const (
	// ColPMID is the guideline-level primary key (phases 1 and 5).
	ColPMID = "PMID"

	// ColGuidelinePMID is the citing-document half of the citation key.
	ColGuidelinePMID = "guideline_pmid"

	// ColGuidelinePMIDs (plural) only appears in a unique-ref-shaped table;
	// its presence in a citation-level table is a structural regression.
	ColGuidelinePMIDs = "guideline_pmids"

	// ColRefPMID is the cited-item half of the citation key.
	ColRefPMID = "ref_pmid"

	// ColRefDOI identifies a reference by DOI where the PMID is unknown.
	ColRefDOI = "ref_doi"

	// ColRefTitle is the reference's title text.
	ColRefTitle = "ref_title"

	// ColNCTNumber holds a single registry identifier.
	ColNCTNumber = "nct_number"

	// ColAllNCTNumbers holds every registry identifier parsed for the row.
	ColAllNCTNumbers = "all_nct_numbers"

	// ColIsClinicalTrial is the PubMed publication-type trial flag.
	ColIsClinicalTrial = "is_clinical_trial"

	// ColPublicationTypes lists the raw publication types.
	ColPublicationTypes = "publication_types"

	// ColArticleAbstract holds the collected abstract text (phase 6).
	ColArticleAbstract = "article_abstract"
)
