package validation

// Built-in JSON Schemas for strict-schema mode. Deliberately minimal: they
// pin down the key columns and identifier formats, not every export column.
var (
	phase1Schema = []byte(`{
		"type": "object",
		"required": ["PMID"],
		"properties": {
			"PMID": {"type": "string", "pattern": "^\\d+$"}
		}
	}`)

	citationSchema = []byte(`{
		"type": "object",
		"required": ["guideline_pmid", "ref_pmid"],
		"properties": {
			"guideline_pmid": {"type": "string", "pattern": "^\\d+$"},
			"ref_pmid": {"type": "string", "pattern": "^\\d+$"}
		}
	}`)

	trialSchema = []byte(`{
		"type": "object",
		"required": ["nct_number"],
		"properties": {
			"nct_number": {"type": "string", "pattern": "^NCT\\d{8}$"}
		}
	}`)
)

// StrictSchemas maps phase filenames to the built-in schema applied at load
// time in strict-schema mode.
func StrictSchemas() map[string][]byte {
	return map[string][]byte{
		FilePhase1:      phase1Schema,
		FilePhase3:      citationSchema,
		FilePhase4:      trialSchema,
		FilePhase6:      citationSchema,
		FilePhase7Dedup: trialSchema,
	}
}
