package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trialRowSchema = []byte(`{
	"type": "object",
	"required": ["nct_number"],
	"properties": {
		"nct_number": {"type": "string", "pattern": "^NCT\\d{8}$"}
	}
}`)

func TestDataset_CheckSchema_Valid(t *testing.T) {
	t.Parallel()

	ds := New("nct_number")
	ds.Append(Row{"nct_number": "NCT12345678"})
	ds.Append(Row{"nct_number": "NCT00000001"})

	violations, err := ds.CheckSchema(trialRowSchema)

	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestDataset_CheckSchema_PatternViolation(t *testing.T) {
	t.Parallel()

	ds := New("nct_number")
	ds.Append(Row{"nct_number": "NCT12345678"})
	ds.Append(Row{"nct_number": "NCT123"})

	violations, err := ds.CheckSchema(trialRowSchema)

	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].RowIndex)
}

func TestDataset_CheckSchema_MissingRequired(t *testing.T) {
	t.Parallel()

	// An empty cell is omitted from the schema document, so `required` fires.
	ds := New("nct_number", "other")
	ds.Append(Row{"nct_number": "", "other": "x"})

	violations, err := ds.CheckSchema(trialRowSchema)

	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, 0, violations[0].RowIndex)
}

func TestDataset_CheckSchema_BadSchema(t *testing.T) {
	t.Parallel()

	ds := New("a")

	_, err := ds.CheckSchema([]byte(`{not json`))

	require.Error(t, err)
}
