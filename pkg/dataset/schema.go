package dataset

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaViolation describes one row that failed schema validation.
type SchemaViolation struct {
	// RowIndex is the zero-based position of the offending row.
	RowIndex int

	// Detail is the human-readable schema error.
	Detail string
}

// maxSchemaViolations bounds how many violations CheckSchema collects before
// stopping. Corrupt tables tend to fail on every row.
const maxSchemaViolations = 25

// CheckSchema validates every row against a JSON Schema (draft-07). Each row
// is presented to the schema as a flat string-valued object with missing
// cells omitted, so `required` constraints detect absent fields and
// `pattern` constraints validate identifier formats at the load boundary.
func (d *Dataset) CheckSchema(schemaJSON []byte) ([]SchemaViolation, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var violations []SchemaViolation

	for i, row := range d.Rows {
		doc := make(map[string]any, len(row))

		for field, value := range row {
			if value == "" {
				continue
			}

			doc[field] = value
		}

		result, validateErr := schema.Validate(gojsonschema.NewGoLoader(doc))
		if validateErr != nil {
			return nil, fmt.Errorf("validate row %d: %w", i, validateErr)
		}

		for _, verr := range result.Errors() {
			violations = append(violations, SchemaViolation{
				RowIndex: i,
				Detail:   fmt.Sprintf("%s: %s", verr.Field(), verr.Description()),
			})

			if len(violations) >= maxSchemaViolations {
				return violations, nil
			}
		}
	}

	return violations, nil
}
