package validation

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PhaseResult records one phase's verdict and how many log entries it added.
type PhaseResult struct {
	Phase    string `json:"phase" yaml:"phase"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Warnings int    `json:"warnings" yaml:"warnings"`
	Errors   int    `json:"errors" yaml:"errors"`
}

// Summary is the machine-readable result of a full validation run.
type Summary struct {
	Results   []PhaseResult `json:"results" yaml:"results"`
	Warnings  []string      `json:"warning_log,omitempty" yaml:"warning_log,omitempty"`
	Errors    []string      `json:"error_log,omitempty" yaml:"error_log,omitempty"`
	AllPassed bool          `json:"all_passed" yaml:"all_passed"`
}

// EncodeYAML writes the summary as YAML.
func (s *Summary) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	err := enc.Encode(s)
	if err != nil {
		return fmt.Errorf("encode summary yaml: %w", err)
	}

	return nil
}

// EncodeJSON writes the summary as indented JSON.
func (s *Summary) EncodeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(s)
	if err != nil {
		return fmt.Errorf("encode summary json: %w", err)
	}

	return nil
}
