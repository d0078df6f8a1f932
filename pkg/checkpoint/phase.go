// Package checkpoint provides durable, resumable progress tracking for the
// collection pipeline. Each phase periodically flushes a full snapshot of its
// accumulated results; an interrupted run resumes from the highest-cursor
// snapshot on disk instead of restarting from scratch.
package checkpoint

import (
	"errors"
	"fmt"
)

// Phase identifies one collection stage of the pipeline. Each phase owns a
// dedicated subdirectory under the store root.
type Phase string

// The fixed set of checkpointed phases.
const (
	PhasePubMed    Phase = "phase1_pubmed"
	PhaseCrossRef  Phase = "phase2_crossref"
	PhaseTrials    Phase = "phase3_trials"
	PhaseCTGov     Phase = "phase4_ctgov"
	PhaseAbstracts Phase = "phase6_abstracts"
	PhaseAnalysis  Phase = "phase7_analysis"
)

// ErrUnknownPhase is returned for a phase outside the fixed set.
var ErrUnknownPhase = errors.New("unknown checkpoint phase")

// phaseUnits maps each phase to the unit of work its cursor counts.
var phaseUnits = map[Phase]string{
	PhasePubMed:    "batch",
	PhaseCrossRef:  "guideline",
	PhaseTrials:    "ref",
	PhaseCTGov:     "trial",
	PhaseAbstracts: "abstract",
	PhaseAnalysis:  "analysis",
}

// Phases returns all phases in pipeline order.
func Phases() []Phase {
	return []Phase{
		PhasePubMed,
		PhaseCrossRef,
		PhaseTrials,
		PhaseCTGov,
		PhaseAbstracts,
		PhaseAnalysis,
	}
}

// Valid reports whether p is one of the fixed phases.
func (p Phase) Valid() bool {
	_, ok := phaseUnits[p]

	return ok
}

// Unit returns the phase-specific unit of work embedded in snapshot filenames.
func (p Phase) Unit() string {
	return phaseUnits[p]
}

// filePrefix returns the snapshot filename prefix for the phase, up to and
// including the separator before the cursor digits.
func (p Phase) filePrefix() string {
	return fmt.Sprintf("%s_checkpoint_%s_", p, p.Unit())
}
