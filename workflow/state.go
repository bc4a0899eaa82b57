package workflow

import (
	"fmt"

	"github.com/smallnest/adaptiverag/rag"
	"github.com/smallnest/adaptiverag/rag/judge"
)

// State identifies a node of the answering state machine.
type State int

const (
	// StateRoute is the entry state: decide corpus vs web.
	StateRoute State = iota
	// StateRetrieve performs the corpus lookup.
	StateRetrieve
	// StateGradeDocuments filters retrieved evidence for relevance.
	StateGradeDocuments
	// StateWebSearch fetches supplementary web evidence.
	StateWebSearch
	// StateGenerate drafts an answer from the current evidence.
	StateGenerate
	// StateCheckGeneration verifies the draft for groundedness and usefulness.
	StateCheckGeneration
	// StateDone is the terminal state.
	StateDone
)

// String returns the node name used in logs.
func (s State) String() string {
	switch s {
	case StateRoute:
		return "route"
	case StateRetrieve:
		return "retrieve"
	case StateGradeDocuments:
		return "grade_documents"
	case StateWebSearch:
		return "websearch"
	case StateGenerate:
		return "generate"
	case StateCheckGeneration:
		return "check_generation"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// WorkflowState is the single record threaded through every transition. The
// question is immutable once a run starts; documents are replaced by grading
// and extended by web search; the generation is only ever written whole by
// the generate step.
type WorkflowState struct {
	Question       string
	Documents      []rag.Passage
	Generation     string
	NeedsWebSearch bool
}

// Signal carries the judge outcome that drives the next conditional
// transition: the router's datasource after StateRoute, and the two
// verification verdicts after StateCheckGeneration.
type Signal struct {
	Datasource judge.Datasource
	Grounded   bool
	Useful     bool
}

// Transition is the pure transition function of the state machine. It reads
// the current state, the workflow record and the latest judge signal, and
// returns the next state. It has no side effects and performs no calls.
func Transition(state State, ws WorkflowState, sig Signal) State {
	switch state {
	case StateRoute:
		if sig.Datasource == judge.DatasourceWebSearch {
			return StateWebSearch
		}
		return StateRetrieve
	case StateRetrieve:
		return StateGradeDocuments
	case StateGradeDocuments:
		if ws.NeedsWebSearch {
			return StateWebSearch
		}
		return StateGenerate
	case StateWebSearch:
		return StateGenerate
	case StateGenerate:
		return StateCheckGeneration
	case StateCheckGeneration:
		if !sig.Grounded {
			// Ungrounded answers are a generation-quality problem:
			// re-draft from the same evidence, never refetch.
			return StateGenerate
		}
		if !sig.Useful {
			// Grounded but unhelpful answers are an evidence-sufficiency
			// problem: fetch more web evidence before re-drafting.
			return StateWebSearch
		}
		return StateDone
	default:
		return StateDone
	}
}
