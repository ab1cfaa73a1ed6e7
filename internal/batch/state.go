package batch

import "github.com/sells-group/skiptrace-cli/internal/model"

// RunState holds the live counters for one run. Owned by the
// orchestrator and snapshotted into the journal at run end; nothing
// here is process-global.
type RunState struct {
	counters model.RunCounters
}

// NewRunState creates run state for a work list of the given length.
func NewRunState(workItems int) *RunState {
	return &RunState{counters: model.RunCounters{WorkItems: workItems}}
}

// RecordResult counts one completed lookup.
func (s *RunState) RecordResult(res *model.LookupResult) {
	s.counters.Processed++
	if res.Status == model.StatusSuccess {
		s.counters.Succeeded++
	} else {
		s.counters.Failed++
	}
}

// SessionOpened counts one successfully opened session.
func (s *RunState) SessionOpened() {
	s.counters.SessionsOpened++
}

// BackendSwitched counts one blocking-triggered backend switch.
func (s *RunState) BackendSwitched() {
	s.counters.BackendSwitches++
}

// Counters returns a snapshot of the current totals.
func (s *RunState) Counters() model.RunCounters {
	return s.counters
}
