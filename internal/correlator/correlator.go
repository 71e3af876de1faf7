// Package correlator implements the tool correlator (C3): matches
// tool_use blocks with tool_result blocks by id and assigns them a
// shared color, grounded on the teacher's ToolEvent/ToolCallID
// bookkeeping in internal/agent/stream.go's tool-call loop.
package correlator

// PendingUse is a tool_use invocation awaiting its matching tool_result.
type PendingUse struct {
	ToolUseID  string
	Name       string
	ColorIndex int
}

// State tracks pending tool_use invocations across a request, scoped to
// a single session (a fresh State per session, not per request, since
// tool_use/tool_result pairs can span adjacent messages).
type State struct {
	pending    map[string]*PendingUse
	nextColor  int
	numColors  int
	duplicates map[string]struct{}
}

// NewState builds an empty correlator state. numColors bounds the
// rotating color palette (see internal/config/thresholds.go).
func NewState(numColors int) *State {
	if numColors <= 0 {
		numColors = 14
	}
	return &State{
		pending:    make(map[string]*PendingUse),
		numColors:  numColors,
		duplicates: make(map[string]struct{}),
	}
}

// ObserveToolUse registers a tool_use id/name, allocating a color on
// first sight. Duplicate tool_use ids (spec.md §4.3 tie-break) log a
// warning (returned as ok=false) and keep the first binding.
func (s *State) ObserveToolUse(id, name string) (color int, ok bool) {
	if existing, seen := s.pending[id]; seen {
		s.duplicates[id] = struct{}{}
		return existing.ColorIndex, false
	}
	color = s.nextColor % s.numColors
	s.nextColor++
	s.pending[id] = &PendingUse{ToolUseID: id, Name: name, ColorIndex: color}
	return color, true
}

// ResolveToolResult looks up the tool_use matching id. If found, it
// returns the inherited name and color and complete=true. If no matching
// tool_use was ever seen, it returns complete=false (spec.md §4.3: the
// result is rendered with the tool_result category but without an
// inherited name).
func (s *State) ResolveToolResult(id string) (name string, color int, complete bool) {
	use, ok := s.pending[id]
	if !ok {
		return "", 0, false
	}
	return use.Name, use.ColorIndex, true
}

// IsDuplicate reports whether id was seen more than once as a tool_use.
func (s *State) IsDuplicate(id string) bool {
	_, ok := s.duplicates[id]
	return ok
}
