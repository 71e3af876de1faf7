package correlator

import (
	"testing"

	"github.com/cc-dump/ccdump/internal/testutil"
)

func TestObserveToolUseAssignsRotatingColors(t *testing.T) {
	s := NewState(2)

	c0, ok := s.ObserveToolUse("tu_1", "Read")
	testutil.RequireTrue(t, ok, "first sighting of tu_1 is not a duplicate")
	testutil.AssertEqual(t, 0, c0, "first tool_use gets color 0")

	c1, ok := s.ObserveToolUse("tu_2", "Write")
	testutil.RequireTrue(t, ok, "first sighting of tu_2 is not a duplicate")
	testutil.AssertEqual(t, 1, c1, "second tool_use gets color 1")

	c2, ok := s.ObserveToolUse("tu_3", "Grep")
	testutil.RequireTrue(t, ok, "first sighting of tu_3 is not a duplicate")
	testutil.AssertEqual(t, 0, c2, "third tool_use wraps back to color 0 with a 2-color palette")
}

func TestObserveToolUseDuplicateIDKeepsFirstBindingAndMarksDuplicate(t *testing.T) {
	s := NewState(14)
	first, ok := s.ObserveToolUse("tu_1", "Read")
	testutil.RequireTrue(t, ok, "first sighting is not a duplicate")

	again, ok := s.ObserveToolUse("tu_1", "Read")
	testutil.RequireTrue(t, !ok, "repeated id is reported as a duplicate")
	testutil.AssertEqual(t, first, again, "duplicate sighting keeps the original color")
	testutil.RequireTrue(t, s.IsDuplicate("tu_1"), "IsDuplicate reflects the repeated id")
	testutil.RequireTrue(t, !s.IsDuplicate("tu_2"), "an id never seen twice is not a duplicate")
}

func TestResolveToolResultInheritsNameAndColor(t *testing.T) {
	s := NewState(14)
	color, _ := s.ObserveToolUse("tu_1", "Bash")

	name, gotColor, complete := s.ResolveToolResult("tu_1")
	testutil.RequireTrue(t, complete, "matching tool_use was observed")
	testutil.AssertEqual(t, "Bash", name, "result inherits the tool_use's name")
	testutil.AssertEqual(t, color, gotColor, "result inherits the tool_use's color")
}

func TestResolveToolResultWithNoMatchingToolUseIsIncomplete(t *testing.T) {
	s := NewState(14)
	_, _, complete := s.ResolveToolResult("tu_unseen")
	testutil.RequireTrue(t, !complete, "a tool_result with no prior tool_use resolves incomplete")
}

func TestNewStateDefaultsNonPositiveNumColors(t *testing.T) {
	s := NewState(0)
	testutil.AssertEqual(t, 14, s.numColors, "non-positive numColors falls back to 14")
}
