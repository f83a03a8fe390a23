package moveon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coursemodels "catapult/internal/course/models"
	"catapult/internal/registration/models"
)

const (
	courseID = "https://example.com/course"
	blockA   = "https://example.com/block/a"
	blockB   = "https://example.com/block/b"
)

func au(index int, rule coursemodels.MoveOn) coursemodels.Node {
	return coursemodels.Node{
		Type:    coursemodels.NodeTypeAU,
		LMSID:   "https://example.com/au/" + string(rune('0'+index)),
		AUIndex: index,
		MoveOn:  rule,
	}
}

func flatCourse() coursemodels.Structure {
	return coursemodels.Structure{
		LMSID: courseID,
		Children: []coursemodels.Node{
			au(0, coursemodels.MoveOnCompleted),
			au(1, coursemodels.MoveOnCompletedOrPassed),
		},
	}
}

// block A { AU0 Passed, block B { AU1 Completed } }, AU2 NotApplicable
func nestedCourse() coursemodels.Structure {
	return coursemodels.Structure{
		LMSID: courseID,
		Children: []coursemodels.Node{
			{Type: coursemodels.NodeTypeBlock, LMSID: blockA, Children: []coursemodels.Node{
				au(0, coursemodels.MoveOnPassed),
				{Type: coursemodels.NodeTypeBlock, LMSID: blockB, Children: []coursemodels.Node{
					au(1, coursemodels.MoveOnCompleted),
				}},
			}},
			au(2, coursemodels.MoveOnNotApplicable),
		},
	}
}

func withFacts(state models.RollupState, index int, completed, passed, waived bool) models.RollupState {
	next := state.Clone()
	p := next.Progress(index)
	p.Completed = p.Completed || completed
	p.Passed = p.Passed || passed
	p.Waived = p.Waived || waived
	next.SetProgress(p)
	return next
}

func TestAUSatisfiedRules(t *testing.T) {
	cases := []struct {
		rule              coursemodels.MoveOn
		completed, passed bool
		want              bool
	}{
		{coursemodels.MoveOnPassed, true, false, false},
		{coursemodels.MoveOnPassed, false, true, true},
		{coursemodels.MoveOnCompleted, true, false, true},
		{coursemodels.MoveOnCompleted, false, true, false},
		{coursemodels.MoveOnCompletedAndPassed, true, false, false},
		{coursemodels.MoveOnCompletedAndPassed, true, true, true},
		{coursemodels.MoveOnCompletedOrPassed, false, true, true},
		{coursemodels.MoveOnCompletedOrPassed, false, false, false},
		{coursemodels.MoveOnNotApplicable, false, false, true},
		{"", false, false, true},
	}
	for _, tc := range cases {
		got := AUSatisfied(tc.rule, models.AUProgress{Completed: tc.completed, Passed: tc.passed})
		assert.Equal(t, tc.want, got, "rule=%q completed=%v passed=%v", tc.rule, tc.completed, tc.passed)
	}
}

func TestWaivedAlwaysSatisfies(t *testing.T) {
	for _, rule := range []coursemodels.MoveOn{
		coursemodels.MoveOnPassed,
		coursemodels.MoveOnCompleted,
		coursemodels.MoveOnCompletedAndPassed,
		coursemodels.MoveOnCompletedOrPassed,
	} {
		assert.True(t, AUSatisfied(rule, models.AUProgress{Waived: true}), "rule %s", rule)
	}
}

func TestInterpretCompletionThenWaiver(t *testing.T) {
	structure := flatCourse()
	state := models.NewRollupState(2)

	afterCompletion := Interpret(structure, withFacts(state, 0, true, false, false), 0)
	assert.False(t, afterCompletion.CourseSatisfied)
	assert.False(t, afterCompletion.CourseNewlySatisfied)
	assert.True(t, afterCompletion.State.Progress(0).Satisfied)
	assert.False(t, afterCompletion.State.Progress(1).Satisfied)

	afterWaiver := Interpret(structure, withFacts(afterCompletion.State, 1, false, false, true), 1)
	assert.True(t, afterWaiver.CourseSatisfied)
	assert.True(t, afterWaiver.CourseNewlySatisfied)
	assert.True(t, afterWaiver.State.Satisfied)
	assert.Empty(t, afterWaiver.NewlySatisfiedBlocks)
}

func TestInterpretNestedBlocksCascadeBottomUp(t *testing.T) {
	structure := nestedCourse()

	initial := Interpret(structure, models.NewRollupState(3), NoTransition)
	assert.Empty(t, initial.NewlySatisfiedBlocks)
	assert.True(t, initial.State.Progress(2).Satisfied, "NotApplicable AU does not gate")
	assert.False(t, initial.CourseSatisfied)

	step := Interpret(structure, withFacts(initial.State, 0, false, true, false), 0)
	assert.Empty(t, step.NewlySatisfiedBlocks)
	assert.False(t, step.State.Blocks[blockA])

	final := Interpret(structure, withFacts(step.State, 1, true, false, false), 1)
	assert.Equal(t, []string{blockB, blockA}, final.NewlySatisfiedBlocks)
	assert.True(t, final.CourseNewlySatisfied)
	assert.True(t, final.State.Blocks[blockA])
	assert.True(t, final.State.Blocks[blockB])
}

func TestInterpretIsPureAndDeterministic(t *testing.T) {
	structure := nestedCourse()
	state := withFacts(models.NewRollupState(3), 1, true, false, false)
	before := state.Clone()

	first := Interpret(structure, state, 1)
	second := Interpret(structure, state, 1)

	assert.Equal(t, before, state, "input must not be mutated")
	assert.Equal(t, first, second)
}

func TestInterpretIdempotentWithoutChange(t *testing.T) {
	structure := nestedCourse()
	state := withFacts(withFacts(models.NewRollupState(3), 0, false, true, false), 1, true, false, false)

	first := Interpret(structure, state, 1)
	again := Interpret(structure, first.State, NoTransition)

	assert.Equal(t, first.State, again.State)
	assert.Empty(t, again.NewlySatisfiedBlocks)
	assert.False(t, again.CourseNewlySatisfied)
	assert.True(t, again.CourseSatisfied)
}

func TestInterpretMonotonic(t *testing.T) {
	structure := nestedCourse()
	state := models.NewRollupState(3)
	state.Blocks = map[string]bool{blockB: true}
	state.AUs[0].Satisfied = true

	result := Interpret(structure, state, NoTransition)

	assert.True(t, result.State.Blocks[blockB], "satisfied block never reverts")
	assert.True(t, result.State.Progress(0).Satisfied, "satisfied AU never reverts")
	require.Len(t, result.NewlySatisfiedBlocks, 1)
	assert.Equal(t, blockA, result.NewlySatisfiedBlocks[0])
}
