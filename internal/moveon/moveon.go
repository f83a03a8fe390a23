// Package moveon computes cmi5 moveOn rollup for a registration.
//
// Interpret is a pure function: it never mutates its input and performs no I/O.
// Callers compare the returned flags with the previous state to decide which
// notifications to send.
package moveon

import (
	coursemodels "catapult/internal/course/models"
	"catapult/internal/registration/models"
)

// NoTransition is passed to Interpret when only recorded facts changed.
const NoTransition = -1

// Result is the outcome of one interpretation.
type Result struct {
	State models.RollupState
	// NewlySatisfiedBlocks lists block LMS ids that became satisfied, innermost first.
	NewlySatisfiedBlocks []string
	CourseSatisfied      bool
	CourseNewlySatisfied bool
}

// AUSatisfied reports whether the recorded facts meet rule. Waived AUs always do.
func AUSatisfied(rule coursemodels.MoveOn, p models.AUProgress) bool {
	if p.Waived || p.Satisfied {
		return true
	}
	switch rule.Normalize() {
	case coursemodels.MoveOnPassed:
		return p.Passed
	case coursemodels.MoveOnCompleted:
		return p.Completed
	case coursemodels.MoveOnCompletedAndPassed:
		return p.Completed && p.Passed
	case coursemodels.MoveOnCompletedOrPassed:
		return p.Completed || p.Passed
	case coursemodels.MoveOnNotApplicable:
		return true
	default:
		return false
	}
}

// Interpret marks transitioned as satisfied (unless NoTransition) and
// re-evaluates every block bottom-up and then the course root.
// Satisfaction never reverts: anything satisfied in state stays satisfied.
func Interpret(structure coursemodels.Structure, state models.RollupState, transitioned int) Result {
	next := state.Clone()
	if next.Version == 0 {
		next.Version = models.RollupStateVersion
	}
	if next.Blocks == nil {
		next.Blocks = make(map[string]bool)
	}
	if transitioned != NoTransition {
		p := next.Progress(transitioned)
		p.Satisfied = true
		next.SetProgress(p)
	}

	var newlyBlocks []string
	var eval func(n coursemodels.Node) bool
	eval = func(n coursemodels.Node) bool {
		if n.IsAU() {
			p := next.Progress(n.AUIndex)
			holds := AUSatisfied(n.MoveOn, p)
			if holds && !p.Satisfied {
				p.Satisfied = true
				next.SetProgress(p)
			}
			return holds
		}

		all := true
		for _, child := range n.Children {
			// no short-circuit: every AU below must be brought up to date
			if !eval(child) {
				all = false
			}
		}
		prev := next.Blocks[n.LMSID]
		holds := prev || all
		next.Blocks[n.LMSID] = holds
		if holds && !prev {
			newlyBlocks = append(newlyBlocks, n.LMSID)
		}
		return holds
	}

	all := true
	for _, child := range structure.Children {
		if !eval(child) {
			all = false
		}
	}
	courseSatisfied := state.Satisfied || all
	next.Satisfied = courseSatisfied

	return Result{
		State:                next,
		NewlySatisfiedBlocks: newlyBlocks,
		CourseSatisfied:      courseSatisfied,
		CourseNewlySatisfied: courseSatisfied && !state.Satisfied,
	}
}
