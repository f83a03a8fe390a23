package models

import (
	"fmt"

	dErrors "catapult/pkg/domain-errors"
)

// MoveOn is the per-AU progression rule.
type MoveOn string

const (
	MoveOnPassed             MoveOn = "Passed"
	MoveOnCompleted          MoveOn = "Completed"
	MoveOnCompletedAndPassed MoveOn = "CompletedAndPassed"
	MoveOnCompletedOrPassed  MoveOn = "CompletedOrPassed"
	MoveOnNotApplicable      MoveOn = "NotApplicable"
)

// Normalize returns NotApplicable for an unrecorded rule.
func (m MoveOn) Normalize() MoveOn {
	if m == "" {
		return MoveOnNotApplicable
	}
	return m
}

func (m MoveOn) IsValid() bool {
	switch m.Normalize() {
	case MoveOnPassed, MoveOnCompleted, MoveOnCompletedAndPassed, MoveOnCompletedOrPassed, MoveOnNotApplicable:
		return true
	}
	return false
}

// NodeType distinguishes blocks from AUs in the course tree.
type NodeType string

const (
	NodeTypeBlock NodeType = "block"
	NodeTypeAU    NodeType = "au"
)

// Node is a block or an AU. Blocks carry children; AUs carry the rule and index.
type Node struct {
	Type     NodeType `json:"type"`
	LMSID    string   `json:"lmsId"`
	Title    string   `json:"title,omitempty"`
	MoveOn   MoveOn   `json:"moveOn,omitempty"`
	AUIndex  int      `json:"index,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

func (n Node) IsAU() bool { return n.Type == NodeTypeAU }

// Structure is the hierarchical AU definition of a course.
type Structure struct {
	LMSID    string `json:"lmsId"`
	Title    string `json:"title,omitempty"`
	Children []Node `json:"children"`
}

// Course is a course known to this service and addressable in the companion
// service through RemoteID.
type Course struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenantId"`
	RemoteID  string    `json:"-"`
	Structure Structure `json:"structure"`
}

// AUs returns every AU in document order.
func (s Structure) AUs() []Node {
	var out []Node
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.IsAU() {
				out = append(out, n)
				continue
			}
			walk(n.Children)
		}
	}
	walk(s.Children)
	return out
}

// AU returns the AU definition at index.
func (s Structure) AU(index int) (Node, bool) {
	for _, au := range s.AUs() {
		if au.AUIndex == index {
			return au, true
		}
	}
	return Node{}, false
}

// Validate checks that AU indexes are dense, unique and in document order and
// that every rule is known.
func (s Structure) Validate() error {
	if s.LMSID == "" {
		return dErrors.New(dErrors.CodeValidation, "course structure requires an lmsId")
	}
	for i, au := range s.AUs() {
		if au.AUIndex != i {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("AU %q has index %d, expected %d", au.LMSID, au.AUIndex, i))
		}
		if au.LMSID == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("AU at index %d requires an lmsId", i))
		}
		if !au.MoveOn.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("AU %q has unknown moveOn %q", au.LMSID, au.MoveOn))
		}
	}
	return nil
}
