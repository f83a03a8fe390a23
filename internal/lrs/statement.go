package lrs

import (
	"time"

	"github.com/google/uuid"

	"catapult/internal/registration/models"
)

// cmi5 and ADL vocabulary used by this service.
const (
	VerbWaived    = "https://w3id.org/xapi/adl/verbs/waived"
	VerbSatisfied = "https://adlnet.gov/expapi/verbs/satisfied"

	ExtensionReason    = "https://w3id.org/xapi/cmi5/result/extensions/reason"
	ExtensionSessionID = "https://w3id.org/xapi/cmi5/context/extensions/sessionid"

	CategoryCmi5   = "https://w3id.org/xapi/cmi5/context/categories/cmi5"
	CategoryMoveOn = "https://w3id.org/xapi/cmi5/context/categories/moveon"
)

var verbDisplay = map[string]string{
	VerbWaived:    "waived",
	VerbSatisfied: "satisfied",
}

// Verb is an xAPI verb.
type Verb struct {
	ID      string            `json:"id"`
	Display map[string]string `json:"display"`
}

// Activity is an xAPI activity reference.
type Activity struct {
	ID string `json:"id"`
}

// Result carries completion, success and extensions.
type Result struct {
	Completion *bool          `json:"completion,omitempty"`
	Success    *bool          `json:"success,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ContextActivities holds category activities.
type ContextActivities struct {
	Category []Activity `json:"category,omitempty"`
}

// Context ties a statement to a registration and session.
type Context struct {
	Registration      string             `json:"registration"`
	Extensions        map[string]any     `json:"extensions,omitempty"`
	ContextActivities *ContextActivities `json:"contextActivities,omitempty"`
}

// Statement is an immutable LRS record. ID is the dedup key the LRS recognises.
type Statement struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Actor     models.ActorRecord `json:"actor"`
	Verb      Verb               `json:"verb"`
	Object    Activity           `json:"object"`
	Result    *Result            `json:"result,omitempty"`
	Context   *Context           `json:"context,omitempty"`
}

// VerbName returns the short display name used in logs and metric labels.
func (s Statement) VerbName() string {
	if name, ok := s.Verb.Display["en"]; ok {
		return name
	}
	return s.Verb.ID
}

// Session identifies who a set of statements is about.
type Session struct {
	Actor            models.ActorRecord
	RegistrationCode string
	SessionID        string
}

// Builder produces statements with fresh ids and timestamps.
type Builder struct {
	NewID func() string
	Now   func() time.Time
}

// NewBuilder returns a builder using random UUIDs and the wall clock.
func NewBuilder() Builder {
	return Builder{
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Waived builds the statement recording that auID was waived for reason.
func (b Builder) Waived(s Session, auID, reason string) Statement {
	stmt := b.base(s, VerbWaived, auID)
	stmt.Result = &Result{
		Completion: boolPtr(true),
		Success:    boolPtr(true),
		Extensions: map[string]any{ExtensionReason: reason},
	}
	return stmt
}

// Satisfied builds the statement recording that a block or course was satisfied.
func (b Builder) Satisfied(s Session, objectID string) Statement {
	return b.base(s, VerbSatisfied, objectID)
}

func (b Builder) base(s Session, verbID, objectID string) Statement {
	return Statement{
		ID:        b.NewID(),
		Timestamp: b.Now(),
		Actor:     s.Actor,
		Verb:      Verb{ID: verbID, Display: map[string]string{"en": verbDisplay[verbID]}},
		Object:    Activity{ID: objectID},
		Context: &Context{
			Registration: s.RegistrationCode,
			Extensions:   map[string]any{ExtensionSessionID: s.SessionID},
			ContextActivities: &ContextActivities{
				Category: []Activity{{ID: CategoryCmi5}, {ID: CategoryMoveOn}},
			},
		},
	}
}

func boolPtr(v bool) *bool { return &v }
