package models

import (
	"strings"

	dErrors "catapult/pkg/domain-errors"
)

// Registration is a learner's enrollment instance against a course.
//
// Invariants:
//   - Code is assigned by the companion service at creation and never changes
//   - Code and ID resolve to the same registration for every read and update
//   - Rollup is only replaced through the waive/complete workflow
type Registration struct {
	ID       int64       `json:"id"`
	TenantID int64       `json:"tenantId"`
	Code     string      `json:"code"`
	CourseID int64       `json:"courseId"`
	RemoteID string      `json:"-"`
	Actor    ActorRecord `json:"actor"`
	Rollup   RollupState `json:"rollup"`
	AUs      []CourseAU  `json:"aus,omitempty"`
}

// Account identifies an actor through an account on a system.
type Account struct {
	HomePage string `json:"homePage"`
	Name     string `json:"name"`
}

// ActorRecord is the learner identity document sent in every statement.
type ActorRecord struct {
	ObjectType  string   `json:"objectType,omitempty"`
	Name        string   `json:"name,omitempty"`
	Mbox        string   `json:"mbox,omitempty"`
	MboxSHA1Sum string   `json:"mbox_sha1sum,omitempty"`
	OpenID      string   `json:"openid,omitempty"`
	Account     *Account `json:"account,omitempty"`
}

// Validate requires exactly one inverse functional identifier.
func (a ActorRecord) Validate() error {
	ifis := 0
	if a.Mbox != "" {
		if !strings.HasPrefix(a.Mbox, "mailto:") {
			return dErrors.New(dErrors.CodeValidation, "actor mbox must be a mailto IRI")
		}
		ifis++
	}
	if a.MboxSHA1Sum != "" {
		ifis++
	}
	if a.OpenID != "" {
		ifis++
	}
	if a.Account != nil {
		if a.Account.HomePage == "" || a.Account.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "actor account requires homePage and name")
		}
		ifis++
	}
	if ifis != 1 {
		return dErrors.New(dErrors.CodeValidation, "actor requires exactly one identifier")
	}
	if a.ObjectType != "" && a.ObjectType != "Agent" {
		return dErrors.New(dErrors.CodeValidation, "actor objectType must be Agent")
	}
	return nil
}

// CourseAU is the per-(registration, AU) satisfaction row. IsSatisfied only
// becomes true through a waive or complete transition. A NotApplicable AU is
// satisfied in the registration's Rollup from creation, while its row stays
// unsatisfied until such a transition.
type CourseAU struct {
	ID             int64   `json:"id"`
	TenantID       int64   `json:"-"`
	RegistrationID int64   `json:"registrationId"`
	AUIndex        int     `json:"auIndex"`
	IsSatisfied    bool    `json:"isSatisfied"`
	IsWaived       bool    `json:"isWaived"`
	WaivedReason   *string `json:"waivedReason,omitempty"`
}

// Waiver is the justification recorded when an AU is satisfied without evidence.
type Waiver struct {
	Reason string
}

// CanChange reports whether the AU may still transition to satisfied.
func (au *CourseAU) CanChange() error {
	if au.IsSatisfied {
		return dErrors.New(dErrors.CodeConflict, "AU is already satisfied in registration")
	}
	return nil
}

// ApplySatisfied marks the AU satisfied, and waived when waiver is non-nil.
// Call CanChange first.
func (au *CourseAU) ApplySatisfied(waiver *Waiver) {
	au.IsSatisfied = true
	if waiver != nil {
		au.IsWaived = true
		reason := waiver.Reason
		au.WaivedReason = &reason
	}
}
