package models

// RollupStateVersion is the current version of the persisted metadata document.
const RollupStateVersion = 1

// AUProgress holds the recorded facts for one AU.
type AUProgress struct {
	Index     int  `json:"index"`
	Completed bool `json:"completed"`
	Passed    bool `json:"passed"`
	Waived    bool `json:"waived"`
	Satisfied bool `json:"satisfied"`
}

// RollupState is the per-registration progress document: per-AU facts,
// per-block satisfaction and the course flag.
type RollupState struct {
	Version   int             `json:"version"`
	Satisfied bool            `json:"satisfied"`
	Blocks    map[string]bool `json:"blocks,omitempty"`
	AUs       []AUProgress    `json:"aus"`
}

// NewRollupState seeds an unsatisfied state for auCount AUs.
func NewRollupState(auCount int) RollupState {
	aus := make([]AUProgress, auCount)
	for i := range aus {
		aus[i].Index = i
	}
	return RollupState{Version: RollupStateVersion, AUs: aus}
}

// Clone returns a deep copy.
func (r RollupState) Clone() RollupState {
	out := RollupState{Version: r.Version, Satisfied: r.Satisfied}
	if r.Blocks != nil {
		out.Blocks = make(map[string]bool, len(r.Blocks))
		for k, v := range r.Blocks {
			out.Blocks[k] = v
		}
	}
	out.AUs = make([]AUProgress, len(r.AUs))
	copy(out.AUs, r.AUs)
	return out
}

// Progress returns the facts for index, zero-valued when absent.
func (r RollupState) Progress(index int) AUProgress {
	for _, p := range r.AUs {
		if p.Index == index {
			return p
		}
	}
	return AUProgress{Index: index}
}

// SetProgress replaces or appends the facts for p.Index.
func (r *RollupState) SetProgress(p AUProgress) {
	for i := range r.AUs {
		if r.AUs[i].Index == p.Index {
			r.AUs[i] = p
			return
		}
	}
	r.AUs = append(r.AUs, p)
}
