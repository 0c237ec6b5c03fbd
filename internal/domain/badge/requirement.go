package badge

import (
	"encoding/json"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT
// ══════════════════════════════════════════════════════════════════════════════

// Requirement is one checklist item of a badge together with the evidence
// recorded against it. Completion is always derived from the evidence and the
// item's demands; there is no way to set it directly.
type Requirement struct {
	ID          string
	Description string

	requireAttachment bool
	requireNote       bool
	evidenceURL       string
	evidenceNote      string
	completed         bool
}

// NewRequirement creates a requirement with no evidence.
// An item that demands neither an attachment nor a note starts out complete.
func NewRequirement(id, description string, requireAttachment, requireNote bool) Requirement {
	r := Requirement{
		ID:                id,
		Description:       description,
		requireAttachment: requireAttachment,
		requireNote:       requireNote,
	}
	r.derive()
	return r
}

// RequiresAttachment reports whether a non-empty evidence URL is demanded.
func (r Requirement) RequiresAttachment() bool { return r.requireAttachment }

// RequiresNote reports whether a non-empty evidence note is demanded.
func (r Requirement) RequiresNote() bool { return r.requireNote }

// EvidenceURL returns the recorded attachment reference.
func (r Requirement) EvidenceURL() string { return r.evidenceURL }

// EvidenceNote returns the recorded note.
func (r Requirement) EvidenceNote() string { return r.evidenceNote }

// IsCompleted reports whether every demanded piece of evidence is present.
func (r Requirement) IsCompleted() bool { return r.completed }

// Evidence carries a partial update. Nil fields leave the stored value untouched.
type Evidence struct {
	URL  *string
	Note *string
}

// RecordEvidence sets the provided evidence fields and re-derives completion.
func (r *Requirement) RecordEvidence(ev Evidence) {
	if ev.URL != nil {
		r.evidenceURL = *ev.URL
	}
	if ev.Note != nil {
		r.evidenceNote = *ev.Note
	}
	r.derive()
}

// Revoke clears all evidence. Completion falls back to its vacuous value.
func (r *Requirement) Revoke() {
	r.evidenceURL = ""
	r.evidenceNote = ""
	r.derive()
}

// HasEvidence reports whether anything has been recorded.
func (r Requirement) HasEvidence() bool {
	return present(r.evidenceURL) || present(r.evidenceNote)
}

// StripEvidence returns a copy with evidence cleared, used when a badge is
// copied into the library or a journal.
func (r Requirement) StripEvidence() Requirement {
	r.Revoke()
	return r
}

func (r *Requirement) derive() {
	hasURL := present(r.evidenceURL)
	hasNote := present(r.evidenceNote)
	r.completed = (!r.requireAttachment || hasURL) && (!r.requireNote || hasNote)
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// requirementJSON is the persisted shape. isCompleted is written for readers
// of the snapshot but recomputed on load.
type requirementJSON struct {
	ID                string `json:"id"`
	Description       string `json:"description"`
	IsCompleted       bool   `json:"isCompleted"`
	EvidenceURL       string `json:"evidenceUrl,omitempty"`
	EvidenceNote      string `json:"evidenceNote,omitempty"`
	RequireAttachment bool   `json:"requireAttachment"`
	RequireNote       bool   `json:"requireNote"`
}

// MarshalJSON implements json.Marshaler.
func (r Requirement) MarshalJSON() ([]byte, error) {
	return json.Marshal(requirementJSON{
		ID:                r.ID,
		Description:       r.Description,
		IsCompleted:       r.completed,
		EvidenceURL:       r.evidenceURL,
		EvidenceNote:      r.evidenceNote,
		RequireAttachment: r.requireAttachment,
		RequireNote:       r.requireNote,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The stored completion flag is ignored.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw requirementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Requirement{
		ID:                raw.ID,
		Description:       raw.Description,
		requireAttachment: raw.RequireAttachment,
		requireNote:       raw.RequireNote,
		evidenceURL:       raw.EvidenceURL,
		evidenceNote:      raw.EvidenceNote,
	}
	r.derive()
	return nil
}
