package badge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestRequirement_CompletionFollowsEvidence(t *testing.T) {
	type step struct {
		name string
		ev   *Evidence // nil means revoke
	}
	steps := []step{
		{"url only", &Evidence{URL: strp("https://example.org/photo.jpg")}},
		{"note only", &Evidence{Note: strp("planted twelve saplings")}},
		{"blank note", &Evidence{Note: strp("   ")}},
		{"both", &Evidence{URL: strp("https://example.org/a"), Note: strp("done")}},
		{"revoke", nil},
		{"clear url", &Evidence{URL: strp("")}},
	}

	for _, attach := range []bool{false, true} {
		for _, note := range []bool{false, true} {
			r := NewRequirement("r1", "plant a tree", attach, note)
			assert.Equal(t, !attach && !note, r.IsCompleted(), "fresh attach=%v note=%v", attach, note)

			for _, s := range steps {
				if s.ev == nil {
					r.Revoke()
					assert.Empty(t, r.EvidenceURL())
					assert.Empty(t, r.EvidenceNote())
				} else {
					r.RecordEvidence(*s.ev)
				}
				hasURL := present(r.EvidenceURL())
				hasNote := present(r.EvidenceNote())
				want := (!attach || hasURL) && (!note || hasNote)
				assert.Equal(t, want, r.IsCompleted(), "%s attach=%v note=%v", s.name, attach, note)
			}
		}
	}
}

func TestRequirement_RevokeOnEvidenceDemandingItem(t *testing.T) {
	r := NewRequirement("r1", "write an essay", false, true)
	r.RecordEvidence(Evidence{Note: strp("essay written")})
	require.True(t, r.IsCompleted())

	r.Revoke()
	assert.False(t, r.IsCompleted())
	assert.False(t, r.HasEvidence())
}

func TestRequirement_RecordEvidenceKeepsUnprovidedFields(t *testing.T) {
	r := NewRequirement("r1", "document the work", true, true)
	r.RecordEvidence(Evidence{URL: strp("https://example.org/doc")})
	r.RecordEvidence(Evidence{Note: strp("notes")})

	assert.Equal(t, "https://example.org/doc", r.EvidenceURL())
	assert.Equal(t, "notes", r.EvidenceNote())
	assert.True(t, r.IsCompleted())
}

func TestRequirement_JSONRecomputesCompletion(t *testing.T) {
	raw := `{"id":"r1","description":"x","isCompleted":true,"requireAttachment":true,"requireNote":false}`
	var r Requirement
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.False(t, r.IsCompleted(), "stored flag must not override missing evidence")

	legacy := `{"id":"r2","description":"simple checklist","isCompleted":false}`
	require.NoError(t, json.Unmarshal([]byte(legacy), &r))
	assert.True(t, r.IsCompleted(), "items without demands are trivially satisfied")

	r = NewRequirement("r3", "y", true, false)
	r.RecordEvidence(Evidence{URL: strp("https://example.org")})
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var back Requirement
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}
