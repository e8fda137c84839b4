package consultation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func newDraft() Draft {
	return Draft{
		Vitals:       map[string]string{},
		DraftActions: []DraftAction{},
	}
}

func TestApplyDeltaAdditive(t *testing.T) {
	// Deltas with non-overlapping field sets union regardless of order.
	deltas := []*TranscriptionDelta{
		{Vitals: map[string]*string{"weight": strPtr("12.4kg")}},
		{Vitals: map[string]*string{"temperature": strPtr("38.5C")}},
		{Vitals: map[string]*string{"heartRate": strPtr("96bpm")}},
	}

	want := map[string]string{
		"weight":      "12.4kg",
		"temperature": "38.5C",
		"heartRate":   "96bpm",
	}

	forward := newDraft()
	for _, d := range deltas {
		applyDelta(&forward, d)
	}
	assert.Equal(t, want, forward.Vitals)

	backward := newDraft()
	for i := len(deltas) - 1; i >= 0; i-- {
		applyDelta(&backward, deltas[i])
	}
	assert.Equal(t, want, backward.Vitals)
}

func TestApplyDeltaOverwritesOnlyNonNull(t *testing.T) {
	d := newDraft()
	d.Vitals["weight"] = "12.4kg"
	d.Vitals["temperature"] = "38.5C"

	applyDelta(&d, &TranscriptionDelta{
		Vitals: map[string]*string{
			"weight":      strPtr("12.9kg"),
			"temperature": nil, // observed nothing, must not clear
		},
	})

	assert.Equal(t, "12.9kg", d.Vitals["weight"])
	assert.Equal(t, "38.5C", d.Vitals["temperature"])
}

func TestApplyDeltaEmptyVitalsLeavesDraftUnchanged(t *testing.T) {
	d := newDraft()
	d.Vitals["weight"] = "12.4kg"

	applyDelta(&d, &TranscriptionDelta{})
	applyDelta(&d, &TranscriptionDelta{Vitals: map[string]*string{}})

	assert.Equal(t, map[string]string{"weight": "12.4kg"}, d.Vitals)
	assert.Empty(t, d.DraftActions)
}

func TestApplyDeltaActionsAppendOnly(t *testing.T) {
	d := newDraft()

	segments := [][]DraftAction{
		{{Name: "applied rabies vaccine", Status: "done"}},
		{{Name: "applied rabies vaccine", Status: "done"}, {Name: "deworming", Status: "pending"}},
		{},
		{{Name: "nail trim", Status: "done"}},
	}

	total := 0
	for _, actions := range segments {
		applyDelta(&d, &TranscriptionDelta{DraftActions: actions})
		total += len(actions)
	}

	assert.Len(t, d.DraftActions, total)
	// Duplicates by name survive, order is delivery order.
	assert.Equal(t, "applied rabies vaccine", d.DraftActions[0].Name)
	assert.Equal(t, "applied rabies vaccine", d.DraftActions[1].Name)
	assert.Equal(t, "deworming", d.DraftActions[2].Name)
	assert.Equal(t, "nail trim", d.DraftActions[3].Name)
}
