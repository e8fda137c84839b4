package consultation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStartsLoading(t *testing.T) {
	s := NewSession("apt-1", "pet-1", "Luna", "")
	assert.Equal(t, StateLoading, s.State())
}

func TestAdvanceRejectsDisallowedTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		ok   bool
	}{
		{"load retry", StateLoading, StateLoading, true},
		{"load done", StateLoading, StateReady, true},
		{"record from ready", StateReady, StateRecording, true},
		{"record while uploading", StateUploading, StateRecording, false},
		{"record while recording", StateRecording, StateRecording, false},
		{"stop to upload", StateRecording, StateUploading, true},
		{"upload settles to ready", StateUploading, StateReady, true},
		{"finalize straight from loading", StateLoading, StateSigning, false},
		{"credential gate", StateReady, StateAwaitingCredential, true},
		{"credential resumes", StateAwaitingCredential, StateSigning, true},
		{"commit", StateSigning, StateFinalizing, true},
		{"commit failure returns to signing", StateFinalizing, StateSigning, true},
		{"commit success", StateFinalizing, StateDone, true},
		{"reopen finalized", StateDone, StateReady, true},
		{"record while done", StateDone, StateRecording, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("apt-1", "pet-1", "Luna", "")
			s.state = tt.from
			err := s.advance("test", tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, s.State())
			} else {
				var terr *ErrInvalidTransition
				require.ErrorAs(t, err, &terr)
				assert.Equal(t, tt.from, s.State(), "state must not move on rejection")
			}
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewSession("apt-1", "pet-1", "Luna", "")
	s.draft.Vitals["weight"] = "12.4kg"

	snap := s.Snapshot()
	snap.Draft.Vitals["weight"] = "tampered"
	snap.Draft.DraftActions = append(snap.Draft.DraftActions, DraftAction{Name: "x"})

	assert.Equal(t, "12.4kg", s.draft.Vitals["weight"])
	assert.Empty(t, s.draft.DraftActions)
}
