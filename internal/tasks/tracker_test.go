package tasks

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetvisit/internal/platform/vetapi"
)

// fakeLog fails the calls whose composite id is listed in failFor.
type fakeLog struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]bool
}

func (f *fakeLog) LogDose(ctx context.Context, itemID, scheduledTime string) (bool, error) {
	key := itemID + "-" + scheduledTime
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if f.failFor[key] {
		return false, &vetapi.Error{Kind: vetapi.KindNetwork, Message: "timeout"}
	}
	return true, nil
}

func groupIDs() []TaskID {
	return []TaskID{
		{ItemID: "i1", ScheduledTime: "08:00"},
		{ItemID: "i1", ScheduledTime: "14:00"},
		{ItemID: "i1", ScheduledTime: "20:00"},
	}
}

func TestToggleGroupCompletes(t *testing.T) {
	log := &fakeLog{}
	tr := NewTracker(nil, log, zerolog.Nop())
	ids := groupIDs()

	require.NoError(t, tr.ToggleGroup(context.Background(), ids))
	assert.True(t, tr.IsGroupCompleted(ids))
	assert.Len(t, log.calls, 3, "one log call per dose")
}

func TestToggleGroupUncompletesWhenAllDone(t *testing.T) {
	ids := groupIDs()
	seed := CompletionSet{}
	for _, id := range ids {
		seed[id] = struct{}{}
	}
	tr := NewTracker(seed, &fakeLog{}, zerolog.Nop())

	require.NoError(t, tr.ToggleGroup(context.Background(), ids))
	assert.Empty(t, tr.Completed())
}

func TestToggleGroupRollsBackWholeBatch(t *testing.T) {
	ids := groupIDs()
	log := &fakeLog{failFor: map[string]bool{"i1-14:00": true}}
	tr := NewTracker(nil, log, zerolog.Nop())

	err := tr.ToggleGroup(context.Background(), ids)
	require.Error(t, err)
	assert.Empty(t, tr.Completed(), "no id survives a partial failure")
	assert.Len(t, log.calls, 3, "all calls settle before the rollback decision")
}

func TestToggleGroupRollbackRestoresMixedMembership(t *testing.T) {
	// A group with one dose already logged: toggling marks the rest, and a
	// failure restores exactly the prior mixed membership.
	ids := groupIDs()
	seed := CompletionSet{ids[0]: {}}
	log := &fakeLog{failFor: map[string]bool{"i1-20:00": true}}
	tr := NewTracker(seed.Clone(), log, zerolog.Nop())

	err := tr.ToggleGroup(context.Background(), ids)
	require.Error(t, err)
	assert.Equal(t, seed, tr.Completed())
}

func TestToggleSingleOptimisticAndRollback(t *testing.T) {
	id := TaskID{ItemID: "i9", ScheduledTime: "08:00"}

	tr := NewTracker(nil, &fakeLog{}, zerolog.Nop())
	require.NoError(t, tr.ToggleSingle(context.Background(), id))
	assert.True(t, tr.Completed().Has(id))

	require.NoError(t, tr.ToggleSingle(context.Background(), id))
	assert.False(t, tr.Completed().Has(id))

	failing := NewTracker(nil, &fakeLog{failFor: map[string]bool{"i9-08:00": true}}, zerolog.Nop())
	require.Error(t, failing.ToggleSingle(context.Background(), id))
	assert.False(t, failing.Completed().Has(id))
}

func TestToggleGroupEmpty(t *testing.T) {
	tr := NewTracker(nil, &fakeLog{}, zerolog.Nop())
	assert.Error(t, tr.ToggleGroup(context.Background(), nil))
}
