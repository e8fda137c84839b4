package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vetvisit/internal/optimistic"
)

// MedicationLog is the remote dose log. Each call toggles the persisted
// state of one dose; the optimistic set below is what the dashboard renders.
type MedicationLog interface {
	LogDose(ctx context.Context, prescriptionItemID, scheduledTime string) (bool, error)
}

// Tracker holds the completion set for one dashboard session and keeps it in
// sync with the remote log, optimistically.
type Tracker struct {
	mu        sync.Mutex
	completed CompletionSet
	log       MedicationLog
	logger    zerolog.Logger
}

// NewTracker seeds the tracker from the remote snapshot taken at load.
func NewTracker(snapshot CompletionSet, log MedicationLog, logger zerolog.Logger) *Tracker {
	if snapshot == nil {
		snapshot = CompletionSet{}
	}
	return &Tracker{
		completed: snapshot,
		log:       log,
		logger:    logger.With().Str("component", "tasks").Logger(),
	}
}

// Completed returns a copy of the current set.
func (t *Tracker) Completed() CompletionSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed.Clone()
}

func (t *Tracker) IsGroupCompleted(taskIDs []TaskID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return IsGroupCompleted(taskIDs, t.completed)
}

// ToggleGroup flips a whole medication group. The in-memory set changes
// before any network call; one log call per dose is issued concurrently, and
// if any of them fails the whole group is restored to its pre-toggle
// membership so it can never end up half-completed.
func (t *Tracker) ToggleGroup(ctx context.Context, taskIDs []TaskID) error {
	if len(taskIDs) == 0 {
		return fmt.Errorf("empty task group")
	}

	t.mu.Lock()
	allCompleted := IsGroupCompleted(taskIDs, t.completed)
	prior := make(map[TaskID]bool, len(taskIDs))
	for _, id := range taskIDs {
		prior[id] = t.completed.Has(id)
	}
	t.mu.Unlock()

	cmd := optimistic.Command{
		Apply: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for _, id := range taskIDs {
				if allCompleted {
					delete(t.completed, id)
				} else {
					t.completed[id] = struct{}{}
				}
			}
		},
		Revert: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for id, was := range prior {
				if was {
					t.completed[id] = struct{}{}
				} else {
					delete(t.completed, id)
				}
			}
		},
		Effects: t.logEffects(taskIDs),
	}

	if err := cmd.Run(ctx); err != nil {
		t.logger.Warn().Err(err).Int("tasks", len(taskIDs)).Msg("group toggle rolled back")
		return fmt.Errorf("log medication group: %w", err)
	}
	return nil
}

// ToggleSingle flips one dose with the same optimistic-then-reconciled
// semantics.
func (t *Tracker) ToggleSingle(ctx context.Context, taskID TaskID) error {
	return t.ToggleGroup(ctx, []TaskID{taskID})
}

func (t *Tracker) logEffects(taskIDs []TaskID) []func(ctx context.Context) error {
	effects := make([]func(ctx context.Context) error, len(taskIDs))
	for i, id := range taskIDs {
		effects[i] = func(ctx context.Context) error {
			_, err := t.log.LogDose(ctx, id.ItemID, id.ScheduledTime)
			return err
		}
	}
	return effects
}
