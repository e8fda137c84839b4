package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vetvisit/internal/platform/vetapi"
)

// ScheduleSource supplies today's dose schedule and the authoritative log
// snapshot, both re-fetched on every dashboard load.
type ScheduleSource interface {
	TodaySchedule(ctx context.Context) ([]vetapi.ScheduleEntry, error)
	TodayLogs(ctx context.Context) (map[string]vetapi.LogEntry, error)
}

type dashboard struct {
	buckets []PetTaskBucket
	tracker *Tracker
}

// Service owns the live dashboard sessions. Nothing here is persisted:
// closing a dashboard throws its state away and the next load rebuilds from
// the platform.
type Service struct {
	mu         sync.RWMutex
	dashboards map[uuid.UUID]*dashboard

	source ScheduleSource
	log    MedicationLog
	logger zerolog.Logger
}

func NewService(source ScheduleSource, log MedicationLog, logger zerolog.Logger) *Service {
	return &Service{
		dashboards: map[uuid.UUID]*dashboard{},
		source:     source,
		log:        log,
		logger:     logger.With().Str("component", "tasks").Logger(),
	}
}

// Load opens a dashboard session: fetches today's schedule and log snapshot,
// derives the grouped view model and seeds the completion tracker.
func (s *Service) Load(ctx context.Context) (uuid.UUID, error) {
	entries, err := s.source.TodaySchedule(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load schedule: %w", err)
	}
	logs, err := s.source.TodayLogs(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load medication log: %w", err)
	}

	taskList := make([]DailyTask, 0, len(entries))
	for _, e := range entries {
		taskList = append(taskList, taskFromEntry(e))
	}

	completed := CompletionSet{}
	for key := range logs {
		id, err := ParseTaskID(key)
		if err != nil {
			s.logger.Warn().Str("key", key).Msg("skipping malformed log key")
			continue
		}
		completed[id] = struct{}{}
	}

	id := uuid.New()
	s.mu.Lock()
	s.dashboards[id] = &dashboard{
		buckets: GroupByPetThenMedication(taskList),
		tracker: NewTracker(completed, s.log, s.logger),
	}
	s.mu.Unlock()

	s.logger.Info().Str("dashboard", id.String()).Int("tasks", len(taskList)).Msg("dashboard loaded")
	return id, nil
}

func (s *Service) Close(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dashboards, id)
}

func (s *Service) get(id uuid.UUID) (*dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dashboards[id]
	if !ok {
		return nil, fmt.Errorf("dashboard not found")
	}
	return d, nil
}

// GroupView is one medication group with its derived presentation flags.
type GroupView struct {
	MedicationName string   `json:"medicationName"`
	Dosage         string   `json:"dosage"`
	Times          []string `json:"times"`
	TaskIDs        []TaskID `json:"taskIds"`
	Completed      bool     `json:"completed"`
	NextUpcoming   string   `json:"nextUpcoming,omitempty"`
	TimesPast      []bool   `json:"timesPast"`
}

type BucketView struct {
	PetID   string      `json:"petId"`
	PetName string      `json:"petName"`
	Groups  []GroupView `json:"groups"`
}

type DashboardView struct {
	ID        uuid.UUID    `json:"id"`
	Buckets   []BucketView `json:"buckets"`
	Completed []TaskID     `json:"completed"`
}

// View renders the dashboard at a point in time. The time-derived flags are
// recomputed on every call; nothing is memoized.
func (s *Service) View(id uuid.UUID, now time.Time) (DashboardView, error) {
	d, err := s.get(id)
	if err != nil {
		return DashboardView{}, err
	}

	completed := d.tracker.Completed()
	view := DashboardView{ID: id, Completed: make([]TaskID, 0, len(completed))}
	for tid := range completed {
		view.Completed = append(view.Completed, tid)
	}

	for _, bucket := range d.buckets {
		bv := BucketView{PetID: bucket.PetID, PetName: bucket.PetName}
		for _, g := range bucket.Groups {
			gv := GroupView{
				MedicationName: g.MedicationName,
				Dosage:         g.Dosage,
				Times:          g.Times,
				TaskIDs:        g.TaskIDs,
				Completed:      IsGroupCompleted(g.TaskIDs, completed),
				TimesPast:      make([]bool, len(g.Times)),
			}
			for i, t := range g.Times {
				gv.TimesPast[i] = IsTimePast(now, t)
			}
			if next, ok := NextUpcoming(now, g.Times); ok {
				gv.NextUpcoming = next
			}
			bv.Groups = append(bv.Groups, gv)
		}
		view.Buckets = append(view.Buckets, bv)
	}
	return view, nil
}

func (s *Service) ToggleGroup(ctx context.Context, id uuid.UUID, taskIDs []TaskID) error {
	d, err := s.get(id)
	if err != nil {
		return err
	}
	return d.tracker.ToggleGroup(ctx, taskIDs)
}

func (s *Service) ToggleSingle(ctx context.Context, id uuid.UUID, taskID TaskID) error {
	d, err := s.get(id)
	if err != nil {
		return err
	}
	return d.tracker.ToggleSingle(ctx, taskID)
}
