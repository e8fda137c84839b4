// Package tasks derives the daily medication dashboard from the platform's
// flat per-dose schedule and tracks completion optimistically.
package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	"vetvisit/internal/platform/vetapi"
)

// TaskID identifies one scheduled dose: a prescription item at a time of day.
// The composite string form exists only at the wire boundary.
type TaskID struct {
	ItemID        string
	ScheduledTime string // "HH:mm"
}

// String renders the wire form "{prescriptionItemId}-{scheduledTime}".
func (id TaskID) String() string {
	return id.ItemID + "-" + id.ScheduledTime
}

// ParseTaskID splits a composite task id on the LAST separator. Item ids are
// UUIDs and contain the separator themselves, so splitting from the left
// would truncate them.
func ParseTaskID(s string) (TaskID, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return TaskID{}, fmt.Errorf("malformed task id %q", s)
	}
	return TaskID{ItemID: s[:i], ScheduledTime: s[i+1:]}, nil
}

// MarshalJSON keeps the composite string form on the wire.
func (id TaskID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *TaskID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTaskID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// DailyTask is one scheduled dose for today, derived from the platform's
// schedule on every load.
type DailyTask struct {
	ID             TaskID
	PetID          string
	PetName        string
	MedicationName string
	Dosage         string
	Time           string // "HH:mm"
}

// taskFromEntry adapts one wire schedule entry.
func taskFromEntry(e vetapi.ScheduleEntry) DailyTask {
	return DailyTask{
		ID:             TaskID{ItemID: e.PrescriptionItemID, ScheduledTime: e.Time},
		PetID:          e.PetID,
		PetName:        e.PetName,
		MedicationName: e.MedicationName,
		Dosage:         e.Dosage,
		Time:           e.Time,
	}
}

// MedicationTaskGroup is one medication's doses for one pet. Times[i] and
// TaskIDs[i] describe the same dose.
type MedicationTaskGroup struct {
	MedicationName string   `json:"medicationName"`
	Dosage         string   `json:"dosage"`
	Times          []string `json:"times"`
	TaskIDs        []TaskID `json:"taskIds"`
}

// PetTaskBucket groups one pet's medications, in first-seen order.
type PetTaskBucket struct {
	PetID   string                 `json:"petId"`
	PetName string                 `json:"petName"`
	Groups  []*MedicationTaskGroup `json:"groups"`
}

// CompletionSet is the set of doses logged today. It lives only for the
// current dashboard session; every load re-fetches the authoritative set.
type CompletionSet map[TaskID]struct{}

func (s CompletionSet) Has(id TaskID) bool {
	_, ok := s[id]
	return ok
}

func (s CompletionSet) Clone() CompletionSet {
	out := make(CompletionSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
