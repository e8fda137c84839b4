package tasks

import (
	"fmt"
	"time"
)

// GroupByPetThenMedication folds the flat task list into pet buckets, each
// holding per-medication groups. Input order is server-defined and preserved:
// buckets and groups appear in first-seen order, and Times[i]/TaskIDs[i] stay
// positionally aligned.
func GroupByPetThenMedication(taskList []DailyTask) []PetTaskBucket {
	buckets := []PetTaskBucket{}
	bucketIdx := map[string]int{}
	groupIdx := map[string]map[string]int{}

	for _, task := range taskList {
		bi, ok := bucketIdx[task.PetID]
		if !ok {
			bi = len(buckets)
			bucketIdx[task.PetID] = bi
			groupIdx[task.PetID] = map[string]int{}
			buckets = append(buckets, PetTaskBucket{PetID: task.PetID, PetName: task.PetName})
		}

		gi, ok := groupIdx[task.PetID][task.MedicationName]
		if !ok {
			gi = len(buckets[bi].Groups)
			groupIdx[task.PetID][task.MedicationName] = gi
			buckets[bi].Groups = append(buckets[bi].Groups, &MedicationTaskGroup{
				MedicationName: task.MedicationName,
				Dosage:         task.Dosage,
			})
		}

		group := buckets[bi].Groups[gi]
		group.Times = append(group.Times, task.Time)
		group.TaskIDs = append(group.TaskIDs, task.ID)
	}

	return buckets
}

// IsGroupCompleted reports whether every dose of a group is logged. A
// partially logged group is never shown as complete.
func IsGroupCompleted(taskIDs []TaskID, completed CompletionSet) bool {
	if len(taskIDs) == 0 {
		return false
	}
	for _, id := range taskIDs {
		if !completed.Has(id) {
			return false
		}
	}
	return true
}

// IsTimePast compares an "HH:mm" time of day against now on the same
// calendar day. A task exactly at the current minute is not yet past.
func IsTimePast(now time.Time, timeStr string) bool {
	var h, m int
	if _, err := fmt.Sscanf(timeStr, "%d:%d", &h, &m); err != nil {
		return false
	}
	slot := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	return slot.Before(now.Truncate(time.Minute))
}

// NextUpcoming returns the first time in the list that is not yet past.
func NextUpcoming(now time.Time, times []string) (string, bool) {
	for _, t := range times {
		if !IsTimePast(now, t) {
			return t, true
		}
	}
	return "", false
}
