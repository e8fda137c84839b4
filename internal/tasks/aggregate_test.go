package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(pet, petName, med, timeStr string) DailyTask {
	return DailyTask{
		ID:             TaskID{ItemID: "item-" + pet + "-" + med, ScheduledTime: timeStr},
		PetID:          pet,
		PetName:        petName,
		MedicationName: med,
		Dosage:         "250mg",
		Time:           timeStr,
	}
}

func TestGroupByPetThenMedication(t *testing.T) {
	taskList := []DailyTask{
		task("A", "Luna", "X", "08:00"),
		task("A", "Luna", "X", "20:00"),
		task("B", "Max", "Y", "09:00"),
	}

	buckets := GroupByPetThenMedication(taskList)
	require.Len(t, buckets, 2)

	assert.Equal(t, "A", buckets[0].PetID)
	require.Len(t, buckets[0].Groups, 1)
	groupX := buckets[0].Groups[0]
	assert.Equal(t, "X", groupX.MedicationName)
	assert.Equal(t, []string{"08:00", "20:00"}, groupX.Times)
	require.Len(t, groupX.TaskIDs, 2)
	assert.Equal(t, "08:00", groupX.TaskIDs[0].ScheduledTime, "times and ids stay positionally aligned")
	assert.Equal(t, "20:00", groupX.TaskIDs[1].ScheduledTime)

	assert.Equal(t, "B", buckets[1].PetID)
	require.Len(t, buckets[1].Groups, 1)
	assert.Equal(t, "Y", buckets[1].Groups[0].MedicationName)
}

func TestGroupingPreservesFirstSeenOrder(t *testing.T) {
	taskList := []DailyTask{
		task("B", "Max", "Y", "09:00"),
		task("A", "Luna", "X", "08:00"),
		task("B", "Max", "Z", "10:00"),
		task("B", "Max", "Y", "21:00"),
	}

	buckets := GroupByPetThenMedication(taskList)
	require.Len(t, buckets, 2)
	assert.Equal(t, "B", buckets[0].PetID)
	assert.Equal(t, "A", buckets[1].PetID)
	require.Len(t, buckets[0].Groups, 2)
	assert.Equal(t, "Y", buckets[0].Groups[0].MedicationName)
	assert.Equal(t, "Z", buckets[0].Groups[1].MedicationName)
	assert.Equal(t, []string{"09:00", "21:00"}, buckets[0].Groups[0].Times)
}

func TestGroupByPetThenMedicationEmpty(t *testing.T) {
	assert.Empty(t, GroupByPetThenMedication(nil))
}

func TestIsGroupCompletedAllOrNothing(t *testing.T) {
	ids := []TaskID{
		{ItemID: "i1", ScheduledTime: "08:00"},
		{ItemID: "i1", ScheduledTime: "14:00"},
		{ItemID: "i1", ScheduledTime: "20:00"},
	}

	completed := CompletionSet{ids[0]: {}, ids[1]: {}}
	assert.False(t, IsGroupCompleted(ids, completed), "2 of 3 is not complete")

	completed[ids[2]] = struct{}{}
	assert.True(t, IsGroupCompleted(ids, completed))

	assert.False(t, IsGroupCompleted(nil, completed))
}

func TestIsTimePastBoundary(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 30, 45, 0, time.UTC)

	assert.True(t, IsTimePast(now, "14:29"))
	assert.False(t, IsTimePast(now, "14:30"), "the current minute is not yet past")
	assert.False(t, IsTimePast(now, "14:31"))
	assert.False(t, IsTimePast(now, "bogus"))
}

func TestNextUpcoming(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	next, ok := NextUpcoming(now, []string{"08:00", "14:00", "20:00"})
	require.True(t, ok)
	assert.Equal(t, "20:00", next)

	next, ok = NextUpcoming(now, []string{"08:00", "14:30"})
	require.True(t, ok)
	assert.Equal(t, "14:30", next)

	_, ok = NextUpcoming(now, []string{"08:00", "12:00"})
	assert.False(t, ok)
}
