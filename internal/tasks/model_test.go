package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskIDSplitsFromTheRight(t *testing.T) {
	// Item ids are UUIDs: they contain the separator themselves.
	id, err := ParseTaskID("11111111-2222-3333-4444-555555555555-14:30")
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", id.ItemID)
	assert.Equal(t, "14:30", id.ScheduledTime)
}

func TestParseTaskIDMalformed(t *testing.T) {
	for _, s := range []string{"", "noseparator", "-08:00", "itemid-"} {
		_, err := ParseTaskID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestTaskIDRoundTrip(t *testing.T) {
	id := TaskID{ItemID: "11111111-2222-3333-4444-555555555555", ScheduledTime: "14:30"}
	parsed, err := ParseTaskID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestTaskIDJSONUsesCompositeForm(t *testing.T) {
	id := TaskID{ItemID: "item-1", ScheduledTime: "08:00"}
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"item-1-08:00"`, string(data))

	var back TaskID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)
}
