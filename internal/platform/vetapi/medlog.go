package vetapi

import (
	"context"
	"net/http"
)

// ScheduleEntry is one scheduled dose for today, flattened by the server:
// one entry per (prescription item, time) pair.
type ScheduleEntry struct {
	PrescriptionItemID string `json:"prescriptionItemId"`
	PetID              string `json:"petId"`
	PetName            string `json:"petName"`
	MedicationName     string `json:"medicationName"`
	Dosage             string `json:"dosage"`
	Time               string `json:"time"` // "HH:mm"
}

// LogEntry is one recorded dose in today's medication log. The map key on the
// wire is the composite task id "{prescriptionItemId}-{scheduledTime}".
type LogEntry struct {
	LoggedAt string `json:"loggedAt"`
}

type logDoseReq struct {
	PrescriptionItemID string `json:"prescriptionItemId"`
	ScheduledTime      string `json:"scheduledTime"`
}

type logDoseResp struct {
	Logged bool `json:"logged"`
}

// TodaySchedule returns the flat per-dose schedule for today.
func (c *Client) TodaySchedule(ctx context.Context) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	if err := c.do(ctx, http.MethodGet, "/v1/medication-logs/today/schedule", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// TodayLogs returns today's medication log keyed by composite task id.
func (c *Client) TodayLogs(ctx context.Context) (map[string]LogEntry, error) {
	var logs map[string]LogEntry
	if err := c.do(ctx, http.MethodGet, "/v1/medication-logs/today", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// LogDose toggles the persisted log state for one scheduled dose. The server
// reports the resulting state; callers treat the call itself as the unit of
// success or failure.
func (c *Client) LogDose(ctx context.Context, prescriptionItemID, scheduledTime string) (bool, error) {
	var resp logDoseResp
	req := logDoseReq{PrescriptionItemID: prescriptionItemID, ScheduledTime: scheduledTime}
	if err := c.do(ctx, http.MethodPost, "/v1/medication-logs", req, &resp); err != nil {
		return false, err
	}
	return resp.Logged, nil
}
