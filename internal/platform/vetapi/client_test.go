package vetapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoClassifiesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "no_medications",
			"message": "La receta no tiene medicamentos",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", zerolog.Nop())
	_, err := c.FinalizePrescription(context.Background(), "rx-1", []byte{0x01})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindRejected, apiErr.Kind)
	assert.Equal(t, "no_medications", apiErr.Code)
	assert.Equal(t, "La receta no tiene medicamentos", UserMessage(err), "server message shown verbatim")
	assert.Equal(t, "no_medications", CodeOf(err))
}

func TestDoClassifiesServerFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zerolog.Nop())
	_, err := c.GetPrescription(context.Background(), "rx-1")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindFault, apiErr.Kind)
	assert.Equal(t, genericRetryMessage, UserMessage(err), "5xx bodies are never shown")
}

func TestDoClassifiesNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "", zerolog.Nop())
	_, err := c.TodayLogs(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, genericRetryMessage, UserMessage(err))
}

func TestDoSendsAuthAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/appointments/apt-1/prescription", r.URL.Path)
		json.NewEncoder(w).Encode(Prescription{ID: "rx-1", Status: StatusDraft})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", zerolog.Nop())
	p, err := c.GetOrCreatePrescription(context.Background(), "apt-1")
	require.NoError(t, err)
	assert.Equal(t, "rx-1", p.ID)
	assert.Equal(t, StatusDraft, p.Status)
}

func TestLogDoseSendsStructuredPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "11111111-2222-3333-4444-555555555555", req["prescriptionItemId"])
		assert.Equal(t, "14:30", req["scheduledTime"])
		json.NewEncoder(w).Encode(map[string]bool{"logged": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zerolog.Nop())
	logged, err := c.LogDose(context.Background(), "11111111-2222-3333-4444-555555555555", "14:30")
	require.NoError(t, err)
	assert.True(t, logged)
}

func TestUserMessageFallsBackWithoutServerText(t *testing.T) {
	err := &Error{Kind: KindRejected, Status: 400}
	assert.Equal(t, genericRetryMessage, UserMessage(err))
}
