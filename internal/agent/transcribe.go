// Package agent holds the client for the backend AI service that turns a
// recorded consultation segment into structured data.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"vetvisit/internal/consultation"
	"vetvisit/internal/platform/vetapi"
)

type transcriberClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTranscriber returns a consultation.Transcriber backed by the AI
// transcription service. The timeout is the fixed upper bound on one upload;
// exceeding it is a network failure like any other.
func NewTranscriber(baseURL string, timeout time.Duration) consultation.Transcriber {
	return &transcriberClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *transcriberClient) Transcribe(ctx context.Context, audio []byte, appointmentID string) (*consultation.TranscriptionDelta, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("appointment_id", appointmentID); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("audio", "segment.m4a")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &vetapi.Error{Kind: vetapi.KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &vetapi.Error{Kind: vetapi.KindFault, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		var er errorResponse
		if respBody, err := io.ReadAll(resp.Body); err == nil {
			_ = json.Unmarshal(respBody, &er)
		}
		return nil, &vetapi.Error{Kind: vetapi.KindRejected, Status: resp.StatusCode, Code: er.Code, Message: er.Message}
	}

	var delta consultation.TranscriptionDelta
	if err := json.NewDecoder(resp.Body).Decode(&delta); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &delta, nil
}
