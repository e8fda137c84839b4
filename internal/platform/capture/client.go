// Package capture talks to the on-device audio capture bridge. The bridge
// owns the microphone; this client only starts and stops a take and pulls
// the resulting artifact.
package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) Start(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/capture/start", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("capture bridge unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("capture start returned %s: %s", resp.Status, string(respBody))
	}
	return nil
}

type stopResponse struct {
	URI         string `json:"uri"`
	AudioBase64 string `json:"audioBase64"`
}

// Stop ends the take. An empty artifact means capture failed on the device.
func (c *Client) Stop(ctx context.Context) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/capture/stop", nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("capture bridge unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("capture stop returned %s: %s", resp.Status, string(respBody))
	}

	var sr stopResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", nil, fmt.Errorf("decode capture artifact: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(sr.AudioBase64)
	if err != nil {
		return "", nil, fmt.Errorf("decode capture artifact: %w", err)
	}
	return sr.URI, audio, nil
}
