package vetapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
)

const (
	StatusDraft     = "DRAFT"
	StatusFinalized = "FINALIZED"
)

// Prescription is the platform's record for one visit. The server owns item
// ids and item order.
type Prescription struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Items       []MedicationItem  `json:"items"`
	Vitals      map[string]string `json:"vitals,omitempty"`
	Diagnosis   string            `json:"diagnosis,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	PublicToken string            `json:"publicToken,omitempty"`
}

type MedicationItem struct {
	ID           string `json:"id"`
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// MedicationItemForm is the payload for adding or editing one item.
type MedicationItemForm struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type FinalizeResult struct {
	PublicToken string `json:"publicToken"`
	ShareURL    string `json:"shareUrl"`
}

// GetOrCreatePrescription returns the draft prescription for an appointment,
// creating it server-side on first call.
func (c *Client) GetOrCreatePrescription(ctx context.Context, appointmentID string) (*Prescription, error) {
	var p Prescription
	path := "/v1/appointments/" + url.PathEscape(appointmentID) + "/prescription"
	if err := c.do(ctx, http.MethodPut, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPrescription(ctx context.Context, prescriptionID string) (*Prescription, error) {
	var p Prescription
	path := "/v1/prescriptions/" + url.PathEscape(prescriptionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AddItem(ctx context.Context, prescriptionID string, form MedicationItemForm) error {
	path := "/v1/prescriptions/" + url.PathEscape(prescriptionID) + "/items"
	return c.do(ctx, http.MethodPost, path, form, nil)
}

func (c *Client) UpdateItem(ctx context.Context, prescriptionID, itemID string, form MedicationItemForm) error {
	path := fmt.Sprintf("/v1/prescriptions/%s/items/%s", url.PathEscape(prescriptionID), url.PathEscape(itemID))
	return c.do(ctx, http.MethodPut, path, form, nil)
}

func (c *Client) RemoveItem(ctx context.Context, prescriptionID, itemID string) error {
	path := fmt.Sprintf("/v1/prescriptions/%s/items/%s", url.PathEscape(prescriptionID), url.PathEscape(itemID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

type finalizeReq struct {
	SignatureImage string `json:"signatureImage"` // base64 PNG
}

// FinalizePrescription creates the shareable artifact and a new public token.
func (c *Client) FinalizePrescription(ctx context.Context, prescriptionID string, signaturePNG []byte) (*FinalizeResult, error) {
	var res FinalizeResult
	path := "/v1/prescriptions/" + url.PathEscape(prescriptionID) + "/finalize"
	req := finalizeReq{SignatureImage: base64.StdEncoding.EncodeToString(signaturePNG)}
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegeneratePrescription re-renders an already finalized prescription in
// place. The server keeps the existing public token so shared links stay
// valid.
func (c *Client) RegeneratePrescription(ctx context.Context, prescriptionID string, signaturePNG []byte) (*FinalizeResult, error) {
	var res FinalizeResult
	path := "/v1/prescriptions/" + url.PathEscape(prescriptionID) + "/regenerate"
	req := finalizeReq{SignatureImage: base64.StdEncoding.EncodeToString(signaturePNG)}
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
