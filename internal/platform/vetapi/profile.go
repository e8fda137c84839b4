package vetapi

import (
	"context"
	"net/http"
)

type profileResp struct {
	LicenseNumber string `json:"cedulaProfesional"`
}

type updateLicenseReq struct {
	LicenseNumber string `json:"cedulaProfesional"`
}

// License returns the acting vet's professional license number ("" when the
// profile has none on file).
func (c *Client) License(ctx context.Context) (string, error) {
	var p profileResp
	if err := c.do(ctx, http.MethodGet, "/v1/profile", nil, &p); err != nil {
		return "", err
	}
	return p.LicenseNumber, nil
}

// SetLicense stores the license number on the vet's profile.
func (c *Client) SetLicense(ctx context.Context, licenseNumber string) error {
	return c.do(ctx, http.MethodPatch, "/v1/profile/license", updateLicenseReq{LicenseNumber: licenseNumber}, nil)
}
