package emrauth

import (
	"time"
)

type AuthorizeResponse struct {
	ProviderID   string `json:"providerID"`
	AuthorizeURL string `json:"authorizeURL"`
}

type SessionStatus struct {
	ProviderID string    `json:"providerID"`
	UserID     string    `json:"userID"`
	PatientID  string    `json:"patientID,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Expired    bool      `json:"expired"`
}

type RefreshResponse struct {
	ProviderID string    `json:"providerID"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
