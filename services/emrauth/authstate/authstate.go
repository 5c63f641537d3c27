package authstate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carebase/emrbackend/lib/myerrors"
)

// State is everything the callback needs to resume an authorization: who
// started it, against which provider, when, and the PKCE verifier that must
// match the challenge sent on the authorize redirect. It travels through the
// provider as the opaque state parameter.
type State struct {
	UserID       string    `json:"userID"`
	ProviderID   string    `json:"providerID"`
	CreatedAt    time.Time `json:"createdAt"`
	CodeVerifier string    `json:"codeVerifier,omitempty"`
	Nonce        string    `json:"nonce,omitempty"`
}

// Encode produces a URL-safe token. RawURLEncoding keeps the value free of
// characters that providers mangle in redirect query strings.
func Encode(s State) (string, error) {
	asJSON, err := json.Marshal(s)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error marshalling auth state: %s", err))
	}
	return base64.RawURLEncoding.EncodeToString(asJSON), nil
}

// Decode is the inverse of Encode. Any tampered or truncated token fails
// here, before a single byte goes to the token endpoint.
func Decode(encoded string) (State, error) {
	asJSON, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return State{}, myerrors.NewInvalidStateError(fmt.Errorf("error decoding auth state: %s", err))
	}
	s := State{}
	err = json.Unmarshal(asJSON, &s)
	if err != nil {
		return State{}, myerrors.NewInvalidStateError(fmt.Errorf("error unmarshalling auth state: %s", err))
	}
	if s.UserID == "" || s.ProviderID == "" {
		return State{}, myerrors.NewInvalidStateError(fmt.Errorf("auth state misses user or provider"))
	}
	return s, nil
}
