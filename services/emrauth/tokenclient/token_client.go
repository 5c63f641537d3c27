package tokenclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mylog"
	"github.com/carebase/emrbackend/services/emrproviders"
)

type GetTokenRequest struct {
	ProviderID   string
	RedirectURI  string
	Code         string
	CodeVerifier string
}

// GetTokenResponse mirrors the SMART-on-FHIR token response. The patient
// field carries the launch context on patient-facing scopes.
type GetTokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	PatientID    string `json:"patient"`
	IDToken      string `json:"id_token,omitempty"`
}

type RefreshTokenRequest struct {
	ProviderID   string
	RefreshToken string
}

//go:generate mockgen -source=token_client.go -package tokenclient -destination token_client_mock.go TokenClient
type TokenClient interface {
	GetAccessToken(c context.Context, req GetTokenRequest) (GetTokenResponse, error)
	RefreshAccessToken(c context.Context, req RefreshTokenRequest) (GetTokenResponse, error)
}

type smartTokenClient struct {
	providers emrproviders.Registry
	logger    mylog.Logger
}

func NewTokenClient(providers emrproviders.Registry) *smartTokenClient {
	return &smartTokenClient{
		providers: providers,
		logger:    mylog.New("tokenclient"),
	}
}

func (c *smartTokenClient) GetAccessToken(ctx context.Context, req GetTokenRequest) (GetTokenResponse, error) {
	provider, err := c.providers.Get(req.ProviderID)
	if err != nil {
		return GetTokenResponse{}, err
	}
	if provider.ClientID == "" {
		return GetTokenResponse{}, myerrors.NewConfigurationError(fmt.Errorf("provider %s: missing client id", provider.ID))
	}

	requestBody := url.Values{}
	requestBody.Set("grant_type", "authorization_code")
	requestBody.Set("code", req.Code)
	requestBody.Set("redirect_uri", req.RedirectURI)
	requestBody.Set("client_id", provider.ClientID)
	if req.CodeVerifier != "" {
		requestBody.Set("code_verifier", req.CodeVerifier)
	}

	resp, err := c.postForm(ctx, provider, requestBody)
	if err != nil {
		return GetTokenResponse{}, myerrors.NewTokenExchangeError(fmt.Errorf("error exchanging code with %s: %s", provider.ID, err))
	}
	if resp.AccessToken == "" {
		return GetTokenResponse{}, myerrors.NewTokenExchangeError(fmt.Errorf("provider %s returned no access token", provider.ID))
	}

	c.logger.Log(ctx, req.ProviderID, mylog.SeverityInfo, "Exchanged authorization code with %s (scope: %s)", provider.ID, resp.Scope)

	return resp, nil
}

func (c *smartTokenClient) RefreshAccessToken(ctx context.Context, req RefreshTokenRequest) (GetTokenResponse, error) {
	provider, err := c.providers.Get(req.ProviderID)
	if err != nil {
		return GetTokenResponse{}, err
	}
	if provider.ClientID == "" {
		return GetTokenResponse{}, myerrors.NewConfigurationError(fmt.Errorf("provider %s: missing client id", provider.ID))
	}

	requestBody := url.Values{}
	requestBody.Set("grant_type", "refresh_token")
	requestBody.Set("refresh_token", req.RefreshToken)
	requestBody.Set("client_id", provider.ClientID)

	resp, err := c.postForm(ctx, provider, requestBody)
	if err != nil {
		return GetTokenResponse{}, myerrors.NewTokenRefreshError(fmt.Errorf("error refreshing token with %s: %s", provider.ID, err))
	}
	if resp.AccessToken == "" {
		return GetTokenResponse{}, myerrors.NewTokenRefreshError(fmt.Errorf("provider %s returned no access token on refresh", provider.ID))
	}

	c.logger.Log(ctx, req.ProviderID, mylog.SeverityInfo, "Refreshed access token with %s", provider.ID)

	return resp, nil
}

func (c *smartTokenClient) postForm(ctx context.Context, provider emrproviders.Config, requestBody url.Values) (GetTokenResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.TokenEndpoint.GetFullURL(), strings.NewReader(requestBody.Encode()))
	if err != nil {
		return GetTokenResponse{}, fmt.Errorf("error creating token request: %s", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	if provider.ClientSecret != "" {
		// confidential client, secret goes in the authorization header
		httpReq.SetBasicAuth(provider.ClientID, provider.ClientSecret)
	}

	httpResp, err := newHTTPClient().Send(httpReq)
	if err != nil {
		return GetTokenResponse{}, fmt.Errorf("error sending token request: %s", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		// the body typically carries the oauth error code, keep a bounded
		// slice of it for diagnosis
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return GetTokenResponse{}, fmt.Errorf("token endpoint returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	resp := GetTokenResponse{}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	if err != nil {
		return GetTokenResponse{}, fmt.Errorf("error parsing token response: %s", err)
	}

	return resp, nil
}
