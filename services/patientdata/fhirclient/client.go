package fhirclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mylog"
)

// Target identifies one FHIR server plus the credentials for this call.
// The client itself is stateless, a single instance serves all providers.
type Target struct {
	BaseURL     string
	AccessToken string
}

//go:generate mockgen -source=client.go -package fhirclient -destination client_mock.go Client
type Client interface {
	GetPatient(c context.Context, target Target, patientID string) (Patient, error)
	SearchPatients(c context.Context, target Target, query url.Values) ([]Patient, error)
	SearchMedicationRequests(c context.Context, target Target, patientID string) ([]MedicationRequest, error)
	SearchAllergies(c context.Context, target Target, patientID string) ([]AllergyIntolerance, error)
	SearchConditions(c context.Context, target Target, patientID string) ([]Condition, error)
	SearchAppointments(c context.Context, target Target, patientID string) ([]Appointment, error)
}

type restClient struct {
	httpClient *http.Client
	logger     mylog.Logger
}

func NewRESTClient() *restClient {
	return &restClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		logger: mylog.New("fhirclient"),
	}
}

func (rc *restClient) GetPatient(c context.Context, target Target, patientID string) (Patient, error) {
	return getResource[Patient](c, rc, target, fmt.Sprintf("/Patient/%s", patientID))
}

func (rc *restClient) SearchPatients(c context.Context, target Target, query url.Values) ([]Patient, error) {
	return searchResources[Patient](c, rc, target, "/Patient", query)
}

func (rc *restClient) SearchMedicationRequests(c context.Context, target Target, patientID string) ([]MedicationRequest, error) {
	return searchResources[MedicationRequest](c, rc, target, "/MedicationRequest", patientQuery(patientID))
}

func (rc *restClient) SearchAllergies(c context.Context, target Target, patientID string) ([]AllergyIntolerance, error) {
	return searchResources[AllergyIntolerance](c, rc, target, "/AllergyIntolerance", patientQuery(patientID))
}

func (rc *restClient) SearchConditions(c context.Context, target Target, patientID string) ([]Condition, error) {
	return searchResources[Condition](c, rc, target, "/Condition", patientQuery(patientID))
}

func (rc *restClient) SearchAppointments(c context.Context, target Target, patientID string) ([]Appointment, error) {
	return searchResources[Appointment](c, rc, target, "/Appointment", patientQuery(patientID))
}

func patientQuery(patientID string) url.Values {
	query := url.Values{}
	query.Set("patient", patientID)
	return query
}

func getResource[T any](c context.Context, rc *restClient, target Target, path string) (T, error) {
	var resource T

	body, err := rc.get(c, target, path, nil)
	if err != nil {
		return resource, err
	}

	err = json.Unmarshal(body, &resource)
	if err != nil {
		return resource, myerrors.NewUpstreamUnavailableError(fmt.Errorf("error parsing response of %s: %s", path, err))
	}

	return resource, nil
}

func searchResources[T any](c context.Context, rc *restClient, target Target, path string, query url.Values) ([]T, error) {
	body, err := rc.get(c, target, path, query)
	if err != nil {
		return nil, err
	}

	bundle := Bundle[T]{}
	err = json.Unmarshal(body, &bundle)
	if err != nil {
		return nil, myerrors.NewUpstreamUnavailableError(fmt.Errorf("error parsing bundle of %s: %s", path, err))
	}

	return bundle.Resources(), nil
}

func (rc *restClient) get(c context.Context, target Target, path string, query url.Values) ([]byte, error) {
	fullURL := target.BaseURL + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(c, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error creating request for %s: %s", path, err))
	}
	req.Header.Set("Accept", "application/fhir+json")
	if target.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+target.AccessToken)
	}

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, myerrors.NewUpstreamUnavailableError(fmt.Errorf("timeout fetching %s: %s", path, err))
		}
		return nil, myerrors.NewUpstreamUnavailableError(fmt.Errorf("error fetching %s: %s", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapStatus(resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, myerrors.NewUpstreamUnavailableError(fmt.Errorf("error reading response of %s: %s", path, err))
	}

	rc.logger.Log(c, path, mylog.SeverityDebug, "Fetched %s (%d bytes)", path, len(body))

	return body, nil
}

// mapStatus translates an upstream status into our error taxonomy so the
// caller can tell a revoked token from a down server.
func mapStatus(statusCode int, path string) error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return myerrors.NewAuthenticationRequiredError(fmt.Errorf("token rejected fetching %s", path))
	case statusCode == http.StatusForbidden:
		return myerrors.NewAuthorizationError(fmt.Errorf("access to %s forbidden", path))
	case statusCode == http.StatusNotFound:
		return myerrors.NewEndpointNotFoundError(fmt.Errorf("endpoint %s not found", path))
	case statusCode >= http.StatusInternalServerError:
		return myerrors.NewUpstreamUnavailableError(fmt.Errorf("server error %d fetching %s", statusCode, path))
	default:
		return myerrors.NewUpstreamUnavailableError(fmt.Errorf("unexpected status %d fetching %s", statusCode, path))
	}
}
