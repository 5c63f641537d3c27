package patientdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/carebase/emrbackend/lib/myaudit"
	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mylog"
	"github.com/carebase/emrbackend/services/emrauth"
	"github.com/carebase/emrbackend/services/emrproviders"
	"github.com/carebase/emrbackend/services/patientdata/fhirclient"
)

const (
	categoryMedications  = "medications"
	categoryAllergies    = "allergies"
	categoryConditions   = "conditions"
	categoryAppointments = "appointments"
)

type service struct {
	providers     emrproviders.Registry
	tokenProvider emrauth.TokenProvider
	fhirClient    fhirclient.Client
	auditSink     myaudit.Sink
	logger        mylog.Logger
}

func newService(providers emrproviders.Registry, tokenProvider emrauth.TokenProvider, fhirClient fhirclient.Client, auditSink myaudit.Sink) *service {
	return &service{
		providers:     providers,
		tokenProvider: tokenProvider,
		fhirClient:    fhirClient,
		auditSink:     auditSink,
		logger:        mylog.New("patientdata"),
	}
}

// fetch assembles the full patient record. The categories are fetched in
// parallel: demographics are mandatory, everything else degrades to empty
// when its endpoint misbehaves.
func (s *service) fetch(c context.Context, userID string, providerID string, patientID string) (FetchResponse, error) {
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return FetchResponse{}, err
	}

	access, err := s.tokenProvider.GetAccessToken(c, userID, providerID)
	if err != nil {
		return FetchResponse{}, err
	}

	if patientID == "" {
		patientID = access.PatientID
	}
	if patientID == "" {
		return FetchResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("no patient known for user %s with provider %s", userID, providerID))
	}

	target := fhirclient.Target{
		BaseURL:     provider.FHIRBaseURL,
		AccessToken: access.AccessToken,
	}

	var patient fhirclient.Patient
	var medications []fhirclient.MedicationRequest
	var allergies []fhirclient.AllergyIntolerance
	var conditions []fhirclient.Condition
	var appointments []fhirclient.Appointment
	var medicationsErr, allergiesErr, conditionsErr, appointmentsErr error

	group, groupCtx := errgroup.WithContext(c)
	group.Go(func() error {
		var err error
		patient, err = s.fhirClient.GetPatient(groupCtx, target, patientID)
		return err
	})
	group.Go(func() error {
		medications, medicationsErr = s.fhirClient.SearchMedicationRequests(groupCtx, target, patientID)
		return nil
	})
	group.Go(func() error {
		allergies, allergiesErr = s.fhirClient.SearchAllergies(groupCtx, target, patientID)
		return nil
	})
	group.Go(func() error {
		conditions, conditionsErr = s.fhirClient.SearchConditions(groupCtx, target, patientID)
		return nil
	})
	group.Go(func() error {
		appointments, appointmentsErr = s.fhirClient.SearchAppointments(groupCtx, target, patientID)
		return nil
	})

	err = group.Wait()
	if err != nil {
		s.recordAccess(c, userID, providerID, patientID, false, "demographics fetch failed")
		return FetchResponse{}, err
	}

	record := transformPatient(patient)
	incomplete := []string{}

	if medicationsErr != nil {
		incomplete = append(incomplete, categoryMedications)
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error fetching medications of patient %s at %s: %s", patientID, providerID, medicationsErr)
	} else {
		record.MedicalHistory.Medications = transformMedications(medications)
	}

	if allergiesErr != nil {
		incomplete = append(incomplete, categoryAllergies)
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error fetching allergies of patient %s at %s: %s", patientID, providerID, allergiesErr)
	} else {
		record.MedicalHistory.Allergies = transformAllergies(allergies)
	}

	if conditionsErr != nil {
		incomplete = append(incomplete, categoryConditions)
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error fetching conditions of patient %s at %s: %s", patientID, providerID, conditionsErr)
	} else {
		record.MedicalHistory.Conditions = transformConditions(conditions)
	}

	if appointmentsErr != nil {
		incomplete = append(incomplete, categoryAppointments)
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error fetching appointments of patient %s at %s: %s", patientID, providerID, appointmentsErr)
	} else {
		record.Appointments = transformAppointments(appointments)
	}

	description := "full record fetched"
	if len(incomplete) > 0 {
		description = fmt.Sprintf("record fetched without %s", strings.Join(incomplete, ","))
	}
	s.recordAccess(c, userID, providerID, patientID, true, description)

	return FetchResponse{
		ProviderID: providerID,
		Record:     record,
		Incomplete: incomplete,
	}, nil
}

// search looks up patients by demographics. Without a session it only
// proceeds against providers that allow anonymous search.
func (s *service) search(c context.Context, req SearchRequest) (SearchResponse, error) {
	provider, err := s.providers.Get(req.ProviderID)
	if err != nil {
		return SearchResponse{}, err
	}

	query := url.Values{}
	if req.FirstName != "" {
		query.Set("given", req.FirstName)
	}
	if req.LastName != "" {
		query.Set("family", req.LastName)
	}
	if req.BirthDate != "" {
		query.Set("birthdate", req.BirthDate)
	}
	if req.Identifier != "" {
		query.Set("identifier", req.Identifier)
	}
	if len(query) == 0 {
		return SearchResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("need at least one search criterion"))
	}

	target := fhirclient.Target{
		BaseURL: provider.FHIRBaseURL,
	}

	access, err := s.tokenProvider.GetAccessToken(c, req.UserID, req.ProviderID)
	if err == nil {
		target.AccessToken = access.AccessToken
	} else if !myerrors.IsKind(err, myerrors.KindNoSession) {
		return SearchResponse{}, err
	} else if !provider.Quirks.AllowAnonymousSearch {
		return SearchResponse{}, myerrors.NewAuthenticationRequiredError(fmt.Errorf("provider %s requires an authorized session to search", req.ProviderID))
	}

	patients, err := s.fhirClient.SearchPatients(c, target, query)
	if err != nil {
		return SearchResponse{}, err
	}

	s.recordAccess(c, req.UserID, req.ProviderID, "-", true, fmt.Sprintf("patient search returned %d results", len(patients)))

	return SearchResponse{
		ProviderID: req.ProviderID,
		Patients:   transformPatientSummaries(patients),
	}, nil
}

func (s *service) recordAccess(c context.Context, userID string, providerID string, patientID string, success bool, description string) {
	err := s.auditSink.Record(c, myaudit.Event{
		Actor:       userID,
		Action:      myaudit.ActionAccess,
		Resource:    fmt.Sprintf("emr/%s/patient/%s", providerID, patientID),
		Success:     success,
		RiskLevel:   myaudit.RiskHigh,
		Description: description,
	})
	if err != nil {
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error recording audit event: %s", err)
	}
}
