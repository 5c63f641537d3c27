package patientdata

import (
	"context"
	"fmt"
	"net/http"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/carebase/emrbackend/lib/myaudit"
	"github.com/carebase/emrbackend/lib/mycontext"
	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/myhttp"
	"github.com/carebase/emrbackend/lib/mylog"
	"github.com/carebase/emrbackend/services/emrauth"
	"github.com/carebase/emrbackend/services/emrproviders"
	"github.com/carebase/emrbackend/services/patientdata/fhirclient"
)

type webService struct {
	service *service
	logger  mylog.Logger
}

func NewService(providers emrproviders.Registry, tokenProvider emrauth.TokenProvider, fhirClient fhirclient.Client, auditSink myaudit.Sink) *webService {
	return &webService{
		service: newService(providers, tokenProvider, fhirClient, auditSink),
		logger:  mylog.New("patientdata"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/emr/patient/{providerID}", s.patientPage()).Methods("GET")
	router.HandleFunc("/emr/search/{providerID}", s.searchPage()).Methods("GET")

	return nil
}

func (s *webService) patientPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		providerID := mux.Vars(r)["providerID"]
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing userId")))
			return
		}

		resp, err := s.service.fetch(c, userID, providerID, r.URL.Query().Get("patientId"))
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) searchPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		req := SearchRequest{}
		err := formcodec.NewDecoder().Decode(&req, r.URL.Query())
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error decoding search request: %s", err)))
			return
		}
		req.ProviderID = mux.Vars(r)["providerID"]

		resp, err := s.service.search(c, req)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}
