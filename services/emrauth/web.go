package emrauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carebase/emrbackend/lib/myaudit"
	"github.com/carebase/emrbackend/lib/mycipher"
	"github.com/carebase/emrbackend/lib/mycontext"
	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/myhttp"
	"github.com/carebase/emrbackend/lib/mylog"
	"github.com/carebase/emrbackend/lib/mytime"
	"github.com/carebase/emrbackend/lib/myuuid"
	"github.com/carebase/emrbackend/services/emrauth/sessionstore"
	"github.com/carebase/emrbackend/services/emrauth/tokenclient"
	"github.com/carebase/emrbackend/services/emrproviders"
)

type webService struct {
	service *service
	logger  mylog.Logger
}

func NewService(providers emrproviders.Registry, sessionStore sessionstore.Store, tokenClient tokenclient.TokenClient, cipher mycipher.Cipher, auditSink myaudit.Sink, nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	return &webService{
		service: newService(providers, sessionStore, tokenClient, cipher, auditSink, nower, uuider),
		logger:  mylog.New("emrauth"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/emr/auth/{providerID}", s.authorizePage()).Methods("GET")
	router.HandleFunc("/emr/callback/{providerID}", s.callbackPage()).Methods("GET")
	router.HandleFunc("/emr/refresh/{providerID}", s.refreshPage()).Methods("POST")
	router.HandleFunc("/emr/status", s.statusPage()).Methods("GET")

	return nil
}

// TokenProvider exposes the token lookup to the data-fetching service
// without exposing the HTTP layer.
func (s *webService) TokenProvider() TokenProvider {
	return s.service
}

func (s *webService) authorizePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		providerID := mux.Vars(r)["providerID"]
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing userId")))
			return
		}

		resp, err := s.service.buildAuthorizationURL(c, userID, providerID, r.URL.Query().Get("launch"), myhttp.HostnameWithScheme(r))
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) callbackPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		providerID := mux.Vars(r)["providerID"]

		// a denial comes back as error/error_description instead of a code
		errorCode := r.URL.Query().Get("error")
		if errorCode != "" {
			errorDescription := r.URL.Query().Get("error_description")
			responseWriter.WriteError(c, w, 1, myerrors.NewAuthorizationError(fmt.Errorf("authorization denied by %s: %s (%s)", providerID, errorCode, errorDescription)))
			return
		}

		state := r.URL.Query().Get("state")
		if state == "" {
			responseWriter.WriteError(c, w, 2, myerrors.NewInvalidStateError(fmt.Errorf("missing state")))
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			responseWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(fmt.Errorf("missing code")))
			return
		}

		status, err := s.service.exchangeCode(c, providerID, code, state, myhttp.HostnameWithScheme(r))
		if err != nil {
			responseWriter.WriteError(c, w, 4, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, status)
	}
}

func (s *webService) refreshPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		providerID := mux.Vars(r)["providerID"]
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing userId")))
			return
		}

		resp, err := s.service.refreshSession(c, userID, providerID)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) statusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userID := r.URL.Query().Get("userId")
		if userID == "" {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing userId")))
			return
		}

		statuses, err := s.service.getStatus(c, userID)
		if err != nil {
			responseWriter.WriteError(c, w, 2, err)
			return
		}

		responseWriter.Write(c, w, http.StatusOK, statuses)
	}
}
