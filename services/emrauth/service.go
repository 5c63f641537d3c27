package emrauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/carebase/emrbackend/lib/codeverifier"
	"github.com/carebase/emrbackend/lib/myaudit"
	"github.com/carebase/emrbackend/lib/mycipher"
	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mylog"
	"github.com/carebase/emrbackend/lib/mytime"
	"github.com/carebase/emrbackend/lib/myuuid"
	"github.com/carebase/emrbackend/services/emrauth/authstate"
	"github.com/carebase/emrbackend/services/emrauth/sessionstore"
	"github.com/carebase/emrbackend/services/emrauth/tokenclient"
	"github.com/carebase/emrbackend/services/emrproviders"
)

// AccessContext is what downstream data fetchers need from an
// authorization: a usable bearer token plus the launch context.
type AccessContext struct {
	ProviderID  string
	PatientID   string
	AccessToken string
}

// TokenProvider hands out the stored bearer token for a session. Expiry is
// not judged here: a stale token goes out and the upstream rejection decides.
// Refreshing is an explicit, separate operation.
//
//go:generate mockgen -source=service.go -package emrauth -destination token_provider_mock.go TokenProvider
type TokenProvider interface {
	GetAccessToken(c context.Context, userID string, providerID string) (AccessContext, error)
}

type service struct {
	providers    emrproviders.Registry
	sessionStore sessionstore.Store
	tokenClient  tokenclient.TokenClient
	cipher       mycipher.Cipher
	auditSink    myaudit.Sink
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger

	refreshMutex sync.Mutex
	refreshLocks map[string]*sync.Mutex
}

func newService(providers emrproviders.Registry, sessionStore sessionstore.Store, tokenClient tokenclient.TokenClient, cipher mycipher.Cipher, auditSink myaudit.Sink, nower mytime.Nower, uuider myuuid.UUIDer) *service {
	return &service{
		providers:    providers,
		sessionStore: sessionStore,
		tokenClient:  tokenClient,
		cipher:       cipher,
		auditSink:    auditSink,
		nower:        nower,
		uuider:       uuider,
		logger:       mylog.New("emrauth"),
		refreshLocks: map[string]*sync.Mutex{},
	}
}

// buildAuthorizationURL starts the authorization flow: it composes the
// provider-specific redirect including PKCE challenge and opaque state.
// Nothing is persisted yet, everything the callback needs travels in the
// state itself.
func (s *service) buildAuthorizationURL(c context.Context, userID string, providerID string, launch string, requestHostname string) (AuthorizeResponse, error) {
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return AuthorizeResponse{}, err
	}
	if provider.RedirectURI == "" {
		provider.RedirectURI = composeRedirectURI(requestHostname, providerID)
	}
	err = provider.Validate()
	if err != nil {
		return AuthorizeResponse{}, err
	}

	state := authstate.State{
		UserID:     userID,
		ProviderID: providerID,
		Nonce:      s.uuider.Create(),
		CreatedAt:  s.nower.Now(),
	}

	requestParams := url.Values{}
	requestParams.Set("response_type", "code")
	requestParams.Set("client_id", provider.ClientID)
	requestParams.Set("redirect_uri", provider.RedirectURI)
	requestParams.Set("scope", strings.Join(provider.Scopes, " "))

	if provider.Quirks.RequirePKCE {
		verifier, err := codeverifier.NewVerifier()
		if err != nil {
			return AuthorizeResponse{}, myerrors.NewInternalError(fmt.Errorf("error creating code verifier: %s", err))
		}
		method, challenge, err := verifier.CreateChallenge()
		if err != nil {
			return AuthorizeResponse{}, myerrors.NewInternalError(fmt.Errorf("error creating code challenge: %s", err))
		}
		state.CodeVerifier = verifier.GetValue()
		requestParams.Set("code_challenge", challenge)
		requestParams.Set("code_challenge_method", method)
	}

	if provider.Quirks.RequireAudParam {
		requestParams.Set("aud", provider.FHIRBaseURL)
	}

	if provider.Quirks.RequireNonce && hasScope(provider.Scopes, "openid") {
		requestParams.Set("nonce", state.Nonce)
	}

	// an empty launch parameter is rejected by several vendors, so it is
	// omitted rather than sent blank
	if provider.Quirks.SupportsLaunchContext && launch != "" {
		requestParams.Set("launch", launch)
	}

	encodedState, err := authstate.Encode(state)
	if err != nil {
		return AuthorizeResponse{}, err
	}
	requestParams.Set("state", encodedState)

	authorizeURL := fmt.Sprintf("%s?%s", provider.AuthEndpoint.GetFullURL(), requestParams.Encode())

	s.logger.Log(c, userID, mylog.SeverityInfo, "Composed authorization url for user %s with provider %s", userID, providerID)

	err = s.auditSink.Record(c, myaudit.Event{
		Actor:       userID,
		Action:      myaudit.ActionAccess,
		Resource:    fmt.Sprintf("emr/%s/authorize", providerID),
		Success:     true,
		RiskLevel:   myaudit.RiskLow,
		Description: "authorization flow started",
	})
	if err != nil {
		// an unrecorded audit event must not block the flow itself
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error recording audit event: %s", err)
	}

	return AuthorizeResponse{
		ProviderID:   providerID,
		AuthorizeURL: authorizeURL,
	}, nil
}

// exchangeCode completes the flow when the provider redirects back. The
// state is verified before any network call: a tampered state must never
// cause a token request.
func (s *service) exchangeCode(c context.Context, providerID string, code string, encodedState string, requestHostname string) (SessionStatus, error) {
	state, err := authstate.Decode(encodedState)
	if err != nil {
		return SessionStatus{}, err
	}
	if state.ProviderID != providerID {
		return SessionStatus{}, myerrors.NewInvalidStateError(fmt.Errorf("state was issued for provider %s, callback came from %s", state.ProviderID, providerID))
	}

	provider, err := s.providers.Get(providerID)
	if err != nil {
		return SessionStatus{}, err
	}
	if provider.RedirectURI == "" {
		// must match the redirect_uri the authorize request was sent with
		provider.RedirectURI = composeRedirectURI(requestHostname, providerID)
	}

	tokenResp, err := s.tokenClient.GetAccessToken(c, tokenclient.GetTokenRequest{
		ProviderID:   providerID,
		RedirectURI:  provider.RedirectURI,
		Code:         code,
		CodeVerifier: state.CodeVerifier,
	})
	if err != nil {
		s.recordTokenFailure(c, state.UserID, providerID, "code exchange failed")
		return SessionStatus{}, err
	}

	now := s.nower.Now()
	session := sessionstore.Session{
		UserID:       state.UserID,
		ProviderID:   providerID,
		ExpiresAt:    calculateExpiresAt(now, tokenResp.ExpiresIn),
		PatientID:    tokenResp.PatientID,
		CreatedAt:    now,
		LastModified: now,
	}

	session.EncryptedAccessToken, err = s.cipher.Encrypt(tokenResp.AccessToken)
	if err != nil {
		return SessionStatus{}, myerrors.NewInternalError(fmt.Errorf("error encrypting access token: %s", err))
	}
	if tokenResp.RefreshToken != "" {
		session.EncryptedRefreshToken, err = s.cipher.Encrypt(tokenResp.RefreshToken)
		if err != nil {
			return SessionStatus{}, myerrors.NewInternalError(fmt.Errorf("error encrypting refresh token: %s", err))
		}
	}

	err = s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		err := s.sessionStore.Save(c, session)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing session: %s", err))
		}

		err = s.auditSink.Record(c, myaudit.Event{
			Actor:       state.UserID,
			Action:      myaudit.ActionCreate,
			Resource:    fmt.Sprintf("emr/%s/session", providerID),
			Success:     true,
			RiskLevel:   myaudit.RiskHigh,
			Description: "tokens obtained and stored",
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error recording audit event: %s", err))
		}

		return nil
	})
	if err != nil {
		return SessionStatus{}, err
	}

	s.logger.Log(c, state.UserID, mylog.SeverityInfo, "Completed authorization of user %s with provider %s", state.UserID, providerID)

	return s.statusOf(session), nil
}

// refreshSession swaps the stored tokens for fresh ones. Refreshes for the
// same session are serialized so concurrent callers cannot race a
// single-use refresh token.
func (s *service) refreshSession(c context.Context, userID string, providerID string) (RefreshResponse, error) {
	lock := s.lockFor(userID, providerID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessionStore.Load(c, userID, providerID)
	if err != nil {
		return RefreshResponse{}, err
	}

	session, err = s.refreshLocked(c, session)
	if err != nil {
		return RefreshResponse{}, err
	}

	return RefreshResponse{
		ProviderID: providerID,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

func (s *service) refreshLocked(c context.Context, session sessionstore.Session) (sessionstore.Session, error) {
	if session.EncryptedRefreshToken == "" {
		return sessionstore.Session{}, myerrors.NewAuthenticationRequiredError(fmt.Errorf("no refresh token for user %s with provider %s, re-authorization needed", session.UserID, session.ProviderID))
	}

	refreshToken, err := s.cipher.Decrypt(session.EncryptedRefreshToken)
	if err != nil {
		return sessionstore.Session{}, err
	}

	tokenResp, err := s.tokenClient.RefreshAccessToken(c, tokenclient.RefreshTokenRequest{
		ProviderID:   session.ProviderID,
		RefreshToken: refreshToken,
	})
	if err != nil {
		s.recordTokenFailure(c, session.UserID, session.ProviderID, "token refresh failed")
		return sessionstore.Session{}, err
	}

	now := s.nower.Now()
	session.ExpiresAt = calculateExpiresAt(now, tokenResp.ExpiresIn)
	session.LastModified = now

	session.EncryptedAccessToken, err = s.cipher.Encrypt(tokenResp.AccessToken)
	if err != nil {
		return sessionstore.Session{}, myerrors.NewInternalError(fmt.Errorf("error encrypting access token: %s", err))
	}
	// a provider that omits the refresh token means the old one stays valid
	if tokenResp.RefreshToken != "" {
		session.EncryptedRefreshToken, err = s.cipher.Encrypt(tokenResp.RefreshToken)
		if err != nil {
			return sessionstore.Session{}, myerrors.NewInternalError(fmt.Errorf("error encrypting refresh token: %s", err))
		}
	}

	err = s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		err := s.sessionStore.Save(c, session)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing refreshed session: %s", err))
		}

		err = s.auditSink.Record(c, myaudit.Event{
			Actor:       session.UserID,
			Action:      myaudit.ActionUpdate,
			Resource:    fmt.Sprintf("emr/%s/session", session.ProviderID),
			Success:     true,
			RiskLevel:   myaudit.RiskMedium,
			Description: "tokens refreshed",
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error recording audit event: %s", err))
		}

		return nil
	})
	if err != nil {
		return sessionstore.Session{}, err
	}

	s.logger.Log(c, session.UserID, mylog.SeverityInfo, "Refreshed session of user %s with provider %s", session.UserID, session.ProviderID)

	return session, nil
}

// GetAccessToken returns the stored bearer token as-is, expired or not. A
// token the provider no longer accepts fails at the provider, which is the
// only judgement that counts.
func (s *service) GetAccessToken(c context.Context, userID string, providerID string) (AccessContext, error) {
	session, err := s.sessionStore.Load(c, userID, providerID)
	if err != nil {
		return AccessContext{}, err
	}

	accessToken, err := s.cipher.Decrypt(session.EncryptedAccessToken)
	if err != nil {
		return AccessContext{}, err
	}

	return AccessContext{
		ProviderID:  providerID,
		PatientID:   session.PatientID,
		AccessToken: accessToken,
	}, nil
}

func (s *service) getStatus(c context.Context, userID string) ([]SessionStatus, error) {
	sessions, err := s.sessionStore.ListForUser(c, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]SessionStatus, 0, len(sessions))
	for _, session := range sessions {
		statuses = append(statuses, s.statusOf(session))
	}
	return statuses, nil
}

func (s *service) statusOf(session sessionstore.Session) SessionStatus {
	return SessionStatus{
		ProviderID: session.ProviderID,
		UserID:     session.UserID,
		PatientID:  session.PatientID,
		ExpiresAt:  session.ExpiresAt,
		Expired:    session.IsExpired(s.nower.Now()),
	}
}

func (s *service) recordTokenFailure(c context.Context, userID string, providerID string, description string) {
	err := s.auditSink.Record(c, myaudit.Event{
		Actor:       userID,
		Action:      myaudit.ActionAccess,
		Resource:    fmt.Sprintf("emr/%s/session", providerID),
		Success:     false,
		RiskLevel:   myaudit.RiskMedium,
		Description: description,
	})
	if err != nil {
		s.logger.Log(c, userID, mylog.SeverityWarn, "Error recording audit event: %s", err)
	}
}

func (s *service) lockFor(userID string, providerID string) *sync.Mutex {
	s.refreshMutex.Lock()
	defer s.refreshMutex.Unlock()

	uid := sessionstore.SessionUID(userID, providerID)
	lock, found := s.refreshLocks[uid]
	if !found {
		lock = &sync.Mutex{}
		s.refreshLocks[uid] = lock
	}
	return lock
}

func composeRedirectURI(requestHostname string, providerID string) string {
	return fmt.Sprintf("%s/emr/callback/%s", requestHostname, providerID)
}

func calculateExpiresAt(now time.Time, expiresInSeconds int) time.Time {
	return now.Add(time.Duration(expiresInSeconds) * time.Second)
}

func hasScope(scopes []string, wanted string) bool {
	for _, scope := range scopes {
		if scope == wanted {
			return true
		}
	}
	return false
}
