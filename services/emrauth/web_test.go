package emrauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/carebase/emrbackend/lib/myaudit"
	"github.com/carebase/emrbackend/lib/mycipher"
	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mystore"
	"github.com/carebase/emrbackend/lib/mytime"
	"github.com/carebase/emrbackend/lib/myuuid"
	"github.com/carebase/emrbackend/services/emrauth/authstate"
	"github.com/carebase/emrbackend/services/emrauth/sessionstore"
	"github.com/carebase/emrbackend/services/emrauth/tokenclient"
	"github.com/carebase/emrbackend/services/emrproviders"
)

const cipherKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestAuthorize(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	f.uuider.EXPECT().Create().Return("my-nonce")
	f.auditSink.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/auth/epic?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)

	resp := AuthorizeResponse{}
	err := json.Unmarshal(response.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "epic", resp.ProviderID)

	authorizeURL, err := url.Parse(resp.AuthorizeURL)
	assert.NoError(t, err)
	params := authorizeURL.Query()
	assert.Equal(t, "code", params.Get("response_type"))
	assert.Equal(t, "my-client-id", params.Get("client_id"))
	assert.Equal(t, "https://carebase.example.com/emr/callback/epic", params.Get("redirect_uri"))
	assert.Equal(t, "S256", params.Get("code_challenge_method"))
	assert.NotEmpty(t, params.Get("code_challenge"))
	assert.Equal(t, "my-nonce", params.Get("nonce"))
	assert.NotEmpty(t, params.Get("aud"))

	state, err := authstate.Decode(params.Get("state"))
	assert.NoError(t, err)
	assert.Equal(t, "user-123", state.UserID)
	assert.Equal(t, "epic", state.ProviderID)
	assert.Len(t, state.CodeVerifier, 64)
	assert.Equal(t, "my-nonce", state.Nonce)
	assert.Equal(t, mytime.ExampleTime, state.CreatedAt)
}

func TestAuthorizeWithoutLaunchParam(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	f.uuider.EXPECT().Create().Return("my-nonce")
	f.auditSink.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/auth/epic?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)

	resp := AuthorizeResponse{}
	err := json.Unmarshal(response.Body.Bytes(), &resp)
	assert.NoError(t, err)

	authorizeURL, err := url.Parse(resp.AuthorizeURL)
	assert.NoError(t, err)
	_, found := authorizeURL.Query()["launch"]
	assert.False(t, found)
}

func TestAuthorizeDerivesRedirectURI(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	f.uuider.EXPECT().Create().Return("my-nonce")
	f.auditSink.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	// cerner has no redirect uri configured, so it is derived from the request
	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/auth/cerner?userId=user-123", nil)
	request.Host = "broker.example.com"
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)

	resp := AuthorizeResponse{}
	err := json.Unmarshal(response.Body.Bytes(), &resp)
	assert.NoError(t, err)

	authorizeURL, err := url.Parse(resp.AuthorizeURL)
	assert.NoError(t, err)
	assert.Equal(t, "http://broker.example.com/emr/callback/cerner", authorizeURL.Query().Get("redirect_uri"))
}

func TestAuthorizeContinuesWhenAuditFails(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	f.uuider.EXPECT().Create().Return("my-nonce")
	f.auditSink.EXPECT().Record(gomock.Any(), gomock.Any()).Return(fmt.Errorf("audit backend down"))

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/auth/epic?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)
}

func TestAuthorizeUnknownProvider(t *testing.T) {
	c, router, _, ctrl := setup(t)
	defer ctrl.Finish()

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/auth/pointclickcare?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusInternalServerError, response.Code)
}

func TestAuthorizeMissingUser(t *testing.T) {
	c, router, _, ctrl := setup(t)
	defer ctrl.Finish()

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/auth/epic", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCallback(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	f.auditSink.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	f.tokenClient.EXPECT().GetAccessToken(gomock.Any(), tokenclient.GetTokenRequest{
		ProviderID:   "epic",
		RedirectURI:  "https://carebase.example.com/emr/callback/epic",
		Code:         "my-auth-code",
		CodeVerifier: "05796efe1e4ab16c314f2d402aa96f51c0fb54ae7b979349ca6b36410cc50b5a",
	}).Return(tokenclient.GetTokenResponse{
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		AccessToken:  "my-access-token",
		RefreshToken: "my-refresh-token",
		PatientID:    "eVgg2DN-sqn1Sl.zXEgYppw3",
	}, nil)

	state, err := authstate.Encode(authstate.State{
		UserID:       "user-123",
		ProviderID:   "epic",
		CodeVerifier: "05796efe1e4ab16c314f2d402aa96f51c0fb54ae7b979349ca6b36410cc50b5a",
	})
	assert.NoError(t, err)

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/callback/epic?code=my-auth-code&state="+state, nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)

	status := SessionStatus{}
	err = json.Unmarshal(response.Body.Bytes(), &status)
	assert.NoError(t, err)
	assert.Equal(t, "epic", status.ProviderID)
	assert.Equal(t, "user-123", status.UserID)
	assert.Equal(t, "eVgg2DN-sqn1Sl.zXEgYppw3", status.PatientID)

	session, err := f.sessionStore.Load(c, "user-123", "epic")
	assert.NoError(t, err)
	assert.NotEqual(t, "my-access-token", session.EncryptedAccessToken)
	accessToken, err := f.cipher.Decrypt(session.EncryptedAccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "my-access-token", accessToken)
	refreshToken, err := f.cipher.Decrypt(session.EncryptedRefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, "my-refresh-token", refreshToken)
	assert.Equal(t, mytime.ExampleTime.Add(time.Hour), session.ExpiresAt)
}

func TestCallbackCorruptState(t *testing.T) {
	c, router, _, ctrl := setup(t)
	defer ctrl.Finish()

	// no expectation on the token client: a corrupt state must fail before
	// any outbound call
	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/callback/epic?code=my-auth-code&state=%21%21%21garbage", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCallbackStateForOtherProvider(t *testing.T) {
	c, router, _, ctrl := setup(t)
	defer ctrl.Finish()

	state, err := authstate.Encode(authstate.State{
		UserID:     "user-123",
		ProviderID: "cerner",
	})
	assert.NoError(t, err)

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/callback/epic?code=my-auth-code&state="+state, nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestCallbackDenied(t *testing.T) {
	c, router, _, ctrl := setup(t)
	defer ctrl.Finish()

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/callback/epic?error=access_denied&error_description=User+denied+access", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusForbidden, response.Code)
}

func TestRefresh(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	storeSession(t, c, f, "user-123", "epic", "old-access-token", "my-refresh-token", mytime.ExampleTime)

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
	f.auditSink.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	f.tokenClient.EXPECT().RefreshAccessToken(gomock.Any(), tokenclient.RefreshTokenRequest{
		ProviderID:   "epic",
		RefreshToken: "my-refresh-token",
	}).Return(tokenclient.GetTokenResponse{
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		AccessToken: "my-new-access-token",
	}, nil)

	request, _ := http.NewRequestWithContext(c, http.MethodPost, "/emr/refresh/epic?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)

	session, err := f.sessionStore.Load(c, "user-123", "epic")
	assert.NoError(t, err)
	accessToken, err := f.cipher.Decrypt(session.EncryptedAccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "my-new-access-token", accessToken)

	// provider omitted the refresh token, so the old one is kept
	refreshToken, err := f.cipher.Decrypt(session.EncryptedRefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, "my-refresh-token", refreshToken)
}

func TestRefreshWithoutSession(t *testing.T) {
	c, router, _, ctrl := setup(t)
	defer ctrl.Finish()

	request, _ := http.NewRequestWithContext(c, http.MethodPost, "/emr/refresh/epic?userId=unknown-user", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	storeSession(t, c, f, "user-123", "epic", "old-access-token", "", mytime.ExampleTime)

	request, _ := http.NewRequestWithContext(c, http.MethodPost, "/emr/refresh/epic?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestStatus(t *testing.T) {
	c, router, f, ctrl := setup(t)
	defer ctrl.Finish()

	storeSession(t, c, f, "user-123", "epic", "my-access-token", "my-refresh-token", mytime.ExampleTime.Add(time.Hour))

	f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	request, _ := http.NewRequestWithContext(c, http.MethodGet, "/emr/status?userId=user-123", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	assert.Equal(t, http.StatusOK, response.Code)

	statuses := []SessionStatus{}
	err := json.Unmarshal(response.Body.Bytes(), &statuses)
	assert.NoError(t, err)
	assert.Len(t, statuses, 1)
	assert.Equal(t, "epic", statuses[0].ProviderID)
	assert.False(t, statuses[0].Expired)
}

func TestGetAccessToken(t *testing.T) {
	c, _, f, ctrl := setup(t)
	defer ctrl.Finish()

	storeSession(t, c, f, "user-123", "epic", "my-access-token", "my-refresh-token", mytime.ExampleTime.Add(time.Hour))

	access, err := f.tokenProvider.GetAccessToken(c, "user-123", "epic")
	assert.NoError(t, err)
	assert.Equal(t, "my-access-token", access.AccessToken)
	assert.Equal(t, "epic", access.ProviderID)
}

func TestGetAccessTokenExpiredSession(t *testing.T) {
	c, _, f, ctrl := setup(t)
	defer ctrl.Finish()

	storeSession(t, c, f, "user-123", "epic", "stale-access-token", "my-refresh-token", mytime.ExampleTime.Add(-time.Hour))

	// no expectation on the token client: the stored token goes out as-is
	// even past its expiry, the provider is the one that rejects it
	access, err := f.tokenProvider.GetAccessToken(c, "user-123", "epic")
	assert.NoError(t, err)
	assert.Equal(t, "stale-access-token", access.AccessToken)
}

func TestGetAccessTokenWithoutSession(t *testing.T) {
	c, _, f, ctrl := setup(t)
	defer ctrl.Finish()

	_, err := f.tokenProvider.GetAccessToken(c, "unknown-user", "epic")
	assert.Error(t, err)
	assert.True(t, myerrors.IsKind(err, myerrors.KindNoSession))
	assert.Equal(t, http.StatusUnauthorized, myerrors.GetHTTPStatus(err))
}

type fixture struct {
	sessionStore  sessionstore.Store
	tokenClient   *tokenclient.MockTokenClient
	cipher        mycipher.Cipher
	auditSink     *myaudit.MockSink
	nower         *mytime.MockNower
	uuider        *myuuid.MockUUIDer
	tokenProvider TokenProvider
}

func setup(t *testing.T) (context.Context, *mux.Router, *fixture, *gomock.Controller) {
	c := context.TODO()
	ctrl := gomock.NewController(t)

	store, _, err := mystore.NewInMemoryStore[sessionstore.Session](c)
	assert.NoError(t, err)

	cipher, err := mycipher.NewAesGcmCipher(cipherKey)
	assert.NoError(t, err)

	registry := emrproviders.NewRegistry()
	registry.Set("epic", "my-client-id", "my-client-secret", "https://carebase.example.com/emr/callback/epic", "", "", "")
	registry.Set("cerner", "my-cerner-client-id", "", "", "", "", "")

	f := &fixture{
		sessionStore: sessionstore.NewWithStore(store),
		tokenClient:  tokenclient.NewMockTokenClient(ctrl),
		cipher:       cipher,
		auditSink:    myaudit.NewMockSink(ctrl),
		nower:        mytime.NewMockNower(ctrl),
		uuider:       myuuid.NewMockUUIDer(ctrl),
	}

	sut := NewService(registry, f.sessionStore, f.tokenClient, f.cipher, f.auditSink, f.nower, f.uuider)
	f.tokenProvider = sut.TokenProvider()

	router := mux.NewRouter()
	err = sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, f, ctrl
}

func storeSession(t *testing.T, c context.Context, f *fixture, userID string, providerID string, accessToken string, refreshToken string, expiresAt time.Time) {
	session := sessionstore.Session{
		UserID:     userID,
		ProviderID: providerID,
		ExpiresAt:  expiresAt,
		PatientID:  "eVgg2DN-sqn1Sl.zXEgYppw3",
		CreatedAt:  mytime.ExampleTime,
	}

	var err error
	session.EncryptedAccessToken, err = f.cipher.Encrypt(accessToken)
	assert.NoError(t, err)
	if refreshToken != "" {
		session.EncryptedRefreshToken, err = f.cipher.Encrypt(refreshToken)
		assert.NoError(t, err)
	}

	err = f.sessionStore.Save(c, session)
	assert.NoError(t, err)
}
