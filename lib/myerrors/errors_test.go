package myerrors

import (
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	myErr := fmt.Errorf("my error")

	testCases := []struct {
		name       string
		in         error
		httpStatus int
		kind       Kind
		errorText  string
	}{
		{
			name:       "No http error",
			in:         myErr,
			httpStatus: 500,
			kind:       KindInternal,
			errorText:  "my error",
		},
		{
			name:       "Invalid input error",
			in:         NewInvalidInputError(myErr),
			httpStatus: 400,
			kind:       KindInvalidInput,
			errorText:  "status: 400, err: my error",
		},
		{
			name:       "Invalid input errorf",
			in:         NewInvalidInputErrorf("%s: %d", myErr.Error(), 123),
			httpStatus: 400,
			kind:       KindInvalidInput,
			errorText:  "status: 400, err: my error: 123",
		},
		{
			name:       "Configuration error",
			in:         NewConfigurationError(myErr),
			httpStatus: 500,
			kind:       KindConfiguration,
			errorText:  "status: 500, err: my error",
		},
		{
			name:       "Invalid state error",
			in:         NewInvalidStateError(myErr),
			httpStatus: 400,
			kind:       KindInvalidState,
			errorText:  "status: 400, err: my error",
		},
		{
			name:       "Token exchange error",
			in:         NewTokenExchangeError(myErr),
			httpStatus: 502,
			kind:       KindTokenExchange,
			errorText:  "status: 502, err: my error",
		},
		{
			name:       "Token refresh error",
			in:         NewTokenRefreshError(myErr),
			httpStatus: 502,
			kind:       KindTokenRefresh,
			errorText:  "status: 502, err: my error",
		},
		{
			name:       "No session error",
			in:         NewNoSessionError(myErr),
			httpStatus: 401,
			kind:       KindNoSession,
			errorText:  "status: 401, err: my error",
		},
		{
			name:       "Authentication required error",
			in:         NewAuthenticationRequiredError(myErr),
			httpStatus: 401,
			kind:       KindAuthenticationRequired,
			errorText:  "status: 401, err: my error",
		},
		{
			name:       "Authorization error",
			in:         NewAuthorizationError(myErr),
			httpStatus: 403,
			kind:       KindAuthorization,
			errorText:  "status: 403, err: my error",
		},
		{
			name:       "Not found error",
			in:         NewNotFoundError(myErr),
			httpStatus: 404,
			kind:       KindNotFound,
			errorText:  "status: 404, err: my error",
		},
		{
			name:       "Endpoint not found error",
			in:         NewEndpointNotFoundError(myErr),
			httpStatus: 404,
			kind:       KindEndpointNotFound,
			errorText:  "status: 404, err: my error",
		},
		{
			name:       "Upstream unavailable error",
			in:         NewUpstreamUnavailableError(myErr),
			httpStatus: 503,
			kind:       KindUpstreamUnavailable,
			errorText:  "status: 503, err: my error",
		},
		{
			name:       "Decryption error",
			in:         NewDecryptionError(myErr),
			httpStatus: 500,
			kind:       KindDecryption,
			errorText:  "status: 500, err: my error",
		},
		{
			name:       "Internal error",
			in:         NewInternalError(myErr),
			httpStatus: 500,
			kind:       KindInternal,
			errorText:  "status: 500, err: my error",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			httpStatus := GetHTTPStatus(tc.in)
			if httpStatus != tc.httpStatus {
				t.Errorf("HttpStatus: got %v, want %v", httpStatus, tc.httpStatus)
			}
			if kind := GetKind(tc.in); kind != tc.kind {
				t.Errorf("Kind: got %v, want %v", kind, tc.kind)
			}
			if tc.errorText != tc.in.Error() {
				t.Errorf("%s: ErrorText: got %v, want %v", tc.name, tc.in.Error(), tc.errorText)
			}
		})
	}
}

func TestWrappedKind(t *testing.T) {
	err := fmt.Errorf("fetching session: %w", NewNoSessionError(fmt.Errorf("absent")))
	if !IsKind(err, KindNoSession) {
		t.Errorf("expected wrapped error to keep its kind")
	}
	if GetHTTPStatus(err) != 401 {
		t.Errorf("expected wrapped error to keep its status")
	}
}
