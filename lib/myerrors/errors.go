package myerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure beyond its HTTP status: two errors can share a
// status (no-session and authentication-required are both 401) but require
// different caller behaviour.
type Kind string

const (
	KindConfiguration          Kind = "configuration"
	KindInvalidInput           Kind = "invalidInput"
	KindInvalidState           Kind = "invalidState"
	KindTokenExchange          Kind = "tokenExchange"
	KindTokenRefresh           Kind = "tokenRefresh"
	KindNoSession              Kind = "noSession"
	KindAuthenticationRequired Kind = "authenticationRequired"
	KindAuthorization          Kind = "authorization"
	KindNotFound               Kind = "notFound"
	KindEndpointNotFound       Kind = "endpointNotFound"
	KindUpstreamUnavailable    Kind = "upstreamUnavailable"
	KindDecryption             Kind = "decryption"
	KindInternal               Kind = "internal"
)

type httpError struct {
	httpCode int
	kind     Kind
	err      error
}

func (e httpError) Error() string {
	return fmt.Sprintf("status: %d, err: %s", e.httpCode, e.err.Error())
}

func (e httpError) GetHTTPErrorCode() int {
	return e.httpCode
}

func (e httpError) GetKind() Kind {
	return e.kind
}

func (e httpError) Unwrap() error {
	return e.err
}

func newError(httpCode int, kind Kind, err error) *httpError {
	return &httpError{
		httpCode: httpCode,
		kind:     kind,
		err:      err,
	}
}

func NewInvalidInputError(err error) *httpError {
	return newError(http.StatusBadRequest, KindInvalidInput, err)
}

func NewInvalidInputErrorf(format string, args ...interface{}) *httpError {
	return NewInvalidInputError(fmt.Errorf(format, args...))
}

// NewConfigurationError marks a provider as misconfigured: a process-level
// problem, never fixed by retrying the request.
func NewConfigurationError(err error) *httpError {
	return newError(http.StatusInternalServerError, KindConfiguration, err)
}

// NewInvalidStateError marks a corrupt or truncated OAuth state parameter.
func NewInvalidStateError(err error) *httpError {
	return newError(http.StatusBadRequest, KindInvalidState, err)
}

func NewTokenExchangeError(err error) *httpError {
	return newError(http.StatusBadGateway, KindTokenExchange, err)
}

func NewTokenRefreshError(err error) *httpError {
	return newError(http.StatusBadGateway, KindTokenRefresh, err)
}

// NewNoSessionError tells the caller to complete the authorization flow first.
func NewNoSessionError(err error) *httpError {
	return newError(http.StatusUnauthorized, KindNoSession, err)
}

func NewAuthenticationRequiredError(err error) *httpError {
	return newError(http.StatusUnauthorized, KindAuthenticationRequired, err)
}

func NewAuthorizationError(err error) *httpError {
	return newError(http.StatusForbidden, KindAuthorization, err)
}

func NewNotFoundError(err error) *httpError {
	return newError(http.StatusNotFound, KindNotFound, err)
}

// NewEndpointNotFoundError marks a 404 from an upstream FHIR endpoint:
// configuration drift, not a missing patient.
func NewEndpointNotFoundError(err error) *httpError {
	return newError(http.StatusNotFound, KindEndpointNotFound, err)
}

// NewUpstreamUnavailableError marks a 5xx or timeout upstream. Safe to retry
// with backoff at a higher layer.
func NewUpstreamUnavailableError(err error) *httpError {
	return newError(http.StatusServiceUnavailable, KindUpstreamUnavailable, err)
}

func NewDecryptionError(err error) *httpError {
	return newError(http.StatusInternalServerError, KindDecryption, err)
}

func NewInternalError(err error) *httpError {
	return newError(http.StatusInternalServerError, KindInternal, err)
}

type httpErrorCoder interface {
	error
	GetHTTPErrorCode() int
	GetKind() Kind
}

func GetHTTPStatus(err error) int {
	var myError httpErrorCoder
	if errors.As(err, &myError) {
		return myError.GetHTTPErrorCode()
	}
	return http.StatusInternalServerError
}

func GetKind(err error) Kind {
	var myError httpErrorCoder
	if errors.As(err, &myError) {
		return myError.GetKind()
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}
