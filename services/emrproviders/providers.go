package emrproviders

import (
	"fmt"

	"github.com/carebase/emrbackend/lib/myerrors"
)

type EndPoint struct {
	Hostname string
	Path     string
}

func (ep EndPoint) GetFullURL() string {
	return ep.Hostname + ep.Path
}

// Quirks captures where EHR vendors deviate from plain OAuth2. Each provider
// gets its own case here instead of conditionals scattered through the URL
// builder.
type Quirks struct {
	// RequirePKCE: authorization requests must carry a S256 code-challenge.
	RequirePKCE bool
	// RequireAudParam: the aud query parameter must name the FHIR base URL.
	RequireAudParam bool
	// RequireNonce: send a nonce, but only when openid is among the scopes.
	RequireNonce bool
	// SupportsLaunchContext: the provider accepts a launch parameter on a
	// standalone launch. When false the parameter must be omitted entirely:
	// an empty launch= is rejected outright by several vendors.
	SupportsLaunchContext bool
	// AllowAnonymousSearch: patient search may proceed without a session.
	AllowAnonymousSearch bool
}

type Config struct {
	ID            string
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	AuthEndpoint  EndPoint
	TokenEndpoint EndPoint
	FHIRBaseURL   string
	// NB: order matters for some vendors
	Scopes []string
	Quirks Quirks
}

// Validate distinguishes a misconfigured provider from a runtime auth
// failure: blank mandatory fields must never leak into requests as
// empty-but-present parameters.
func (cfg Config) Validate() error {
	if cfg.ClientID == "" {
		return myerrors.NewConfigurationError(fmt.Errorf("provider %s: missing client id", cfg.ID))
	}
	if cfg.RedirectURI == "" {
		return myerrors.NewConfigurationError(fmt.Errorf("provider %s: missing redirect uri", cfg.ID))
	}
	return nil
}

// ValidateCredentials checks that every registered provider carries a client
// id. Meant for startup: a deployment missing credentials should die before
// it serves a single authorization request. The redirect uri is exempt, it
// may be derived from the incoming request instead.
func ValidateCredentials(r Registry) error {
	for _, provider := range r.All() {
		if provider.ClientID == "" {
			return myerrors.NewConfigurationError(fmt.Errorf("provider %s: missing client id", provider.ID))
		}
	}
	return nil
}

type Registry interface {
	All() map[string]Config
	Get(providerID string) (Config, error)
	Set(providerID string, clientID string, clientSecret string, redirectURI string, authHostname string, tokenHostname string, fhirBaseURL string)
}

type configuredRegistry struct {
	providers map[string]Config
}

func NewRegistry() *configuredRegistry {
	return &configuredRegistry{
		providers: map[string]Config{
			"epic": {
				ID: "epic",
				AuthEndpoint: EndPoint{
					Hostname: "https://fhir.epic.com",
					Path:     "/interconnect-fhir-oauth/oauth2/authorize",
				},
				TokenEndpoint: EndPoint{
					Hostname: "https://fhir.epic.com",
					Path:     "/interconnect-fhir-oauth/oauth2/token",
				},
				FHIRBaseURL: "https://fhir.epic.com/interconnect-fhir-oauth/api/FHIR/R4",
				Scopes:      []string{"openid", "fhirUser", "launch/patient", "patient/*.read"},
				Quirks: Quirks{
					RequirePKCE:           true,
					RequireAudParam:       true,
					RequireNonce:          true,
					SupportsLaunchContext: true,
				},
			},
			"cerner": {
				ID: "cerner",
				AuthEndpoint: EndPoint{
					Hostname: "https://authorization.cerner.com",
					Path:     "/tenants/ec2458f2-1e24-41c8-b71b-0e701af7583d/protocols/oauth2/profiles/smart-v1/personas/patient/authorize",
				},
				TokenEndpoint: EndPoint{
					Hostname: "https://authorization.cerner.com",
					Path:     "/tenants/ec2458f2-1e24-41c8-b71b-0e701af7583d/protocols/oauth2/profiles/smart-v1/token",
				},
				FHIRBaseURL: "https://fhir-myrecord.cerner.com/r4/ec2458f2-1e24-41c8-b71b-0e701af7583d",
				Scopes:      []string{"openid", "patient/Patient.read", "patient/MedicationRequest.read", "patient/AllergyIntolerance.read", "patient/Condition.read", "patient/Appointment.read"},
				Quirks: Quirks{
					RequireAudParam:       true,
					RequireNonce:          true,
					SupportsLaunchContext: false,
				},
			},
			"athena": {
				ID: "athena",
				AuthEndpoint: EndPoint{
					Hostname: "https://api.preview.platform.athenahealth.com",
					Path:     "/oauth2/v1/authorize",
				},
				TokenEndpoint: EndPoint{
					Hostname: "https://api.preview.platform.athenahealth.com",
					Path:     "/oauth2/v1/token",
				},
				FHIRBaseURL: "https://api.preview.platform.athenahealth.com/fhir/r4",
				// athena rejects wildcard scopes on standalone launch
				Scopes: []string{"patient/Patient.read", "patient/MedicationRequest.read", "patient/AllergyIntolerance.read", "patient/Condition.read", "patient/Appointment.read"},
				Quirks: Quirks{
					RequirePKCE:           true,
					SupportsLaunchContext: false,
					AllowAnonymousSearch:  true,
				},
			},
		},
	}
}

func (r *configuredRegistry) All() map[string]Config {
	return r.providers
}

func (r *configuredRegistry) Set(providerID string, clientID string, clientSecret string, redirectURI string, authHostname string, tokenHostname string, fhirBaseURL string) {
	provider, found := r.providers[providerID]
	if !found {
		provider = Config{ID: providerID}
	}

	if clientID != "" {
		provider.ClientID = clientID
	}

	if clientSecret != "" {
		provider.ClientSecret = clientSecret
	}

	if redirectURI != "" {
		provider.RedirectURI = redirectURI
	}

	if authHostname != "" {
		provider.AuthEndpoint.Hostname = authHostname
	}

	if tokenHostname != "" {
		provider.TokenEndpoint.Hostname = tokenHostname
	}

	if fhirBaseURL != "" {
		provider.FHIRBaseURL = fhirBaseURL
	}

	r.providers[providerID] = provider
}

func (r *configuredRegistry) Get(providerID string) (Config, error) {
	provider, found := r.providers[providerID]
	if !found {
		return Config{}, myerrors.NewConfigurationError(fmt.Errorf("EMR provider with id '%s' not known", providerID))
	}
	return provider, nil
}
