package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"

	"github.com/carebase/emrbackend/lib/myaudit"
	"github.com/carebase/emrbackend/lib/mycipher"
	"github.com/carebase/emrbackend/lib/mypublisher"
	"github.com/carebase/emrbackend/lib/mypubsub"
	"github.com/carebase/emrbackend/lib/myqueue"
	"github.com/carebase/emrbackend/lib/mytime"
	"github.com/carebase/emrbackend/lib/myuuid"
	"github.com/carebase/emrbackend/services/emrauth"
	"github.com/carebase/emrbackend/services/emrauth/sessionstore"
	"github.com/carebase/emrbackend/services/emrauth/tokenclient"
	"github.com/carebase/emrbackend/services/emrproviders"
	"github.com/carebase/emrbackend/services/patientdata"
	"github.com/carebase/emrbackend/services/patientdata/fhirclient"
)

type providerCredentials struct {
	ClientID      string `env:"CLIENT_ID"`
	ClientSecret  string `env:"CLIENT_SECRET"`
	RedirectURI   string `env:"REDIRECT_URI"`
	AuthHostname  string `env:"AUTH_HOSTNAME"`
	TokenHostname string `env:"TOKEN_HOSTNAME"`
	FHIRBaseURL   string `env:"FHIR_BASE_URL"`
}

type config struct {
	Port string `env:"PORT" envDefault:"8080"`
	// 32 byte AES key, hex encoded
	TokenCipherKey string              `env:"TOKEN_CIPHER_KEY,required"`
	Epic           providerCredentials `envPrefix:"EPIC_"`
	Cerner         providerCredentials `envPrefix:"CERNER_"`
	Athena         providerCredentials `envPrefix:"ATHENA_"`
}

func main() {
	c := context.Background()

	cfg := config{}
	err := env.Parse(&cfg)
	if err != nil {
		log.Fatalf("Error parsing environment: %s", err)
	}

	registry := emrproviders.NewRegistry()
	registry.Set("epic", cfg.Epic.ClientID, cfg.Epic.ClientSecret, cfg.Epic.RedirectURI, cfg.Epic.AuthHostname, cfg.Epic.TokenHostname, cfg.Epic.FHIRBaseURL)
	registry.Set("cerner", cfg.Cerner.ClientID, cfg.Cerner.ClientSecret, cfg.Cerner.RedirectURI, cfg.Cerner.AuthHostname, cfg.Cerner.TokenHostname, cfg.Cerner.FHIRBaseURL)
	registry.Set("athena", cfg.Athena.ClientID, cfg.Athena.ClientSecret, cfg.Athena.RedirectURI, cfg.Athena.AuthHostname, cfg.Athena.TokenHostname, cfg.Athena.FHIRBaseURL)
	err = emrproviders.ValidateCredentials(registry)
	if err != nil {
		log.Fatalf("Error in provider configuration: %s", err)
	}

	cipher, err := mycipher.NewAesGcmCipher(cfg.TokenCipherKey)
	if err != nil {
		log.Fatalf("Error creating token cipher: %s", err)
	}

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	router := mux.NewRouter()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	auditSink := myaudit.NewSink(publisher)
	err = auditSink.CreateTopics(c)
	if err != nil {
		log.Fatalf("Error creating audit topic: %s", err)
	}

	sessionStore, sessionStoreCleanup, err := sessionstore.New(c)
	if err != nil {
		log.Fatalf("Error creating session store: %s", err)
	}
	defer sessionStoreCleanup()

	authService := emrauth.NewService(registry, sessionStore, tokenclient.NewTokenClient(registry), cipher, auditSink, nower, uuider)
	err = authService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering auth endpoints: %s", err)
	}

	patientService := patientdata.NewService(registry, authService.TokenProvider(), fhirclient.NewRESTClient(), auditSink)
	err = patientService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering patient-data endpoints: %s", err)
	}

	startWebServerBlocking(router, cfg.Port)
}

func startWebServerBlocking(router *mux.Router, port string) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
