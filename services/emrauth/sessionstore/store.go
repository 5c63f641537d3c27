package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mystore"
)

// Session is what we persist per user per provider. Tokens are stored
// encrypted; the plaintext never touches the datastore.
type Session struct {
	UID                   string    `json:"uid"`
	UserID                string    `json:"userID"`
	ProviderID            string    `json:"providerID"`
	EncryptedAccessToken  string    `json:"encryptedAccessToken"`
	EncryptedRefreshToken string    `json:"encryptedRefreshToken"`
	ExpiresAt             time.Time `json:"expiresAt"`
	PatientID             string    `json:"patientID"`
	CreatedAt             time.Time `json:"createdAt"`
	LastModified          time.Time `json:"lastModified"`
}

func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionUID composes the storage key. One session per user per provider:
// a re-authorization overwrites the previous session wholesale.
func SessionUID(userID string, providerID string) string {
	return fmt.Sprintf("%s_%s", userID, providerID)
}

// Store narrows the generic datastore to session semantics: loads are keyed
// on user+provider and a miss is a NoSessionError rather than a bare bool.
type Store interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Save(c context.Context, session Session) error
	Load(c context.Context, userID string, providerID string) (Session, error)
	ListForUser(c context.Context, userID string) ([]Session, error)
}

type sessionStore struct {
	store mystore.Store[Session]
}

func New(c context.Context) (Store, func(), error) {
	store, cleanup, err := mystore.New[Session](c)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating session store: %s", err)
	}
	return NewWithStore(store), cleanup, nil
}

func NewWithStore(store mystore.Store[Session]) Store {
	return &sessionStore{
		store: store,
	}
}

func (s *sessionStore) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	return s.store.RunInTransaction(c, f)
}

func (s *sessionStore) Save(c context.Context, session Session) error {
	session.UID = SessionUID(session.UserID, session.ProviderID)
	return s.store.Put(c, session.UID, session)
}

func (s *sessionStore) Load(c context.Context, userID string, providerID string) (Session, error) {
	session, exists, err := s.store.Get(c, SessionUID(userID, providerID))
	if err != nil {
		return Session{}, myerrors.NewInternalError(fmt.Errorf("error fetching session: %s", err))
	}
	if !exists {
		return Session{}, myerrors.NewNoSessionError(fmt.Errorf("no session for user %s with provider %s", userID, providerID))
	}
	return session, nil
}

func (s *sessionStore) ListForUser(c context.Context, userID string) ([]Session, error) {
	sessions, err := s.store.Query(c, []mystore.Filter{
		{Field: "UserID", Compare: "=", Value: userID},
	}, "ProviderID")
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error querying sessions: %s", err))
	}

	// in-memory queries do not filter
	result := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result, nil
}
