package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and exists so operators can skip credential storage
// entirely and export the cookie values instead.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	logSessionID := os.Getenv("DOJOFETCH_LOG_SESSION_ID")
	loginSID := os.Getenv("DOJOFETCH_LOGIN_SID")
	homeLoginSID := os.Getenv("DOJOFETCH_HOME_LOGIN_SID")
	userAgent := os.Getenv("DOJOFETCH_USER_AGENT")

	if logSessionID == "" || loginSID == "" || homeLoginSID == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry an account name
	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		LogSessionID: logSessionID,
		LoginSID:     loginSID,
		HomeLoginSID: homeLoginSID,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("DOJOFETCH_LOG_SESSION_ID") != "" &&
		os.Getenv("DOJOFETCH_LOGIN_SID") != "" &&
		os.Getenv("DOJOFETCH_HOME_LOGIN_SID") != ""
}
