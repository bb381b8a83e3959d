package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validAccount(name string) *Account {
	return &Account{
		Name:         name,
		LogSessionID: "log_session_value_123456",
		LoginSID:     "login_sid_value_123456",
		HomeLoginSID: "home_login_sid_value_123456",
	}
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := validAccount("family")
	if err := manager.Store(account); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	if mockStore.Count() != 1 {
		t.Errorf("Expected 1 stored account, got %d", mockStore.Count())
	}
	if account.LastModified.IsZero() {
		t.Error("Store should set LastModified")
	}

	retrieved, err := manager.Retrieve("family")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if retrieved.LogSessionID != account.LogSessionID {
		t.Errorf("Retrieved wrong log session id: %q", retrieved.LogSessionID)
	}
	if retrieved.HomeLoginSID != account.HomeLoginSID {
		t.Errorf("Retrieved wrong home login sid: %q", retrieved.HomeLoginSID)
	}
}

func TestManagerStoreRequiresAllCookies(t *testing.T) {
	manager, _ := NewMockManager()

	tests := []struct {
		name   string
		mutate func(a *Account)
	}{
		{"missing name", func(a *Account) { a.Name = "" }},
		{"missing log session", func(a *Account) { a.LogSessionID = "" }},
		{"missing login sid", func(a *Account) { a.LoginSID = "" }},
		{"missing home login sid", func(a *Account) { a.HomeLoginSID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := validAccount("x")
			tt.mutate(account)
			if err := manager.Store(account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestManagerRetrieveNotFound(t *testing.T) {
	manager, _ := NewMockManager()

	if _, err := manager.Retrieve("ghost"); err == nil {
		t.Error("Expected error for unknown account")
	}
}

func TestManagerList(t *testing.T) {
	manager, _ := NewMockManager()

	for _, name := range []string{"one", "two"} {
		if err := manager.Store(validAccount(name)); err != nil {
			t.Fatalf("Store returned error: %v", err)
		}
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("Expected 2 accounts, got %d", len(accounts))
	}
}

func TestManagerDelete(t *testing.T) {
	manager, mockStore := NewMockManager()

	if err := manager.Store(validAccount("gone")); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if err := manager.Delete("gone"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after delete, got %d", mockStore.Count())
	}
	if err := manager.Delete("gone"); err == nil {
		t.Error("Expected error deleting a missing account")
	}
}

func TestManagerStoreFallback(t *testing.T) {
	primary := NewMockStore()
	primary.StoreError = errors.New("keychain locked")
	fallback := NewMockStore()
	manager := &Manager{stores: []CredentialStore{primary, fallback}}

	if err := manager.Store(validAccount("fallback")); err != nil {
		t.Fatalf("Store should fall through to the next store: %v", err)
	}
	if fallback.Count() != 1 {
		t.Errorf("Expected account in the fallback store, got %d", fallback.Count())
	}
}

func TestRetrieveDefaultFromEnvironment(t *testing.T) {
	t.Setenv("DOJOFETCH_LOG_SESSION_ID", "env_log_session")
	t.Setenv("DOJOFETCH_LOGIN_SID", "env_login_sid")
	t.Setenv("DOJOFETCH_HOME_LOGIN_SID", "env_home_login_sid")

	manager := &Manager{stores: []CredentialStore{NewMockStore(), NewEnvironmentStore()}}

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault returned error: %v", err)
	}
	if account.LogSessionID != "env_log_session" {
		t.Errorf("Expected credentials from environment, got %q", account.LogSessionID)
	}
}

func TestRetrieveDefaultFallsBackToStored(t *testing.T) {
	mockStore := NewMockStore()
	manager := &Manager{stores: []CredentialStore{mockStore, NewEnvironmentStore()}}

	stored := validAccount("only")
	stored.LastModified = time.Now()
	if err := mockStore.Store(stored); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault returned error: %v", err)
	}
	if account.Name != "only" {
		t.Errorf("Expected the stored account, got %q", account.Name)
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{
		Name:         "family",
		LogSessionID: "abcdefghijklmnop",
		LoginSID:     "short",
		HomeLoginSID: "0123456789abcdef",
	}

	masked := SanitizeAccount(account)

	if masked.LogSessionID != "abcd...mnop" {
		t.Errorf("Unexpected mask: %q", masked.LogSessionID)
	}
	if masked.LoginSID != "********" {
		t.Errorf("Short values should be fully masked, got %q", masked.LoginSID)
	}
	if strings.Contains(masked.HomeLoginSID, "456789ab") {
		t.Errorf("Mask leaked middle characters: %q", masked.HomeLoginSID)
	}
	if masked.Name != "family" {
		t.Errorf("Name should not be masked, got %q", masked.Name)
	}

	// Original untouched
	if account.LogSessionID != "abcdefghijklmnop" {
		t.Error("SanitizeAccount must not mutate the original")
	}

	if SanitizeAccount(nil) != nil {
		t.Error("SanitizeAccount(nil) should be nil")
	}
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	store := NewEnvironmentStore()

	if err := store.Store(validAccount("x")); err == nil {
		t.Error("Environment store should reject writes")
	}
	if err := store.Delete("x"); err == nil {
		t.Error("Environment store should reject deletes")
	}
}
