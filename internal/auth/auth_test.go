package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"maprandovideos.io/videos/internal/catalog"
)

type fakeAccounts map[string]*catalog.Account

func (f fakeAccounts) GetAccountByUsername(_ context.Context, username string) (*catalog.Account, error) {
	account, ok := f[username]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return account, nil
}

func newRequest(t *testing.T, username, password string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/submit-video", nil)
	if username != "" || password != "" {
		r.SetBasicAuth(username, password)
	}
	return r
}

func TestAuthenticate_Success(t *testing.T) {
	accounts := fakeAccounts{
		"alice": {ID: 1, Username: "alice", Role: catalog.RoleDefault, PasswordDigest: Digest("hunter2")},
	}

	account, err := Authenticate(context.Background(), accounts, newRequest(t, "alice", "hunter2"))
	require.NoError(t, err)
	require.Equal(t, int32(1), account.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	accounts := fakeAccounts{
		"alice": {ID: 1, Username: "alice", Role: catalog.RoleDefault, PasswordDigest: Digest("hunter2")},
	}

	_, err := Authenticate(context.Background(), accounts, newRequest(t, "alice", "wrong"))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	_, err := Authenticate(context.Background(), fakeAccounts{}, newRequest(t, "ghost", "anything"))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	_, err := Authenticate(context.Background(), fakeAccounts{}, newRequest(t, "", ""))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_UnrecognizedRole(t *testing.T) {
	accounts := fakeAccounts{
		"bob": {ID: 2, Username: "bob", Role: "banned", PasswordDigest: Digest("pw")},
	}

	_, err := Authenticate(context.Background(), accounts, newRequest(t, "bob", "pw"))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestIsEditor(t *testing.T) {
	require.True(t, IsEditor(&catalog.Account{Role: catalog.RoleEditor}))
	require.False(t, IsEditor(&catalog.Account{Role: catalog.RoleDefault}))
}
