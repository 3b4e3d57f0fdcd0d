// Package auth implements the Ingestion API's HTTP Basic authentication: a
// SHA-256 password digest compared in constant time against the stored
// value, and the two-tier default/editor role check.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"

	"maprandovideos.io/videos/internal/catalog"
)

// ErrUnauthorized is returned for every authentication failure: unknown
// user, wrong password, or a malformed stored role. The caller must not
// distinguish among these when reporting to the client, to avoid user
// enumeration.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Accounts is the subset of the catalog façade authentication needs.
type Accounts interface {
	GetAccountByUsername(ctx context.Context, username string) (*catalog.Account, error)
}

// Digest hashes a plaintext password the same way account creation does,
// so the result can be compared against the stored digest.
func Digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// Authenticate verifies the HTTP Basic credentials on r against accounts.
// It returns ErrUnauthorized for any failure — missing credentials, unknown
// username, digest mismatch, or an account whose role string the catalog no
// longer recognizes.
func Authenticate(ctx context.Context, accounts Accounts, r *http.Request) (*catalog.Account, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthorized
	}

	account, err := accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, ErrUnauthorized
	}

	want := account.PasswordDigest
	got := Digest(password)
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return nil, ErrUnauthorized
	}

	switch account.Role {
	case catalog.RoleDefault, catalog.RoleEditor:
	default:
		return nil, ErrUnauthorized
	}

	return account, nil
}

// IsEditor reports whether account holds the Editor role.
func IsEditor(account *catalog.Account) bool {
	return account.Role == catalog.RoleEditor
}
