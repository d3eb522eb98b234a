package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// dummySecret is compared against when the username is unknown so that
// lookup failures take the same time as password mismatches.
const dummySecret = "basic-auth-dummy-secret"

// BasicAuthenticator authenticates requests using HTTP Basic
// authentication against a static allow-list. Secrets may be bcrypt
// hashes or plaintext placeholders; plaintext is compared in constant
// time.
type BasicAuthenticator struct {
	users map[string]string // username -> bcrypt hash or plaintext secret
}

// NewBasicAuthenticator creates a new Basic authenticator from a
// configuration string in the format "user1:secret1,user2:secret2".
// Each entry must contain exactly one colon separating the username
// from the secret.
func NewBasicAuthenticator(
	usersConfig string,
) (*BasicAuthenticator, error) {
	trimmed := strings.TrimSpace(usersConfig)
	if trimmed == "" {
		return nil, fmt.Errorf(
			"basic auth: users config must not be empty",
		)
	}

	users := make(map[string]string)
	entries := strings.Split(trimmed, ",")

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		// Find the first colon to split username from secret. Bcrypt
		// hashes contain '$' but not additional colons in the
		// user:secret format.
		idx := strings.Index(entry, ":")
		if idx < 0 {
			return nil, fmt.Errorf(
				"basic auth: invalid entry format, expected user:secret",
			)
		}

		username := entry[:idx]
		secret := entry[idx+1:]

		if username == "" || secret == "" {
			return nil, fmt.Errorf(
				"basic auth: username and secret must not be empty",
			)
		}

		users[username] = secret
	}

	if len(users) == 0 {
		return nil, fmt.Errorf(
			"basic auth: no valid user entries found",
		)
	}

	return &BasicAuthenticator{users: users}, nil
}

// Authenticate extracts Basic auth credentials from the request, looks up
// the user, and verifies the password against the stored secret. Unknown
// users and wrong passwords produce the same error so callers cannot
// enumerate accounts.
func (a *BasicAuthenticator) Authenticate(
	r *http.Request,
) (*AuthInfo, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	secret, exists := a.users[username]
	if !exists {
		// Burn a comparison anyway to keep timing uniform.
		verifySecret(dummySecret, password)
		return nil, fmt.Errorf(
			"%w: wrong username or password", ErrInvalidCredentials,
		)
	}

	if !verifySecret(secret, password) {
		return nil, fmt.Errorf(
			"%w: wrong username or password", ErrInvalidCredentials,
		)
	}

	return &AuthInfo{
		Method:  AuthMethodBasic,
		Subject: username,
	}, nil
}

// Method returns the authentication method type.
func (a *BasicAuthenticator) Method() AuthMethod {
	return AuthMethodBasic
}

// verifySecret checks a presented password against a stored secret, using
// bcrypt when the secret looks like a bcrypt hash and a constant-time
// comparison otherwise.
func verifySecret(secret, password string) bool {
	if isBcryptHash(secret) {
		return bcrypt.CompareHashAndPassword(
			[]byte(secret), []byte(password),
		) == nil
	}

	return subtle.ConstantTimeCompare(
		[]byte(secret), []byte(password),
	) == 1
}

// isBcryptHash reports whether the secret carries a bcrypt version prefix.
func isBcryptHash(secret string) bool {
	return strings.HasPrefix(secret, "$2a$") ||
		strings.HasPrefix(secret, "$2b$") ||
		strings.HasPrefix(secret, "$2y$")
}
