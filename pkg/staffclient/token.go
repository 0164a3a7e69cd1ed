package staffclient

import "context"

// Keys under which a bearer token may be persisted, newest first.
const (
	TokenKey       = "token"
	LegacyTokenKey = "access_token"
)

// TokenSource yields the bearer token for a request. An empty token means
// the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// CredentialStore is read-only access to persisted client credentials.
type CredentialStore interface {
	Get(key string) (string, bool, error)
}

// StoredToken reads the token from a CredentialStore each time a request is
// built, preferring TokenKey over LegacyTokenKey.
type StoredToken struct {
	Store CredentialStore
}

func (s StoredToken) Token(context.Context) (string, error) {
	if s.Store == nil {
		return "", nil
	}
	for _, key := range []string{TokenKey, LegacyTokenKey} {
		value, ok, err := s.Store.Get(key)
		if err != nil {
			return "", err
		}
		if ok && value != "" {
			return value, nil
		}
	}
	return "", nil
}
