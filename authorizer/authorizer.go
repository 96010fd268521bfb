// Package authorizer validates caller credentials and returns an
// authorization decision: bearer tokens are verified against a JSON Web Key
// Set, opaque API keys are looked up in a key-value store.
package authorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by KeyStore implementations for unknown keys.
var ErrKeyNotFound = errors.New("api key not found")

// Decision is the outcome of validating one credential.
type Decision struct {
	Allowed bool
	Subject string
}

// KeyStore resolves an opaque API key to the subject that owns it.
type KeyStore interface {
	Lookup(ctx context.Context, apiKey string) (string, error)
}

// RedisKeyStore is a KeyStore over a Redis database mapping prefixed API
// keys to subjects.
type RedisKeyStore struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyStore builds a KeyStore reading keys at prefix+apiKey.
func NewRedisKeyStore(client *redis.Client, prefix string) *RedisKeyStore {
	return &RedisKeyStore{client: client, prefix: prefix}
}

// Lookup returns the subject owning the key, or ErrKeyNotFound.
func (s *RedisKeyStore) Lookup(ctx context.Context, apiKey string) (string, error) {
	subject, err := s.client.Get(ctx, s.prefix+apiKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("api key lookup failed: %w", err)
	}
	return subject, nil
}

// Authorizer validates bearer JWTs and opaque API keys.
type Authorizer struct {
	keys     *keySet
	store    KeyStore
	issuer   string
	audience string
}

// NewAuthorizer builds an Authorizer fetching signing keys from jwksURL and
// resolving API keys through store. Empty issuer or audience disables that
// claim check.
func NewAuthorizer(jwksURL, issuer, audience string, store KeyStore) *Authorizer {
	return &Authorizer{
		keys:     newKeySet(jwksURL, 15*time.Minute),
		store:    store,
		issuer:   issuer,
		audience: audience,
	}
}

// Authorize validates a single credential. Anything shaped like a JWT (with
// or without a "Bearer " prefix) is verified against the key set; everything
// else is treated as an opaque API key. An invalid credential yields a
// denying Decision with a nil error; an error means the decision could not
// be made (key set or store unavailable).
func (a *Authorizer) Authorize(ctx context.Context, credential string) (Decision, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Decision{}, nil
	}

	if token, ok := strings.CutPrefix(credential, "Bearer "); ok {
		return a.authorizeToken(ctx, token)
	}
	if strings.Count(credential, ".") == 2 {
		return a.authorizeToken(ctx, credential)
	}
	return a.authorizeAPIKey(ctx, credential)
}

func (a *Authorizer) authorizeToken(ctx context.Context, raw string) (Decision, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return a.keys.keyFor(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, errKeySetUnavailable) {
			return Decision{}, err
		}
		return Decision{}, nil
	}
	if !token.Valid {
		return Decision{}, nil
	}
	return Decision{Allowed: true, Subject: claims.Subject}, nil
}

func (a *Authorizer) authorizeAPIKey(ctx context.Context, apiKey string) (Decision, error) {
	subject, err := a.store.Lookup(ctx, apiKey)
	if errors.Is(err, ErrKeyNotFound) {
		return Decision{}, nil
	}
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: true, Subject: subject}, nil
}
