package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySource resolves the verification key for a parsed token and names the
// signing methods it accepts.
type KeySource interface {
	Methods() []string
	Key(ctx context.Context, t *jwt.Token) (any, error)
}

// SharedSecret verifies HS256 tokens issued by the portal.
type SharedSecret []byte

func (s SharedSecret) Methods() []string { return []string{jwt.SigningMethodHS256.Alg()} }

func (s SharedSecret) Key(context.Context, *jwt.Token) (any, error) { return []byte(s), nil }

var errUnknownKey = errors.New("signing key not published")

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// RemoteKeySet verifies RS256 tokens against the identity provider's JWKS
// document. Keys are refreshed after ttl, or on an unknown kid. Fetch attempts,
// failed ones included, happen at most once per minRefresh.
type RemoteKeySet struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	minRefresh time.Duration

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	attemptedAt time.Time
}

func NewRemoteKeySet(url string, ttl time.Duration) *RemoteKeySet {
	return &RemoteKeySet{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		ttl:        ttl,
		minRefresh: 30 * time.Second,
	}
}

func (r *RemoteKeySet) Methods() []string { return []string{jwt.SigningMethodRS256.Alg()} }

func (r *RemoteKeySet) Key(ctx context.Context, t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid header")
	}

	r.mu.RLock()
	key, ok := r.keys[kid]
	fresh := time.Since(r.fetchedAt) < r.ttl
	r.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}
	if !r.claimAttempt() {
		if ok {
			return key, nil
		}
		return nil, fmt.Errorf("kid %q: %w", kid, errUnknownKey)
	}

	if err := r.refresh(ctx); err != nil {
		if ok {
			// Serve the stale key while the provider is unreachable.
			return key, nil
		}
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if key, ok = r.keys[kid]; !ok {
		return nil, fmt.Errorf("kid %q: %w", kid, errUnknownKey)
	}
	return key, nil
}

// claimAttempt reports whether the caller may fetch the key set now and, if
// so, records the attempt.
func (r *RemoteKeySet) claimAttempt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.attemptedAt) < r.minRefresh {
		return false
	}
	r.attemptedAt = time.Now()
	return true
}

func (r *RemoteKeySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch key set: status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if pub, err := k.rsa(); err == nil {
			keys[k.Kid] = pub
		}
	}

	r.mu.Lock()
	r.keys = keys
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return nil
}

func (k jwk) rsa() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}, nil
}
