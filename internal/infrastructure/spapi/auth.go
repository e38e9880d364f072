package spapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"

	"github.com/parentrebuild/backend/internal/domain"
)

// DefaultTokenURL is the Login with Amazon token endpoint
const DefaultTokenURL = "https://api.amazon.com/auth/o2/token"

const defaultTokenMargin = 60 * time.Second

// Credentials are the LWA application credentials and seller refresh token
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// NewTokenSource returns a token source that exchanges the refresh token for
// short-lived access tokens. Client credentials are sent in the form body.
func NewTokenSource(ctx context.Context, creds Credentials) oauth2.TokenSource {
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
}

// cachedToken is the cached form of an access token
type cachedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

// CachedTokenSource shares access tokens through a cache so that every process
// using the same seller credentials reuses one token until shortly before expiry.
type CachedTokenSource struct {
	cache  domain.CacheRepository
	source oauth2.TokenSource
	key    string
	margin time.Duration
}

// NewCachedTokenSource wraps source with a cache keyed by the LWA client ID
func NewCachedTokenSource(cache domain.CacheRepository, source oauth2.TokenSource, clientID string, margin time.Duration) *CachedTokenSource {
	if margin <= 0 {
		margin = defaultTokenMargin
	}
	return &CachedTokenSource{
		cache:  cache,
		source: source,
		key:    fmt.Sprintf("lwa:token:%s", clientID),
		margin: margin,
	}
}

// Token returns a cached access token or fetches a fresh one
func (s *CachedTokenSource) Token() (*oauth2.Token, error) {
	ctx := context.Background()

	if tok, ok := s.fromCache(ctx); ok {
		return tok, nil
	}

	tok, err := s.source.Token()
	if err != nil {
		log.Printf("[SPAPI] LWA token exchange failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}

	ttl := time.Until(tok.Expiry) - s.margin
	if tok.Expiry.IsZero() || ttl <= 0 {
		return tok, nil
	}
	data, err := json.Marshal(cachedToken{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry})
	if err == nil {
		// A cache outage only costs an extra token exchange
		if err := s.cache.Set(ctx, s.key, string(data), ttl); err != nil {
			log.Printf("[CACHE] Failed to cache access token: %v", err)
		}
	}
	return tok, nil
}

func (s *CachedTokenSource) fromCache(ctx context.Context) (*oauth2.Token, bool) {
	value, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[CACHE] Token lookup failed: %v", err)
		}
		return nil, false
	}
	raw, ok := value.(string)
	if !ok {
		return nil, false
	}
	var ct cachedToken
	if err := json.Unmarshal([]byte(raw), &ct); err != nil || ct.AccessToken == "" {
		return nil, false
	}
	if time.Until(ct.Expiry) <= s.margin {
		return nil, false
	}
	return &oauth2.Token{AccessToken: ct.AccessToken, TokenType: ct.TokenType, Expiry: ct.Expiry}, true
}
