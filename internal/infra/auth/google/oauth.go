package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"etuition/config"
	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"
)

const stateTTL = 10 * time.Minute

// OAuthService handles the Google authorization-code flow
type OAuthService struct {
	conf *oauth2.Config

	// State storage for CSRF protection
	stateStore map[string]time.Time
	stateMutex sync.Mutex
	now        func() time.Time
}

// NewOAuthService creates a new Google OAuth service
func NewOAuthService(cfg *config.Config) service.OAuthService {
	return newOAuthService(cfg.GoogleOAuth, googleendpoint.Endpoint)
}

func newOAuthService(cfg *config.GoogleOAuthConfig, endpoint oauth2.Endpoint) *OAuthService {
	if cfg == nil {
		cfg = &config.GoogleOAuthConfig{}
	}

	return &OAuthService{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Fields(cfg.Scopes),
			Endpoint:     endpoint,
		},
		stateStore: make(map[string]time.Time),
		now:        time.Now,
	}
}

// generateState generates a cryptographically secure random state string
func generateState() string {
	bytes := make([]byte, 32)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// BuildAuthorizationURL constructs the Google authorization URL with a fresh state
func (s *OAuthService) BuildAuthorizationURL() (string, string) {
	state := generateState()

	s.stateMutex.Lock()
	s.cleanupExpiredStates()
	s.stateStore[state] = s.now().Add(stateTTL)
	s.stateMutex.Unlock()

	return s.conf.AuthCodeURL(state, oauth2.AccessTypeOnline), state
}

// ValidateState validates and consumes the state parameter
func (s *OAuthService) ValidateState(state string) bool {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	expiry, exists := s.stateStore[state]
	if !exists {
		return false
	}
	delete(s.stateStore, state)

	return !s.now().After(expiry)
}

// cleanupExpiredStates removes expired state parameters; caller holds stateMutex
func (s *OAuthService) cleanupExpiredStates() {
	now := s.now()
	for state, expiry := range s.stateStore {
		if now.After(expiry) {
			delete(s.stateStore, state)
		}
	}
}

// ExchangeCode exchanges the authorization code for the ID token issued with it
func (s *OAuthService) ExchangeCode(ctx context.Context, code string) (entity.SocialCredential, error) {
	token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return entity.SocialCredential{}, errors.Wrap(err, "failed to exchange code for token")
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return entity.SocialCredential{}, errors.New("token response carries no id_token")
	}

	return entity.SocialCredential{
		Provider:    entity.ProviderTypeGoogle,
		IDToken:     idToken,
		AccessToken: token.AccessToken,
	}, nil
}

// GetProvider returns the OAuth provider type
func (s *OAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}
