// Package memory implements an in-process identity provider for local
// development and tests.
package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"etuition/config"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	"etuition/internal/infra/identity/hub"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultMinPasswordLength = 6

type account struct {
	uid          string
	email        string
	displayName  string
	photoURL     string
	passwordHash string
	provider     entity.ProviderType
}

// Provider keeps accounts in memory and signs identities in with JWT access tokens.
type Provider struct {
	hub      *hub.Hub
	hasher   service.PasswordHasher
	tokens   service.TokenService
	verifier service.IDTokenVerifier
	logger   *slog.Logger

	minPasswordLength int

	mu       sync.Mutex
	accounts map[string]*account // keyed by normalized email
}

// NewProvider creates the provider. verifier may be nil, in which case social
// sign-in always fails.
func NewProvider(
	cfg *config.MemoryConfig,
	hasher service.PasswordHasher,
	tokens service.TokenService,
	verifier service.IDTokenVerifier,
	logger *slog.Logger,
) *Provider {
	minLength := defaultMinPasswordLength
	if cfg != nil && cfg.MinPasswordLength > 0 {
		minLength = cfg.MinPasswordLength
	}

	return &Provider{
		hub:               hub.New(),
		hasher:            hasher,
		tokens:            tokens,
		verifier:          verifier,
		logger:            logger,
		minPasswordLength: minLength,
		accounts:          make(map[string]*account),
	}
}

// CreateAccount implements service.IdentityProvider
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewIdentityError(domainerrors.KindNetworkUnavailable, err)
	}

	key := entity.NormalizeEmail(email)
	if !strings.Contains(key, "@") {
		return nil, domainerrors.NewIdentityError(domainerrors.KindInvalidCredential, errors.New("invalid email"))
	}
	if len(password) < p.minPasswordLength {
		return nil, domainerrors.NewIdentityError(domainerrors.KindWeakPassword,
			errors.Errorf("password should be at least %d characters", p.minPasswordLength))
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, domainerrors.NewIdentityError(domainerrors.KindUnknown, err)
	}

	p.mu.Lock()
	if _, exists := p.accounts[key]; exists {
		p.mu.Unlock()

		return nil, domainerrors.NewIdentityError(domainerrors.KindEmailAlreadyInUse, nil)
	}
	acc := &account{
		uid:          uuid.NewString(),
		email:        key,
		passwordHash: hash,
		provider:     entity.ProviderTypePassword,
	}
	p.accounts[key] = acc
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Account created", slog.String("uid", acc.uid))

	return p.signIn(acc)
}

// SignIn implements service.IdentityProvider
func (p *Provider) SignIn(ctx context.Context, email, password string) (*entity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewIdentityError(domainerrors.KindNetworkUnavailable, err)
	}

	p.mu.Lock()
	acc, exists := p.accounts[entity.NormalizeEmail(email)]
	p.mu.Unlock()

	if !exists {
		return nil, domainerrors.NewIdentityError(domainerrors.KindUserNotFound, nil)
	}
	if acc.passwordHash == "" || !p.hasher.Check(password, acc.passwordHash) {
		return nil, domainerrors.NewIdentityError(domainerrors.KindInvalidCredential, nil)
	}

	return p.signIn(acc)
}

// SignInWithSocial implements service.IdentityProvider. The Google ID token is
// verified and the account is created on first use.
func (p *Provider) SignInWithSocial(ctx context.Context, cred entity.SocialCredential) (*entity.Identity, error) {
	if p.verifier == nil || cred.Provider != p.verifier.GetProvider() {
		return nil, domainerrors.NewIdentityError(domainerrors.KindSocialSignInFailed,
			errors.Errorf("provider %q is not enabled", cred.Provider))
	}
	if cred.IDToken == "" {
		return nil, domainerrors.NewIdentityError(domainerrors.KindSocialSignInFailed, errors.New("missing id token"))
	}

	user, err := p.verifier.VerifyIDToken(ctx, cred.IDToken)
	if err != nil {
		return nil, domainerrors.NewIdentityError(domainerrors.KindSocialSignInFailed, err)
	}

	key := entity.NormalizeEmail(user.Email)

	p.mu.Lock()
	acc, exists := p.accounts[key]
	if !exists {
		acc = &account{
			uid:         uuid.NewString(),
			email:       key,
			displayName: user.Name,
			photoURL:    user.AvatarURL,
		}
		p.accounts[key] = acc
	}
	acc.provider = cred.Provider
	p.mu.Unlock()

	return p.signIn(acc)
}

// SignOut implements service.IdentityProvider
func (p *Provider) SignOut(ctx context.Context) error {
	if current := p.hub.Current(); current != nil {
		p.logger.InfoContext(ctx, "Signed out", slog.String("uid", current.UID))
	}
	p.hub.Publish(nil)

	return nil
}

// UpdateProfile implements service.IdentityProvider
func (p *Provider) UpdateProfile(ctx context.Context, update entity.ProfileUpdate) error {
	current := p.hub.Current()
	if current == nil {
		return domainerrors.NewIdentityError(domainerrors.KindNotSignedIn, nil)
	}
	if update.IsEmpty() {
		return nil
	}

	p.mu.Lock()
	acc, exists := p.accounts[current.NormalizedEmail()]
	if !exists {
		p.mu.Unlock()

		return domainerrors.NewIdentityError(domainerrors.KindUserNotFound, nil)
	}
	if update.DisplayName != nil {
		acc.displayName = *update.DisplayName
		current.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		acc.photoURL = *update.PhotoURL
		current.PhotoURL = *update.PhotoURL
	}
	p.mu.Unlock()

	p.hub.Publish(current)

	return nil
}

// Subscribe implements service.IdentityProvider
func (p *Provider) Subscribe(observer service.IdentityObserver) func() {
	return p.hub.Subscribe(observer)
}

func (p *Provider) signIn(acc *account) (*entity.Identity, error) {
	token, expiresAt, err := p.tokens.GenerateToken(acc.uid, acc.email)
	if err != nil {
		return nil, domainerrors.NewIdentityError(domainerrors.KindUnknown, err)
	}

	p.mu.Lock()
	identity := &entity.Identity{
		UID:         acc.uid,
		Email:       acc.email,
		DisplayName: acc.displayName,
		PhotoURL:    acc.photoURL,
		AccessToken: token,
		Provider:    acc.provider,
		ExpiresAt:   expiresAt,
	}
	p.mu.Unlock()

	p.hub.Publish(identity)

	return identity.Clone(), nil
}
