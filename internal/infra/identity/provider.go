// Package identity selects the identity provider configured in identity.provider.
package identity

import (
	"context"
	"log/slog"

	"etuition/config"
	"etuition/internal/domain/service"
	"etuition/internal/infra/auth"
	"etuition/internal/infra/auth/google"
	"etuition/internal/infra/identity/firebase"
	"etuition/internal/infra/identity/memory"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ProviderParams holds dependencies for the IdentityProvider, injected by Fx
type ProviderParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	Hasher service.PasswordHasher
}

// NewIdentityProvider creates an IdentityProvider based on configuration
func NewIdentityProvider(params ProviderParams) (service.IdentityProvider, error) {
	cfg := params.Config.Identity
	logger := params.Logger

	switch cfg.Provider {
	case config.IdentityProviderFirebase:
		logger.Info("Using Firebase identity provider",
			slog.Bool("admin_sdk", cfg.Firebase != nil && cfg.Firebase.CredentialsPath != ""),
		)

		provider, err := firebase.NewProvider(params.Ctx, cfg.Firebase, logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create firebase identity provider")
		}

		return provider, nil

	case config.IdentityProviderMemory:
		tokens, err := auth.NewJWTService(params.Config)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create memory identity provider")
		}

		logger.Warn("Using in-memory identity provider, accounts are lost on restart")

		return memory.NewProvider(cfg.Memory, params.Hasher, tokens, googleVerifier(params.Config, logger), logger), nil

	default:
		return nil, errors.Errorf("unknown identity provider: %s", cfg.Provider)
	}
}

// googleVerifier returns nil when no Google client ID is configured.
func googleVerifier(cfg *config.Config, logger *slog.Logger) service.IDTokenVerifier {
	clientID := ""
	if cfg.Identity.Memory != nil {
		clientID = cfg.Identity.Memory.GoogleClientID
	}
	if clientID == "" && cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}
	if clientID == "" {
		return nil
	}

	return google.NewIDTokenVerifier(clientID, logger)
}
