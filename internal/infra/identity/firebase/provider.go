// Package firebase implements the identity provider on Firebase Authentication.
// Sign-in flows use the Identity Toolkit REST API with the project's web API key;
// when service credentials are configured the Admin SDK verifies issued ID
// tokens and revokes refresh tokens on sign-out.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"etuition/config"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	"etuition/internal/infra/identity/hub"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/option"
)

const (
	defaultEndpoint = "https://identitytoolkit.googleapis.com/v1"
	defaultTimeout  = 10 * time.Second
	idpRequestURI   = "http://localhost"
)

// tokenAdmin is the subset of *auth.Client used by the provider.
type tokenAdmin interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Provider signs identities in against Firebase Authentication.
type Provider struct {
	hub      *hub.Hub
	client   *http.Client
	endpoint string
	apiKey   string
	admin    tokenAdmin
	logger   *slog.Logger
	now      func() time.Time
}

// NewProvider creates a Firebase provider. The Admin SDK is initialized only
// when cfg.CredentialsPath is set.
func NewProvider(ctx context.Context, cfg *config.FirebaseConfig, logger *slog.Logger) (*Provider, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("firebase api key is required")
	}

	p := newProvider(cfg, logger)

	if cfg.CredentialsPath != "" {
		admin, err := newAdminClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.admin = admin
	}

	return p, nil
}

func newProvider(cfg *config.FirebaseConfig, logger *slog.Logger) *Provider {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Provider{
		hub: hub.New(),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		logger:   logger,
		now:      time.Now,
	}
}

func newAdminClient(ctx context.Context, cfg *config.FirebaseConfig) (*auth.Client, error) {
	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get auth client")
	}

	return client, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type idpRequest struct {
	PostBody            string `json:"postBody"`
	RequestURI          string `json:"requestUri"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
	ReturnIdpCredential bool   `json:"returnIdpCredential"`
}

type updateRequest struct {
	IDToken           string   `json:"idToken"`
	DisplayName       *string  `json:"displayName,omitempty"`
	PhotoURL          *string  `json:"photoUrl,omitempty"`
	DeleteAttribute   []string `json:"deleteAttribute,omitempty"`
	ReturnSecureToken bool     `json:"returnSecureToken"`
}

type authResponse struct {
	LocalID        string `json:"localId"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	PhotoURL       string `json:"photoUrl"`
	ProfilePicture string `json:"profilePicture"`
	IDToken        string `json:"idToken"`
	RefreshToken   string `json:"refreshToken"`
	ExpiresIn      string `json:"expiresIn"`
	ProviderID     string `json:"providerId"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateAccount implements service.IdentityProvider
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error) {
	var resp authResponse
	if err := p.call(ctx, "signUp", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp, domainerrors.KindUnknown); err != nil {
		return nil, err
	}

	return p.signIn(ctx, &resp, entity.ProviderTypePassword)
}

// SignIn implements service.IdentityProvider
func (p *Provider) SignIn(ctx context.Context, email, password string) (*entity.Identity, error) {
	var resp authResponse
	if err := p.call(ctx, "signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp, domainerrors.KindInvalidCredential); err != nil {
		return nil, err
	}

	return p.signIn(ctx, &resp, entity.ProviderTypePassword)
}

// SignInWithSocial implements service.IdentityProvider
func (p *Provider) SignInWithSocial(ctx context.Context, cred entity.SocialCredential) (*entity.Identity, error) {
	postBody := url.Values{"providerId": {string(cred.Provider)}}
	switch {
	case cred.IDToken != "":
		postBody.Set("id_token", cred.IDToken)
	case cred.AccessToken != "":
		postBody.Set("access_token", cred.AccessToken)
	default:
		return nil, domainerrors.NewIdentityError(domainerrors.KindSocialSignInFailed, errors.New("missing provider credential"))
	}

	req := idpRequest{
		PostBody:            postBody.Encode(),
		RequestURI:          idpRequestURI,
		ReturnSecureToken:   true,
		ReturnIdpCredential: true,
	}

	var resp authResponse
	if err := p.call(ctx, "signInWithIdp", req, &resp, domainerrors.KindSocialSignInFailed); err != nil {
		return nil, err
	}

	return p.signIn(ctx, &resp, cred.Provider)
}

// SignOut implements service.IdentityProvider. Refresh tokens are revoked when
// the Admin SDK is available; a failed revocation still signs out locally.
func (p *Provider) SignOut(ctx context.Context) error {
	current := p.hub.Current()
	if p.admin != nil && current != nil {
		if err := p.admin.RevokeRefreshTokens(ctx, current.UID); err != nil {
			p.logger.WarnContext(ctx, "Failed to revoke refresh tokens",
				slog.String("uid", current.UID),
				slog.Any("error", err),
			)
		}
	}
	p.hub.Publish(nil)

	return nil
}

// UpdateProfile implements service.IdentityProvider. An empty string clears
// the attribute.
func (p *Provider) UpdateProfile(ctx context.Context, update entity.ProfileUpdate) error {
	current := p.hub.Current()
	if current == nil {
		return domainerrors.NewIdentityError(domainerrors.KindNotSignedIn, nil)
	}
	if update.IsEmpty() {
		return nil
	}

	req := updateRequest{IDToken: current.AccessToken, ReturnSecureToken: true}
	if update.DisplayName != nil {
		if *update.DisplayName == "" {
			req.DeleteAttribute = append(req.DeleteAttribute, "DISPLAY_NAME")
		} else {
			req.DisplayName = update.DisplayName
		}
	}
	if update.PhotoURL != nil {
		if *update.PhotoURL == "" {
			req.DeleteAttribute = append(req.DeleteAttribute, "PHOTO_URL")
		} else {
			req.PhotoURL = update.PhotoURL
		}
	}

	var resp authResponse
	if err := p.call(ctx, "update", req, &resp, domainerrors.KindUnknown); err != nil {
		return err
	}

	if update.DisplayName != nil {
		current.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		current.PhotoURL = *update.PhotoURL
	}
	if resp.IDToken != "" {
		current.AccessToken = resp.IDToken
		current.RefreshToken = resp.RefreshToken
		current.ExpiresAt = p.expiry(resp.ExpiresIn)
	}

	p.hub.Publish(current)

	return nil
}

// Subscribe implements service.IdentityProvider
func (p *Provider) Subscribe(observer service.IdentityObserver) func() {
	return p.hub.Subscribe(observer)
}

func (p *Provider) signIn(ctx context.Context, resp *authResponse, provider entity.ProviderType) (*entity.Identity, error) {
	photoURL := resp.PhotoURL
	if photoURL == "" {
		photoURL = resp.ProfilePicture
	}

	identity := &entity.Identity{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     photoURL,
		AccessToken:  resp.IDToken,
		RefreshToken: resp.RefreshToken,
		Provider:     provider,
		ExpiresAt:    p.expiry(resp.ExpiresIn),
	}

	if p.admin != nil {
		token, err := p.admin.VerifyIDToken(ctx, resp.IDToken)
		if err != nil {
			return nil, domainerrors.NewIdentityError(domainerrors.KindInvalidCredential, errors.Wrap(err, "issued ID token rejected"))
		}
		identity.UID = token.UID
		identity.ExpiresAt = time.Unix(token.Expires, 0)
	}

	p.hub.Publish(identity)

	return identity.Clone(), nil
}

func (p *Provider) expiry(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}

	return p.now().Add(time.Duration(seconds) * time.Second)
}

// call posts body to accounts:<method> and decodes the response into out.
// Provider error codes that have no dedicated kind are reported as fallback.
func (p *Provider) call(ctx context.Context, method string, body, out any, fallback domainerrors.IdentityErrorKind) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domainerrors.NewIdentityError(domainerrors.KindUnknown, errors.Wrap(err, "marshal request"))
	}

	endpoint := p.endpoint + "/accounts:" + method + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domainerrors.NewIdentityError(domainerrors.KindUnknown, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domainerrors.NewIdentityError(domainerrors.KindNetworkUnavailable, errors.Wrapf(err, "accounts:%s", method))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainerrors.NewIdentityError(domainerrors.KindNetworkUnavailable, errors.Wrap(err, "read response"))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		_ = json.Unmarshal(data, &apiErr)
		code := providerErrorCode(apiErr.Error.Message)
		if code == "" {
			code = http.StatusText(resp.StatusCode)
		}

		return domainerrors.NewIdentityError(classify(code, fallback), errors.Errorf("accounts:%s: %s", method, code))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return domainerrors.NewIdentityError(domainerrors.KindUnknown, errors.Wrap(err, "decode response"))
	}

	return nil
}

// providerErrorCode strips the human readable suffix, e.g.
// "WEAK_PASSWORD : Password should be at least 6 characters".
func providerErrorCode(message string) string {
	code, _, _ := strings.Cut(message, " ")

	return strings.TrimSpace(code)
}

func classify(code string, fallback domainerrors.IdentityErrorKind) domainerrors.IdentityErrorKind {
	switch code {
	case "EMAIL_EXISTS":
		return domainerrors.KindEmailAlreadyInUse
	case "WEAK_PASSWORD":
		return domainerrors.KindWeakPassword
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "INVALID_EMAIL", "MISSING_PASSWORD":
		return domainerrors.KindInvalidCredential
	case "EMAIL_NOT_FOUND", "USER_DISABLED", "USER_NOT_FOUND":
		return domainerrors.KindUserNotFound
	case "INVALID_IDP_RESPONSE", "OPERATION_NOT_ALLOWED", "FEDERATED_USER_ID_ALREADY_LINKED":
		return domainerrors.KindSocialSignInFailed
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return domainerrors.KindNotSignedIn
	default:
		return fallback
	}
}
