package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath = "."

	defaultLoginPath         = "/login"
	defaultRegisterPath      = "/register"
	defaultHomePath          = "/"
	defaultNotFoundCountdown = 5 * time.Second
	defaultBackendTimeout    = 15 * time.Second
	defaultFallbackRole      = "unknown"
	defaultIdentityProvider  = IdentityProviderMemory
)

// Identity provider names accepted in identity.provider.
const (
	IdentityProviderFirebase = "firebase"
	IdentityProviderMemory   = "memory"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Identity selects and configures the external identity provider
	Identity IdentityConfig `json:"identity" yaml:"identity"`

	// GoogleOAuth configures the social sign-in flow
	GoogleOAuth *GoogleOAuthConfig `json:"googleOAuth" yaml:"googleOAuth"`

	// Backend is the remote REST API consumed through the authenticated client
	Backend BackendConfig `json:"backend" yaml:"backend"`

	Role RoleConfig `json:"role" yaml:"role"`

	Routes RoutesConfig `json:"routes" yaml:"routes"`

	NotFound NotFoundConfig `json:"notFound" yaml:"notFound"`

	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// IdentityConfig defines the identity provider configuration
type IdentityConfig struct {
	// Provider is "firebase" or "memory"
	Provider string          `json:"provider" yaml:"provider"`
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`
	Memory   *MemoryConfig   `json:"memory" yaml:"memory"`
}

// FirebaseConfig defines Firebase Authentication settings
type FirebaseConfig struct {
	ProjectID string `json:"projectId" yaml:"projectId"`
	// APIKey is the web API key used against the Identity Toolkit REST API
	APIKey string `json:"apiKey" yaml:"apiKey"`
	// CredentialsPath enables the Admin SDK (token verification, revocation) when set
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
	// Endpoint overrides the Identity Toolkit base URL (emulator, tests)
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// MemoryConfig defines the in-process identity provider used for development
type MemoryConfig struct {
	SecretKey         string        `json:"secretKey" yaml:"secretKey"`
	TokenTTL          time.Duration `json:"tokenTtl" yaml:"tokenTtl"`
	BcryptCost        int           `json:"bcryptCost" yaml:"bcryptCost"`
	MinPasswordLength int           `json:"minPasswordLength" yaml:"minPasswordLength"`
	// GoogleClientID is the audience accepted for Google ID tokens on social sign-in
	GoogleClientID string `json:"googleClientId" yaml:"googleClientId"`
}

type GoogleOAuthConfig struct {
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
	RedirectURI  string `json:"redirectUri" yaml:"redirectUri"`
	Scopes       string `json:"scopes" yaml:"scopes"`
}

// BackendConfig defines the remote REST API
type BackendConfig struct {
	BaseURL string        `json:"baseUrl" yaml:"baseUrl"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RoleConfig defines role resolution settings
type RoleConfig struct {
	// Fallback is returned while a role fetch is outstanding or after it failed
	Fallback string `json:"fallback" yaml:"fallback"`
}

// RoutesConfig names the client-side routes the gate redirects to
type RoutesConfig struct {
	Login    string `json:"login" yaml:"login"`
	Register string `json:"register" yaml:"register"`
	Home     string `json:"home" yaml:"home"`
}

// NotFoundConfig defines the not-found view behavior
type NotFoundConfig struct {
	Countdown time.Duration `json:"countdown" yaml:"countdown"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads <currEnv>.yaml through koanf and overlays environment variables.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	k := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	configFile, found := findConfigFile(currEnv, searchPaths)
	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existing := k.Raw()

	// IDENTITY_FIREBASE_APIKEY -> identity.firebase.apiKey
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return canonicalizeEnvKey(key, existing), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func findConfigFile(currEnv string, searchPaths []string) (string, bool) {
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Routes.Login) == "" {
		c.Routes.Login = defaultLoginPath
	}
	if strings.TrimSpace(c.Routes.Register) == "" {
		c.Routes.Register = defaultRegisterPath
	}
	if strings.TrimSpace(c.Routes.Home) == "" {
		c.Routes.Home = defaultHomePath
	}
	if c.NotFound.Countdown <= 0 {
		c.NotFound.Countdown = defaultNotFoundCountdown
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}
	if strings.TrimSpace(c.Role.Fallback) == "" {
		c.Role.Fallback = defaultFallbackRole
	}
	if strings.TrimSpace(c.Identity.Provider) == "" {
		c.Identity.Provider = defaultIdentityProvider
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.baseUrl is required")
	}

	switch c.Identity.Provider {
	case IdentityProviderFirebase:
		if c.Identity.Firebase == nil || c.Identity.Firebase.APIKey == "" {
			return errors.New("identity.firebase.apiKey is required for the firebase provider")
		}
	case IdentityProviderMemory:
		if c.Identity.Memory == nil || c.Identity.Memory.SecretKey == "" {
			return errors.New("identity.memory.secretKey is required for the memory provider")
		}
	default:
		return errors.Errorf("unknown identity provider: %s", c.Identity.Provider)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		matched, next, ok := findExistingSegment(current, segment)
		if !ok {
			canonical = append(canonical, segment)
			current = nil

			continue
		}
		canonical = append(canonical, matched)
		current = next
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
