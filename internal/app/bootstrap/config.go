// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/loftwork/loftwork/internal/app/system/invites"
)

// appConfigKeys defines the configuration keys for Loftwork.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: LOFTWORK_MONGO_URI, LOFTWORK_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
// Dev-only fallback secrets so a bare checkout runs without setup.
// ValidateConfig refuses both of them, and anything shorter than
// minSecretLen, when the core env is prod.
const (
	devTokenSecret      = "dev-only-change-me-please-0123456789ABCDEF"
	devOAuthStateSecret = "dev-only-state-secret-0123456789ABCDEF"
	minSecretLen        = 32
)

var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "loftwork", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Bearer tokens
	{Name: "token_secret", Default: devTokenSecret, Desc: "HMAC secret for signing access tokens (must be strong in production)"},
	{Name: "token_ttl", Default: "24h", Desc: "Access token lifetime (e.g., 24h, 90m)"},

	// Password hashing
	{Name: "bcrypt_cost", Default: 0, Desc: "bcrypt cost factor (0 keeps the library default)"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID (blank disables Google sign-in)"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "oauth_state_secret", Default: devOAuthStateSecret, Desc: "Secret for signing the OAuth state cookie"},

	// URLs
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Externally visible URL of this API (for OAuth callbacks)"},
	{Name: "frontend_url", Default: "http://localhost:5173", Desc: "Frontend URL receiving the post-login token handoff"},

	// Invite codes
	{Name: "invite_code_length", Default: invites.DefaultCodeLength, Desc: "Length of generated workspace invite codes"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth audit events destination: all, db, log, or off"},
	{Name: "audit_log_workspace", Default: "all", Desc: "Workspace audit events destination: all, db, log, or off"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, LOFTWORK_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LOFTWORK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		BcryptCost: appValues.Int("bcrypt_cost"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		OAuthStateSecret:   appValues.String("oauth_state_secret"),

		BaseURL:     appValues.String("base_url"),
		FrontendURL: appValues.String("frontend_url"),

		InviteCodeLength: appValues.Int("invite_code_length"),

		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogWorkspace: appValues.String("audit_log_workspace"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.TokenSecret == "" {
		return fmt.Errorf("token_secret must not be empty")
	}
	if appCfg.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", appCfg.TokenTTL)
	}

	// Session tokens signed with a publicly known constant are worthless.
	// Refuse to start in prod on the dev fallbacks or anything weak.
	if coreCfg != nil && coreCfg.Env == "prod" {
		secrets := []struct{ name, val, devDefault string }{
			{"token_secret", appCfg.TokenSecret, devTokenSecret},
		}
		if appCfg.GoogleClientID != "" {
			secrets = append(secrets, struct{ name, val, devDefault string }{
				"oauth_state_secret", appCfg.OAuthStateSecret, devOAuthStateSecret,
			})
		}
		for _, s := range secrets {
			if s.val == s.devDefault {
				return fmt.Errorf("%s still has its dev default; set a real secret in prod", s.name)
			}
			if len(s.val) < minSecretLen {
				return fmt.Errorf("%s must be at least %d characters in prod, got %d", s.name, minSecretLen, len(s.val))
			}
		}
	}

	if appCfg.BcryptCost != 0 && (appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt_cost must be 0 or between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, appCfg.BcryptCost)
	}

	// Google sign-in is optional, but half a credential pair is always a mistake.
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}

	for _, u := range []struct{ name, val string }{
		{"base_url", appCfg.BaseURL},
		{"frontend_url", appCfg.FrontendURL},
	} {
		parsed, err := url.Parse(u.val)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", u.name, u.val)
		}
	}

	if appCfg.InviteCodeLength < 4 || appCfg.InviteCodeLength > 32 {
		return fmt.Errorf("invite_code_length must be between 4 and 32, got %d", appCfg.InviteCodeLength)
	}

	for _, s := range []struct{ name, val string }{
		{"audit_log_auth", appCfg.AuditLogAuth},
		{"audit_log_workspace", appCfg.AuditLogWorkspace},
	} {
		switch s.val {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off, got %q", s.name, s.val)
		}
	}

	return nil
}
