// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, CORS, and request body limits.
// AppConfig is where everything specific to Loftwork lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer token configuration
	TokenSecret string        // HMAC secret for signing access tokens (must be strong in production)
	TokenTTL    time.Duration // Access token lifetime

	// Password hashing
	BcryptCost int // bcrypt cost factor (0 keeps the library default)

	// Google OAuth configuration
	GoogleClientID     string // Google OAuth2 client ID (blank disables the Google routes)
	GoogleClientSecret string // Google OAuth2 client secret
	OAuthStateSecret   string // Secret for signing the OAuth state cookie

	// BaseURL is the externally visible URL of this API, used to build
	// the OAuth callback URL (e.g., "https://api.loftwork.dev").
	BaseURL string

	// FrontendURL is where the OAuth callback hands the browser back to,
	// with the bearer token in the URL fragment.
	FrontendURL string

	// Invite codes
	InviteCodeLength int // Length of generated workspace invite codes

	// Audit logging destinations per category: "all", "db", "log", or "off"
	AuditLogAuth      string // auth events (logins, registrations)
	AuditLogWorkspace string // workspace events (membership, invites, deletes)
}
