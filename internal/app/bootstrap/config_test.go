package bootstrap

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "loftwork",
		TokenSecret:       "test-secret",
		TokenTTL:          24 * time.Hour,
		BaseURL:           "http://localhost:3000",
		FrontendURL:       "http://localhost:5173",
		InviteCodeLength:  6,
		AuditLogAuth:      "all",
		AuditLogWorkspace: "all",
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	if err := ValidateConfig(nil, validAppConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig rejected valid config: %v", err)
	}
}

func TestValidateConfig_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*AppConfig)
		wantMsg string
	}{
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "not-a-uri" }, "MongoDB URI"},
		{"empty token secret", func(c *AppConfig) { c.TokenSecret = "" }, "token_secret"},
		{"zero token ttl", func(c *AppConfig) { c.TokenTTL = 0 }, "token_ttl"},
		{"bcrypt cost too high", func(c *AppConfig) { c.BcryptCost = 99 }, "bcrypt_cost"},
		{"half google credentials", func(c *AppConfig) { c.GoogleClientID = "id" }, "google_client"},
		{"relative base url", func(c *AppConfig) { c.BaseURL = "/api" }, "base_url"},
		{"relative frontend url", func(c *AppConfig) { c.FrontendURL = "localhost" }, "frontend_url"},
		{"invite code too short", func(c *AppConfig) { c.InviteCodeLength = 2 }, "invite_code_length"},
		{"bad audit setting", func(c *AppConfig) { c.AuditLogAuth = "syslog" }, "audit_log_auth"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validAppConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(nil, cfg, zap.NewNop())
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidateConfig_ProdRefusesWeakSecrets(t *testing.T) {
	prod := &config.CoreConfig{Env: "prod"}

	cases := []struct {
		name    string
		mutate  func(*AppConfig)
		wantMsg string
	}{
		{"dev default token secret", func(c *AppConfig) { c.TokenSecret = devTokenSecret }, "token_secret"},
		{"short token secret", func(c *AppConfig) { c.TokenSecret = "short" }, "token_secret"},
		{"dev default oauth state secret", func(c *AppConfig) {
			c.GoogleClientID = "id"
			c.GoogleClientSecret = "secret"
			c.OAuthStateSecret = devOAuthStateSecret
		}, "oauth_state_secret"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validAppConfig()
			cfg.TokenSecret = strings.Repeat("s", 48)
			tc.mutate(&cfg)
			err := ValidateConfig(prod, cfg, zap.NewNop())
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}

	// A strong secret passes in prod.
	cfg := validAppConfig()
	cfg.TokenSecret = strings.Repeat("s", 48)
	if err := ValidateConfig(prod, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig rejected strong prod secret: %v", err)
	}

	// Dev keeps its convenience default.
	dev := &config.CoreConfig{Env: "dev"}
	cfg = validAppConfig()
	cfg.TokenSecret = devTokenSecret
	if err := ValidateConfig(dev, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig rejected dev default in dev: %v", err)
	}
}

func TestValidateConfig_GoogleOptional(t *testing.T) {
	cfg := validAppConfig()
	cfg.GoogleClientID = "client-id"
	cfg.GoogleClientSecret = "client-secret"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig rejected full google credentials: %v", err)
	}

	cfg.GoogleClientID = ""
	cfg.GoogleClientSecret = ""
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig rejected absent google credentials: %v", err)
	}
}
