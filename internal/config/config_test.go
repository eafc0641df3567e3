package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearSecretEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvRedisPassword, "")
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validConfig() *Config {
	return &Config{
		DatabaseURL:          "postgres://localhost:5432/locum",
		JWTSecret:            "0123456789abcdef",
		SessionTTL:           time.Hour,
		PostcodesBaseURL:     "https://api.postcodes.io",
		GeocodeRatePerSecond: 5,
		MaxRecurrences:       52,
		Search:               SearchConfig{DefaultRadiusKm: 20},
		Server:               ServerConfig{Addr: ":8080", RequestsPerMinute: 60},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.RedisAddr = "localhost:6379"
	cfg.MessageGate.ExtraBlockedTerms = []string{"whatsapp"}
	cfg.Notifications = NotificationsConfig{Enabled: true, GmailSender: "bookings@example.com", OAuthClientFile: "oauth.json"}
	cfg.Server.AllowedOrigins = []string{"https://locum.example.com"}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "short"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecret")
}

func TestValidate_EmptyBlockedTerm(t *testing.T) {
	cfg := validConfig()
	cfg.MessageGate.ExtraBlockedTerms = []string{"whatsapp", ""}

	assert.Error(t, Validate(cfg))
}

func TestValidate_NotificationsNeedSender(t *testing.T) {
	cfg := validConfig()
	cfg.Notifications = NotificationsConfig{Enabled: true, OAuthClientFile: "oauth.json"}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gmailSender")
}

func TestValidate_NotificationsNeedOAuthClient(t *testing.T) {
	cfg := validConfig()
	cfg.Notifications = NotificationsConfig{Enabled: true, GmailSender: "bookings@example.com"}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "oauthClientFile")
}

func TestValidate_DisabledNotificationsSkipSender(t *testing.T) {
	cfg := validConfig()
	cfg.Notifications = NotificationsConfig{Enabled: false}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_InvalidRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.RedisAddr = "not an address"

	assert.Error(t, Validate(cfg))
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	clearSecretEnv(t)

	configPath := writeConfig(t, "locum_config.test.yaml", `
databaseURL: "postgres://localhost:5432/locum"
jwtSecret: "0123456789abcdef0123"
sessionTTL: 2h
redisAddr: "localhost:6379"
geocodeRatePerSecond: 2
search:
  defaultRadiusKm: 30
messageGate:
  extraBlockedTerms:
    - whatsapp
    - linkedin
notifications:
  enabled: true
  gmailSender: "bookings@example.com"
  oauthClientFile: "oauthClient.test.json"
server:
  addr: ":9090"
  allowedOrigins:
    - "https://locum.example.com"
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/locum", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2.0, cfg.GeocodeRatePerSecond)
	assert.Equal(t, 30.0, cfg.Search.DefaultRadiusKm)
	assert.Equal(t, []string{"whatsapp", "linkedin"}, cfg.MessageGate.ExtraBlockedTerms)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	require.Len(t, cfg.Server.AllowedOrigins, 1)

	// Defaults fill what the file leaves out
	assert.Equal(t, DefaultPostcodesBaseURL, cfg.PostcodesBaseURL)
	assert.Equal(t, DefaultRequestsPerMinute, cfg.Server.RequestsPerMinute)
	assert.Equal(t, DefaultMaxRecurrences, cfg.MaxRecurrences)
}

func TestLoadFromPath_MinimalConfig(t *testing.T) {
	clearSecretEnv(t)

	configPath := writeConfig(t, "minimal.yaml", `
databaseURL: "postgres://localhost:5432/locum"
jwtSecret: "0123456789abcdef"
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, float64(DefaultRadiusKm), cfg.Search.DefaultRadiusKm)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.MessageGate.ExtraBlockedTerms)
	assert.False(t, cfg.Notifications.Enabled)
}

func TestLoadFromPath_SecretsFromEnvironment(t *testing.T) {
	clearSecretEnv(t)
	t.Setenv(EnvDatabaseURL, "postgres://db.internal:5432/locum")
	t.Setenv(EnvJWTSecret, "env-secret-value-long-enough")
	t.Setenv(EnvRedisPassword, "hunter2")

	configPath := writeConfig(t, "secrets.yaml", `
jwtSecret: "file-secret-should-lose"
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres://db.internal:5432/locum", cfg.DatabaseURL)
	assert.Equal(t, "env-secret-value-long-enough", cfg.JWTSecret)
	assert.Equal(t, "hunter2", cfg.RedisPassword)
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	clearSecretEnv(t)

	configPath := writeConfig(t, "invalid.yaml", `
jwtSecret: "0123456789abcdef"
# Missing databaseURL
`)

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid_yaml.yaml", `
databaseURL: "postgres://localhost"
  invalid indentation
jwtSecret: "0123456789abcdef"
`)

	_, err := LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadOAuthClient(t *testing.T) {
	oauthPath := writeConfig(t, "oauthClient.json", `{
  "installed": {
    "client_id": "client.apps.googleusercontent.com",
    "project_id": "locum",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost"]
  }
}`)

	cfg := validConfig()
	cfg.Notifications.OAuthClientFile = oauthPath

	oauthCfg, err := cfg.LoadOAuthClient()
	require.NoError(t, err)
	assert.Equal(t, "locum", oauthCfg.Installed.ProjectID)

	cfg.Notifications.OAuthClientFile = ""
	_, err = cfg.LoadOAuthClient()
	assert.Error(t, err)
}

func TestValidateOAuthClient_InvalidURL(t *testing.T) {
	cfg := &OAuthClientConfig{
		Installed: OAuthInstalled{
			ClientID:                "test-client-id",
			ProjectID:               "test-project",
			AuthURI:                 "not-a-valid-url",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "test-secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}

	err := ValidateOAuthClient(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
