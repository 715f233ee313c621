package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigs(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	return dir
}

func TestMustLoad(t *testing.T) {
	dir := writeConfigs(t, `
http_port: 8080
jwt_ttl: 24h
login_token_ttl: 24h
delete_token_ttl: 1h
posting_lifetime_days: 30
auto_approve_postings: true
allowed_email_domains:
  - gc.ca
  - canada.ca
`, `
jwt_key: "secret"
pg:
  host: localhost
  port: 5432
  user: waap
  password: waap
  dbname: waap
`)

	cfg := MustLoad(dir)

	assert.Equal(t, 8080, cfg.Public.HttpPort)
	assert.Equal(t, 24*time.Hour, cfg.Public.LoginTokenTTL)
	assert.Equal(t, time.Hour, cfg.Public.DeleteTokenTTL)
	assert.True(t, cfg.Public.AutoApprovePostings)
	assert.Equal(t, []string{"gc.ca", "canada.ca"}, cfg.Public.AllowedEmailDomains)
	assert.Equal(t, "secret", cfg.JwtKey())
	assert.Equal(t, "waap", cfg.Private.Pg.Dbname)
}

func TestMustLoadDefaults(t *testing.T) {
	dir := writeConfigs(t, "http_port: 8080\n", "jwt_key: 'k'\n")

	cfg := MustLoad(dir)

	assert.Equal(t, 24*time.Hour, cfg.Public.LoginTokenTTL)
	assert.Equal(t, time.Hour, cfg.Public.DeleteTokenTTL)
	assert.Equal(t, 30, cfg.Public.PostingLifetimeDays)
}

func TestMustLoadMissingFile(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for missing config folder, got none")
		}
	}()

	_ = MustLoad(filepath.Join(t.TempDir(), "nope"))
}
