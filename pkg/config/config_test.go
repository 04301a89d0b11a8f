package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_DEFAULT_PASSWORD", "secret")
	t.Setenv("FRONTEND_URL", "https://rab.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, "https://rab.example.com", cfg.Frontend.URL)
	require.Equal(t, 10*time.Minute, cfg.Verify.CacheTTL)
	require.Equal(t, "secret", cfg.Bootstrap.AdminPassword)
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresAdminPassword(t *testing.T) {
	cfg := &Config{
		JWT:       JWTConfig{Secret: "s"},
		Bootstrap: BootstrapConfig{AdminEmail: "admin@example.com"},
	}
	require.EqualError(t, cfg.Validate(), "ADMIN_DEFAULT_PASSWORD is not set")
}

func TestValidateRejectsDevSecretInProduction(t *testing.T) {
	cfg := &Config{
		Env:       EnvProduction,
		JWT:       JWTConfig{Secret: defaultJWTSecret},
		Bootstrap: BootstrapConfig{AdminEmail: "admin@example.com", AdminPassword: "pw"},
	}
	require.Error(t, cfg.Validate())
}

func TestSplitAndTrim(t *testing.T) {
	require.Nil(t, splitAndTrim(""))
	require.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
