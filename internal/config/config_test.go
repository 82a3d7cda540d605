package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
logger:
  level: debug
http_client:
  timeout: 10s
  tls_client_config:
    verify: false
appsec:
  api_url: https://portal.example.com/
  api_token: secret
ui:
  theme: dark
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 10*time.Second, cfg.HTTPClient.Timeout)
	assert.False(t, GetBoolValue(cfg, "HTTPClient.TLSClientConfig.Verify", true))
	assert.Equal(t, "https://portal.example.com/", cfg.AppSec.APIURL)
	assert.Equal(t, "secret", cfg.AppSec.APIToken)
	assert.Equal(t, DefaultRuleActionChoice, cfg.AppSec.RuleActionChoice)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv("APPSEC_API_URL", "https://env.example.com")
	t.Setenv("APPSEC_API_TOKEN", "env-token")
	t.Setenv("TRIAGE_THEME", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.AppSec.APIURL)
	assert.Equal(t, "env-token", cfg.AppSec.APIToken)
	assert.Equal(t, ThemeAuto, cfg.UI.Theme)
	assert.True(t, GetBoolValue(cfg, "HTTPClient.TLSClientConfig.Verify", true))
}

func TestLoadConfigDirectory(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid empty",
			cfg:  Config{},
		},
		{
			name:    "retry count out of range",
			cfg:     Config{HTTPClient: HTTPClient{RetryCount: 21}},
			wantErr: "retry_count must be between 0 and 20",
		},
		{
			name:    "negative timeout",
			cfg:     Config{HTTPClient: HTTPClient{Timeout: -time.Second}},
			wantErr: "cannot be negative",
		},
		{
			name:    "bad proxy port",
			cfg:     Config{HTTPClient: HTTPClient{Proxy: Proxy{Host: "proxy.local", Port: 70000}}},
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "api url without scheme",
			cfg:     Config{AppSec: AppSec{APIURL: "portal.example.com"}},
			wantErr: "api_url must start with http:// or https://",
		},
		{
			name:    "unknown theme",
			cfg:     Config{UI: UI{Theme: "solarized"}},
			wantErr: "theme must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(&tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, "fallback", SetThen("", "fallback"))
	assert.Equal(t, "value", SetThen("value", "fallback"))
	assert.Equal(t, 5*time.Second, SetThen(time.Duration(0), 5*time.Second))
}
