package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := ConfigDir()

	require.NoError(t, err)
	require.Contains(t, dir, ".ordersync")
}

func TestConfigFilePath(t *testing.T) {
	t.Parallel()

	path, err := ConfigFilePath()

	require.NoError(t, err)
	require.Contains(t, path, ".ordersync")
	require.Contains(t, path, "config.yaml")
}

func TestTokenFilePath(t *testing.T) {
	t.Parallel()

	path, err := TokenFilePath()

	require.NoError(t, err)
	require.Contains(t, path, ".ordersync")
	require.Contains(t, path, "token")
}

func TestLocalConfigValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		config       LocalConfig
		errFragments []string
		wantErr      bool
	}{
		"valid config": {
			config: LocalConfig{
				ERP: localERPConfig{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
				},
			},
			wantErr: false,
		},
		"missing all required fields": {
			config:  LocalConfig{},
			wantErr: true,
			errFragments: []string{
				"erp.client_id is required",
				"erp.client_secret is required",
			},
		},
		"missing only client secret": {
			config: LocalConfig{
				ERP: localERPConfig{
					ClientID: "client-id",
				},
			},
			wantErr:      true,
			errFragments: []string{"erp.client_secret is required"},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.config.validate()

			if tc.wantErr {
				require.Error(t, err)
				for _, fragment := range tc.errFragments {
					require.Contains(t, err.Error(), fragment)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadLocalFromFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content     string
		errContains string
		validateCfg func(t *testing.T, cfg *LocalConfig)
		wantErr     bool
	}{
		"valid config file": {
			content: `
erp:
  base_url: "https://sandbox.erp.example.com/v1"
  client_id: "test-client-id"
  client_secret: "test-client-secret"
  auth_url: "https://auth.sandbox.erp.example.com/oauth2/authorize"
  token_url: "https://auth.sandbox.erp.example.com/oauth2/token"
mirror:
  db_path: "/tmp/mirror.db"
`,
			wantErr: false,
			validateCfg: func(t *testing.T, cfg *LocalConfig) {
				t.Helper()
				require.Equal(t, "https://sandbox.erp.example.com/v1", cfg.ERP.BaseURL)
				require.Equal(t, "https://auth.sandbox.erp.example.com/oauth2/authorize", cfg.ERP.AuthURL)
				require.Equal(t, "test-client-id", cfg.ERP.ClientID)
				require.Equal(t, "test-client-secret", cfg.ERP.ClientSecret)
				require.Equal(t, "https://auth.sandbox.erp.example.com/oauth2/token", cfg.ERP.TokenURL)
				require.Equal(t, "/tmp/mirror.db", cfg.Mirror.DBPath)
			},
		},
		"defaults db path next to config file": {
			content: `
erp:
  client_id: "test-client-id"
  client_secret: "test-client-secret"
`,
			wantErr: false,
			validateCfg: func(t *testing.T, cfg *LocalConfig) {
				t.Helper()
				require.Equal(t, "mirror.db", filepath.Base(cfg.Mirror.DBPath))
			},
		},
		"invalid yaml": {
			content:     `invalid: yaml: content: [}`,
			wantErr:     true,
			errContains: "parsing config",
		},
		"missing required fields": {
			content: `
erp:
  client_id: "test-client-id"
`,
			wantErr:     true,
			errContains: "invalid config",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.content), 0o600))

			cfg, err := loadLocalFromPath(configPath)

			if tc.wantErr {
				require.Error(t, err)
				if tc.errContains != "" {
					require.Contains(t, err.Error(), tc.errContains)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tc.validateCfg != nil {
					tc.validateCfg(t, cfg)
				}
			}
		})
	}
}

func TestLoadLocalFileNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "nonexistent.yaml")

	_, err := loadLocalFromPath(configPath)

	require.Error(t, err)
	require.Contains(t, err.Error(), "config file not found")
}

func TestLocalConfigExists(t *testing.T) {
	t.Parallel()

	// This test verifies the function doesn't panic.
	// Actual result depends on whether ~/.ordersync/config.yaml exists.
	_ = LocalConfigExists()
}
