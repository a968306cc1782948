package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func()
		expectError bool
	}{
		{
			name: "loads config from custom directory via env var",
			setupEnv: func() {
				os.Setenv("SVLS_CONFIG_DIR", "../../../../config")
			},
			expectError: false,
		},
		{
			name: "fails when config directory doesn't exist",
			setupEnv: func() {
				os.Setenv("SVLS_CONFIG_DIR", "/nonexistent/path")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			t.Cleanup(func() {
				os.Unsetenv("SVLS_CONFIG_DIR")
			})

			provider, err := NewConfig()

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, provider)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, provider)

				config := provider.(Config)

				serviceName := config.Get("service.name")
				assert.True(t, serviceName.HasValue())

				loggingLevel := config.Get("logging.level")
				assert.True(t, loggingLevel.HasValue())
			}
		})
	}
}

func TestConfig_Name(t *testing.T) {
	t.Setenv("SVLS_CONFIG_DIR", "../../../../config")
	provider, err := NewConfig()
	require.NoError(t, err)
	require.NotNil(t, provider)

	config := provider.(Config)
	assert.Equal(t, "config", config.Name())
}

func TestGetConfigDir(t *testing.T) {
	tests := []struct {
		name           string
		setupEnv       func()
		expectedResult string
	}{
		{
			name: "returns environment variable when set",
			setupEnv: func() {
				os.Setenv("SVLS_CONFIG_DIR", "/custom/config/path")
			},
			expectedResult: "/custom/config/path",
		},
		{
			name: "returns default path when environment variable not set",
			setupEnv: func() {
				os.Unsetenv("SVLS_CONFIG_DIR")
			},
			expectedResult: "config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			t.Cleanup(func() {
				os.Unsetenv("SVLS_CONFIG_DIR")
			})

			result := getConfigDir()
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}

func TestConfigFilePriority(t *testing.T) {
	tempDir := t.TempDir()

	baseConfig := `service:
  name: base-service
logging:
  level: info`

	devConfig := `service:
  name: dev-service
logging:
  level: debug`

	localConfig := `logging:
  level: warn`

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "meta.yaml"), []byte("files:\n  - base.yaml\n  - development.yaml\n  - local.yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "base.yaml"), []byte(baseConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "development.yaml"), []byte(devConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "local.yaml"), []byte(localConfig), 0o644))

	t.Setenv("SVLS_CONFIG_DIR", tempDir)

	provider, err := NewConfig()
	require.NoError(t, err)
	require.NotNil(t, provider)

	config := provider.(Config)

	serviceName := config.Get("service.name")
	assert.True(t, serviceName.HasValue())
	assert.Equal(t, "dev-service", serviceName.String())

	loggingLevel := config.Get("logging.level")
	assert.True(t, loggingLevel.HasValue())
	assert.Equal(t, "warn", loggingLevel.String())
}
