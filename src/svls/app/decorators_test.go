package app

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type fakeFS struct {
	mkdirErr map[string]error
	made     []string
}

func (f *fakeFS) MkdirAll(path string) error {
	f.made = append(f.made, path)
	return f.mkdirErr[path]
}

func TestEnv(t *testing.T) {
	tests := []struct {
		name      string
		setEnvKey string
		setEnvVal string
		expectVal string
	}{
		{
			name:      "local",
			expectVal: EnvLocal,
		},
		{
			name:      "development",
			setEnvKey: _envSvlsEnvironment,
			setEnvVal: "development",
			expectVal: EnvDevelopment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnvKey != "" {
				os.Setenv(tt.setEnvKey, tt.setEnvVal)
				defer os.Unsetenv(tt.setEnvKey)
			}

			fxtest.New(
				t,
				fx.Provide(func() Context {
					return Context{
						Environment:        "local",
						RuntimeEnvironment: "local",
					}
				}),
				fx.Decorate(decorateEnvContext),
				fx.Invoke(func(ctx Context) {
					require.Equal(t, tt.expectVal, ctx.Environment, "unexpected environment")
					require.Equal(t, tt.expectVal, ctx.RuntimeEnvironment, "unexpected runtime environment")
				}),
			).RequireStart().RequireStop()
		})
	}
}

func TestDecorateConfigProvider(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		f := &fakeFS{}

		fxtest.New(
			t,
			fx.Provide(func() config.Provider {
				p, _ := config.NewStaticProvider(map[string]interface{}{
					"logging": map[string]interface{}{
						"outputPaths": []string{
							"/tmp/foo/myfile1.log",
						},
					},
				})
				return p
			}),
			fx.Decorate(func(cfg config.Provider) (config.Provider, error) {
				return decorateConfigProvider(cfg, f)
			}),
			fx.Invoke(func(cfg config.Provider) {}),
		).RequireStart().RequireStop()

		assert.Contains(t, f.made, "/tmp/foo")
	})
}

func TestEnsureLogFolder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		f := &fakeFS{}
		p, _ := config.NewStaticProvider(map[string]interface{}{
			"logging": map[string]interface{}{
				"outputPaths": []string{
					"/tmp/foo/myfile1.log",
					"/tmp/bar/myfile2.log",
				},
			},
		})

		_, err := ensureLogFolder(p, f)
		require.NoError(t, err)
		assert.Contains(t, f.made, "/tmp/foo")
		assert.Contains(t, f.made, "/tmp/bar")
	})

	t.Run("error creating directory", func(t *testing.T) {
		f := &fakeFS{mkdirErr: map[string]error{"/tmp/foo": errors.New("error creating directory")}}
		p, _ := config.NewStaticProvider(map[string]interface{}{
			"logging": map[string]interface{}{
				"outputPaths": []string{
					"/tmp/foo/myfile1.log",
					"/tmp/bar/myfile2.log",
				},
			},
		})
		_, err := ensureLogFolder(p, f)
		assert.Error(t, err)
	})

	t.Run("skips stdout and stderr", func(t *testing.T) {
		f := &fakeFS{}
		p, _ := config.NewStaticProvider(map[string]interface{}{
			"logging": map[string]interface{}{
				"outputPaths": []string{"stdout", "stderr"},
			},
		})

		_, err := ensureLogFolder(p, f)
		require.NoError(t, err)
		assert.Empty(t, f.made)
	})
}
