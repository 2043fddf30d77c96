package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Host string
		Port int
	}
	Storage struct {
		StorageType string
		Redis       struct {
			Password    string
			DialTimeout time.Duration
		}
	}
	Engine struct {
		Attempts int
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configFile := writeFile(t, dir, "config.yaml", `
server:
  port: 9000
storage:
  storageType: redis
  redis:
    password: $env:MURINAHI_TEST_REDIS_PASSWORD
    dialTimeout: 3s
`)

	t.Run("defaults env and durations", func(t *testing.T) {
		t.Setenv("MURINAHI_TEST_REDIS_PASSWORD", "secret")

		var c testConfig
		err := Load(configFile, "", map[string]interface{}{
			"server.host":     "127.0.0.1",
			"server.port":     8005,
			"engine.attempts": 3,
		}, &c)
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1", c.Server.Host)
		require.Equal(t, 9000, c.Server.Port)
		require.Equal(t, "redis", c.Storage.StorageType)
		require.Equal(t, "secret", c.Storage.Redis.Password)
		require.Equal(t, 3*time.Second, c.Storage.Redis.DialTimeout)
		require.Equal(t, 3, c.Engine.Attempts)
	})

	t.Run("env file", func(t *testing.T) {
		envFile := writeFile(t, dir, ".env", "MURINAHI_TEST_REDIS_PASSWORD=from-file\n")
		t.Setenv("MURINAHI_TEST_REDIS_PASSWORD", "")
		require.NoError(t, os.Unsetenv("MURINAHI_TEST_REDIS_PASSWORD"))

		var c testConfig
		require.NoError(t, Load(configFile, envFile, nil, &c))
		require.Equal(t, "from-file", c.Storage.Redis.Password)
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		var c testConfig
		require.NoError(t, Load(configFile, filepath.Join(dir, "absent.env"), nil, &c))
	})

	t.Run("missing config", func(t *testing.T) {
		var c testConfig
		require.Error(t, Load(filepath.Join(dir, "absent.yaml"), "", nil, &c))
	})
}
