package config

import (
	"testing"
	"time"

	"github.com/localnerve/aphrodite/internal/types"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("aphrodite", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(fs)
}

func TestLoadMySQL(t *testing.T) {
	cfg, err := load(t, "-t", "mysql", "-u", "app", "-p", "secret", "-h", "db:3306", "-d", "props")
	require.NoError(t, err)

	assert.Equal(t, MySQL, cfg.Backend)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "db:3306", cfg.Host)
	assert.Equal(t, "props", cfg.Database)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.False(t, cfg.MetricsEnabled())
	assert.Equal(t, PoolConfig{
		MaxOpen:     DefaultPoolSize,
		MaxIdle:     DefaultPoolSize / 2,
		MaxLifetime: DefaultPoolMaxLifetime,
		MaxIdleTime: DefaultPoolMaxIdleTime,
	}, cfg.Pool)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, LogConfig{Level: "info", Format: "console"}, cfg.Log)
}

func TestLoadLongFlags(t *testing.T) {
	cfg, err := load(t,
		"--type", "postgres", "--user", "app", "--password", "secret",
		"--host", "localhost", "--database", "props",
	)
	require.NoError(t, err)
	assert.Equal(t, Postgres, cfg.Backend)
	assert.Equal(t, "localhost", cfg.Host)
}

func TestLoadSQLiteIgnoresCredentials(t *testing.T) {
	cfg, err := load(t, "-t", "sqlite", "-d", "/tmp/props.db")
	require.NoError(t, err)
	assert.Equal(t, SQLite, cfg.Backend)
	assert.Equal(t, "/tmp/props.db", cfg.Database)

	cfg, err = load(t, "-t", "sqlite", "-d", "/tmp/props.db", "-u", "app", "-p", "secret", "-h", "db")
	require.NoError(t, err)
	assert.Empty(t, cfg.User)
	assert.Empty(t, cfg.Password)
	assert.Empty(t, cfg.Host)
}

func TestLoadEmptyPasswordIsPresent(t *testing.T) {
	cfg, err := load(t, "-t", "mysql", "-u", "root", "-p", "", "-h", "db", "-d", "props")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Password)
}

func TestLoadMissingArguments(t *testing.T) {
	full := map[string]string{
		"type":     "mysql",
		"user":     "app",
		"password": "secret",
		"host":     "db",
		"database": "props",
	}

	for _, backend := range []string{"mysql", "postgres"} {
		for _, omit := range []string{"type", "user", "password", "host", "database"} {
			t.Run(backend+"/"+omit, func(t *testing.T) {
				var args []string
				for _, name := range []string{"type", "user", "password", "host", "database"} {
					if name == omit {
						continue
					}
					value := full[name]
					if name == "type" {
						value = backend
					}
					args = append(args, "--"+name, value)
				}

				_, err := load(t, args...)
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrMissingArgument)
				assert.Equal(t, omit+" is missing", err.Error())
			})
		}
	}

	t.Run("sqlite/database", func(t *testing.T) {
		_, err := load(t, "-t", "sqlite", "-u", "app")
		assert.EqualError(t, err, "database is missing")
	})
}

func TestLoadReportsFirstMissingField(t *testing.T) {
	_, err := load(t, "-t", "postgres", "-d", "props")
	assert.EqualError(t, err, "user is missing")

	_, err = load(t, "-t", "postgres", "-u", "app", "-d", "props")
	assert.EqualError(t, err, "password is missing")

	_, err = load(t, "-t", "postgres", "-u", "app", "-p", "x", "-d", "props")
	assert.EqualError(t, err, "host is missing")
}

func TestLoadUnsupportedBackend(t *testing.T) {
	_, err := load(t, "-t", "mongo", "-u", "app", "-p", "secret", "-h", "db", "-d", "props")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnsupportedBackend)
	assert.Equal(t, "bad db type: mongo", err.Error())

	// the backend is checked before anything else
	_, err = load(t, "-t", "MySQL")
	assert.ErrorIs(t, err, types.ErrUnsupportedBackend)

	// the type is matched literally
	_, err = load(t, "-t", " sqlite ", "-d", ":memory:")
	assert.ErrorIs(t, err, types.ErrUnsupportedBackend)
	assert.Equal(t, "bad db type:  sqlite ", err.Error())
}

func TestLoadKeepsValuesVerbatim(t *testing.T) {
	cfg, err := load(t, "-t", "sqlite", "-d", " /tmp/props db ")
	require.NoError(t, err)
	assert.Equal(t, " /tmp/props db ", cfg.Database)

	cfg, err = load(t, "-t", "postgres", "-u", " app", "-p", "x", "-h", "db ", "-d", "props")
	require.NoError(t, err)
	assert.Equal(t, " app", cfg.User)
	assert.Equal(t, "db ", cfg.Host)
}

func TestLoadAmbientFlags(t *testing.T) {
	cfg, err := load(t,
		"-t", "sqlite", "-d", ":memory:",
		"--listen", "0.0.0.0:9000",
		"--metrics-listen", "127.0.0.1:0",
		"--pool-size", "3",
		"--pool-max-lifetime", "1h",
		"--pool-max-idle-time", "2m",
		"--connect-timeout", "5s",
		"--log-level", "DEBUG",
		"--log-format", "json",
		"--log-file", "/var/log/aphrodite.log",
	)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.True(t, cfg.MetricsEnabled())
	assert.Equal(t, 3, cfg.Pool.MaxOpen)
	assert.Equal(t, 1, cfg.Pool.MaxIdle)
	assert.Equal(t, time.Hour, cfg.Pool.MaxLifetime)
	assert.Equal(t, 2*time.Minute, cfg.Pool.MaxIdleTime)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json", File: "/var/log/aphrodite.log"}, cfg.Log)
}

func TestLoadAmbientFromEnv(t *testing.T) {
	t.Setenv("APHRODITE_LISTEN", "127.0.0.1:8100")
	t.Setenv("APHRODITE_POOL_SIZE", "4")
	t.Setenv("APHRODITE_LOG_LEVEL", "warn")

	cfg, err := load(t, "-t", "sqlite", "-d", ":memory:", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8100", cfg.Listen)
	assert.Equal(t, 4, cfg.Pool.MaxOpen)
	// flags win over env
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadConnectionValuesIgnoreEnv(t *testing.T) {
	t.Setenv("APHRODITE_TYPE", "sqlite")
	t.Setenv("APHRODITE_DATABASE", "props.db")

	_, err := load(t)
	assert.EqualError(t, err, "type is missing")
}

func TestLoadInvalidAmbient(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"listen", []string{"--listen", "localhost"}, "listen"},
		{"listen port", []string{"--listen", "localhost:70000"}, "listen"},
		{"metrics", []string{"--metrics-listen", "nope"}, "metrics-listen"},
		{"pool size", []string{"--pool-size", "0"}, "pool-size"},
		{"lifetime", []string{"--pool-max-lifetime", "0s"}, "pool-max-lifetime"},
		{"timeout", []string{"--connect-timeout", "-1s"}, "connect-timeout"},
		{"level", []string{"--log-level", "loud"}, "log-level"},
		{"format", []string{"--log-format", "xml"}, "log-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-t", "sqlite", "-d", ":memory:"}, tt.args...)
			_, err := load(t, args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidArgument)

			var invalid *types.InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestValidateListenAddrAllowsAnyPort(t *testing.T) {
	password := "secret"
	cfg, err := Validate(Input{
		Backend:         Postgres,
		User:            "app",
		Password:        &password,
		Host:            "db",
		Database:        "props",
		Listen:          "127.0.0.1:0",
		PoolSize:        1,
		PoolMaxLifetime: time.Minute,
		PoolMaxIdleTime: time.Minute,
		ConnectTimeout:  time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", cfg.Listen)
	assert.Equal(t, 1, cfg.Pool.MaxIdle)
}
