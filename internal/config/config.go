package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Backend names a supported database engine.
type Backend string

const (
	MySQL    Backend = "mysql"
	Postgres Backend = "postgres"
	SQLite   Backend = "sqlite"
)

// Flag names
const (
	FlagType            = "type"
	FlagDatabase        = "database"
	FlagUser            = "user"
	FlagPassword        = "password"
	FlagHost            = "host"
	FlagListen          = "listen"
	FlagMetricsListen   = "metrics-listen"
	FlagPoolSize        = "pool-size"
	FlagPoolMaxLifetime = "pool-max-lifetime"
	FlagPoolMaxIdleTime = "pool-max-idle-time"
	FlagConnectTimeout  = "connect-timeout"
	FlagLogLevel        = "log-level"
	FlagLogFormat       = "log-format"
	FlagLogFile         = "log-file"
)

// Defaults
const (
	EnvPrefix = "APHRODITE"

	DefaultListen          = "127.0.0.1:8000"
	DefaultPoolSize        = 10
	DefaultPoolMaxLifetime = 30 * time.Minute
	DefaultPoolMaxIdleTime = 10 * time.Minute
	DefaultConnectTimeout  = 30 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// ambientFlags may also be supplied through APHRODITE_* environment variables.
// Connection values are flag-only.
var ambientFlags = []string{
	FlagListen,
	FlagMetricsListen,
	FlagPoolSize,
	FlagPoolMaxLifetime,
	FlagPoolMaxIdleTime,
	FlagConnectTimeout,
	FlagLogLevel,
	FlagLogFormat,
	FlagLogFile,
}

// Config holds the validated startup configuration
type Config struct {
	Backend  Backend
	Database string
	User     string
	Password string
	Host     string

	Listen        string
	MetricsListen string

	Pool           PoolConfig
	ConnectTimeout time.Duration

	Log LogConfig
}

// PoolConfig sizes the database/sql pool behind the gorm handle.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// LogConfig selects the zerolog output.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// MetricsEnabled reports whether the metrics listener should be started.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsListen != ""
}

// RegisterFlags declares every startup flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagType, "t", "", "database backend: mysql, postgres or sqlite")
	fs.StringP(FlagDatabase, "d", "", "database name, or the database file path for sqlite")
	fs.StringP(FlagUser, "u", "", "database user (mysql, postgres)")
	fs.StringP(FlagPassword, "p", "", "database password (mysql, postgres)")
	fs.StringP(FlagHost, "h", "", "database host[:port] (mysql, postgres)")

	fs.String(FlagListen, DefaultListen, "address the HTTP listener binds to")
	fs.String(FlagMetricsListen, "", "address for the prometheus metrics listener (disabled when empty)")
	fs.Int(FlagPoolSize, DefaultPoolSize, "maximum open connections in the pool")
	fs.Duration(FlagPoolMaxLifetime, DefaultPoolMaxLifetime, "maximum lifetime of a pooled connection")
	fs.Duration(FlagPoolMaxIdleTime, DefaultPoolMaxIdleTime, "maximum idle time of a pooled connection")
	fs.Duration(FlagConnectTimeout, DefaultConnectTimeout, "timeout for establishing a database connection")
	fs.String(FlagLogLevel, DefaultLogLevel, "log level: trace, debug, info, warn or error")
	fs.String(FlagLogFormat, DefaultLogFormat, "log format: console or json")
	fs.String(FlagLogFile, "", "also write logs to this rotating file")
}

// Load reads the flags registered by RegisterFlags, overlays APHRODITE_* environment
// variables onto the ambient settings, and validates the result.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range ambientFlags {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return nil, err
		}
	}

	in := Input{
		Backend:         Backend(lookupString(fs, FlagType)),
		User:            lookupString(fs, FlagUser),
		Host:            lookupString(fs, FlagHost),
		Database:        lookupString(fs, FlagDatabase),
		Listen:          v.GetString(FlagListen),
		MetricsListen:   v.GetString(FlagMetricsListen),
		PoolSize:        v.GetInt(FlagPoolSize),
		PoolMaxLifetime: v.GetDuration(FlagPoolMaxLifetime),
		PoolMaxIdleTime: v.GetDuration(FlagPoolMaxIdleTime),
		ConnectTimeout:  v.GetDuration(FlagConnectTimeout),
		LogLevel:        strings.ToLower(v.GetString(FlagLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(FlagLogFormat)),
		LogFile:         v.GetString(FlagLogFile),
	}

	// An explicitly empty password is still a password
	if fs.Changed(FlagPassword) {
		password, _ := fs.GetString(FlagPassword)
		in.Password = &password
	}

	return Validate(in)
}

func lookupString(fs *pflag.FlagSet, name string) string {
	value, err := fs.GetString(name)
	if err != nil {
		return ""
	}
	return value
}
