package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/aphrodite/internal/types"
)

// Input is the unvalidated startup configuration as collected from flags and env.
// Field order is the order in which problems are reported.
type Input struct {
	Backend  Backend `flag:"type" validate:"required,oneof=mysql postgres sqlite"`
	User     string  `flag:"user" validate:"required_unless=Backend sqlite"`
	Password *string `flag:"password" validate:"required_unless=Backend sqlite"`
	Host     string  `flag:"host" validate:"required_unless=Backend sqlite"`
	Database string  `flag:"database" validate:"required"`

	Listen          string        `flag:"listen" validate:"required,listen_addr"`
	MetricsListen   string        `flag:"metrics-listen" validate:"omitempty,listen_addr"`
	PoolSize        int           `flag:"pool-size" validate:"min=1"`
	PoolMaxLifetime time.Duration `flag:"pool-max-lifetime" validate:"gt=0"`
	PoolMaxIdleTime time.Duration `flag:"pool-max-idle-time" validate:"gt=0"`
	ConnectTimeout  time.Duration `flag:"connect-timeout" validate:"gt=0"`
	LogLevel        string        `flag:"log-level" validate:"oneof=trace debug info warn error"`
	LogFormat       string        `flag:"log-format" validate:"oneof=console json"`
	LogFile         string        `flag:"log-file"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("flag")
	})
	if err := v.RegisterValidation("listen_addr", validListenAddr); err != nil {
		panic(err)
	}
	return v
}

// validListenAddr accepts host:port with port 0 meaning "any free port".
func validListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}

// Validate checks the whole input before anything is opened or bound, and returns
// either a usable Config or the first problem found.
func Validate(in Input) (*Config, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return nil, err
		}
		return nil, fieldError(verrs[0])
	}

	cfg := &Config{
		Backend:       in.Backend,
		Database:      in.Database,
		Listen:        in.Listen,
		MetricsListen: in.MetricsListen,
		Pool: PoolConfig{
			MaxOpen:     in.PoolSize,
			MaxIdle:     max(in.PoolSize/2, 1),
			MaxLifetime: in.PoolMaxLifetime,
			MaxIdleTime: in.PoolMaxIdleTime,
		},
		ConnectTimeout: in.ConnectTimeout,
		Log: LogConfig{
			Level:  in.LogLevel,
			Format: in.LogFormat,
			File:   in.LogFile,
		},
	}

	// sqlite ignores credentials and host
	if in.Backend != SQLite {
		cfg.User = in.User
		cfg.Password = *in.Password
		cfg.Host = in.Host
	}

	return cfg, nil
}

func fieldError(fe validator.FieldError) error {
	switch {
	case fe.Tag() == "required" || fe.Tag() == "required_unless":
		return &types.MissingArgumentError{Field: fe.Field()}
	case fe.Field() == FlagType:
		return fmt.Errorf("%w: %v", types.ErrUnsupportedBackend, fe.Value())
	}
	return &types.InvalidArgumentError{Field: fe.Field(), Value: fmt.Sprint(fe.Value())}
}
