package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/localnerve/aphrodite/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "aphrodite dev (commit: none, built: unknown)\n", out)
}

func TestMissingArguments(t *testing.T) {
	_, err := execute(t, "-t", "postgres", "-u", "app", "-p", "secret", "-d", "props")
	require.Error(t, err)
	assert.EqualError(t, err, "host is missing")
	assert.Equal(t, types.ExitUsage, types.ExitCode(err))
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := execute(t, "--type", "oracle", "-d", "props")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnsupportedBackend)
	assert.Equal(t, types.ExitUsage, types.ExitCode(err))
}

func TestUnsupportedBackendOpensNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")

	_, err := execute(t, "-t", "mongo", "-d", path)
	require.ErrorIs(t, err, types.ErrUnsupportedBackend)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "database file should not be created")
}

func TestHelpFlag(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--host")
	assert.Contains(t, out, "-h, --host")
	assert.NotContains(t, out, "-h, --help")
}

func TestHostShorthandIsNotHelp(t *testing.T) {
	_, err := execute(t, "-t", "mysql", "-h", "db")
	assert.EqualError(t, err, "user is missing")
}

func TestUnknownFlag(t *testing.T) {
	_, err := execute(t, "--nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, types.ExitUsage, types.ExitCode(err))
}

func TestBadCredentialsExitCode(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	prevLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	})

	_, err := execute(t, "-t", "sqlite", "-d", t.TempDir()+"/missing/dir/props.db", "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadCredentials)
	assert.Equal(t, types.ExitCredentials, types.ExitCode(err))
}
