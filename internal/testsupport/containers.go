// Package testsupport starts throwaway database servers for integration tests
// and for the testcontainers command.
package testsupport

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/localnerve/aphrodite/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultMySQLImage    = "mysql:8.4"
	DefaultPostgresImage = "postgres:17-alpine"

	startupTimeout = 2 * time.Minute
)

// Credentials for the application account created in the container.
type Credentials struct {
	User     string
	Password string
	Database string
}

// DefaultCredentials reads DB_USER, DB_PASSWORD and DB_DATABASE, falling back to
// fixed values. The default password contains characters that need escaping in a DSN.
func DefaultCredentials() Credentials {
	return Credentials{
		User:     getEnv("DB_USER", "aphrodite"),
		Password: getEnv("DB_PASSWORD", "s3cr@t:p/ss"),
		Database: getEnv("DB_DATABASE", "aphrodite"),
	}
}

// DatabaseContainer is a running database server reachable from the host.
type DatabaseContainer struct {
	Container   testcontainers.Container
	Backend     config.Backend
	Credentials Credentials
	Host        string
}

// DockerAvailable reports whether a docker daemon answers a ping.
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// StartDatabase starts a mysql or postgres container and waits until it accepts
// connections on its mapped port.
func StartDatabase(ctx context.Context, backend config.Backend, creds Credentials) (*DatabaseContainer, error) {
	var (
		image string
		port  nat.Port
		env   map[string]string
		err   error
	)

	switch backend {
	case config.MySQL:
		image = getEnv("MYSQL_IMAGE", DefaultMySQLImage)
		port, err = nat.NewPort("tcp", "3306")
		env = map[string]string{
			"MYSQL_ROOT_PASSWORD": creds.Password,
			"MYSQL_DATABASE":      creds.Database,
			"MYSQL_USER":          creds.User,
			"MYSQL_PASSWORD":      creds.Password,
		}
	case config.Postgres:
		image = getEnv("POSTGRES_IMAGE", DefaultPostgresImage)
		port, err = nat.NewPort("tcp", "5432")
		env = map[string]string{
			"POSTGRES_USER":     creds.User,
			"POSTGRES_PASSWORD": creds.Password,
			"POSTGRES_DB":       creds.Database,
		}
	default:
		return nil, fmt.Errorf("no container image for backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s port: %w", backend, err)
	}

	// Both images run a temporary server during init that does not listen on TCP
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(port)},
			Env:          env,
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		return nil, fmt.Errorf("failed to start %s: %w", image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &DatabaseContainer{
		Container:   container,
		Backend:     backend,
		Credentials: creds,
		Host:        net.JoinHostPort(host, mapped.Port()),
	}, nil
}

// Args is the aphrodite command line that connects to this container.
func (d *DatabaseContainer) Args() []string {
	return []string{
		"--type", string(d.Backend),
		"--user", d.Credentials.User,
		"--password", d.Credentials.Password,
		"--host", d.Host,
		"--database", d.Credentials.Database,
	}
}

// Terminate stops and removes the container.
func (d *DatabaseContainer) Terminate(ctx context.Context) error {
	return d.Container.Terminate(ctx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
