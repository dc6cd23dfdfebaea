package utils

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// DefaultPingTimeout bounds a single reachability probe.
const DefaultPingTimeout = 1500 * time.Millisecond

// PingService checks if a service is accepting TCP connections at the given URL
func PingService(serviceURL string, timeout time.Duration) error {
	address, err := ServiceAddress(serviceURL)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// ServiceAddress resolves the host:port a URL points at, filling in the scheme's default port.
func ServiceAddress(serviceURL string) (string, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("invalid URL: %q has no host", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		switch parsedURL.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	return net.JoinHostPort(parsedURL.Hostname(), port), nil
}
