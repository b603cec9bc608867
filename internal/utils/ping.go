package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// ServiceAddress returns the host:port a service URL dials
func ServiceAddress(serviceURL string) (string, error) {
	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid URL: no host in %q", serviceURL)
	}

	port := parsed.Port()
	if port == "" {
		if port = defaultPorts[parsed.Scheme]; port == "" {
			port = "80"
		}
	}

	return net.JoinHostPort(host, port), nil
}

// PingService checks that a TCP connection to the service URL's host can be opened
func PingService(serviceURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return PingServiceContext(ctx, serviceURL)
}

// PingServiceContext is PingService bounded by ctx
func PingServiceContext(ctx context.Context, serviceURL string) error {
	address, err := ServiceAddress(serviceURL)
	if err != nil {
		return err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}
