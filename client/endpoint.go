package client

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// ResolveEndpoint checks that rawURL parses and that its host resolves
func ResolveEndpoint(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", rawURL, err)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("endpoint %q has no host", rawURL)
	}
	if net.ParseIP(host) != nil {
		return nil
	}

	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return fmt.Errorf("cannot resolve %s: %w", host, err)
	}
	return nil
}
