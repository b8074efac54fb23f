package channel

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultHubPort is the port of a hub target given without one.
const DefaultHubPort = "3000"

// ParseTarget converts a hub target into the websocket URL collectors dial.
//
// A target is either "host:port", which maps to ws://host:port/nodes, a bare host,
// which uses DefaultHubPort, or a full ws, wss, http or https URL. http(s) URLs are converted to their websocket
// equivalent, and an empty path defaults to the nodes namespace.
func ParseTarget(target string) (*url.URL, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("empty hub target")
	}

	if !strings.Contains(target, "://") {
		host, port, err := splitHostPort(target)
		if err != nil {
			return nil, fmt.Errorf("invalid hub target %q: %w", target, err)
		}
		return &url.URL{
			Scheme: "ws",
			Host:   net.JoinHostPort(host, port),
			Path:   NodesNamespace,
		}, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid hub target %q: %w", target, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("invalid hub target %q: unsupported scheme %q", target, u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("invalid hub target %q: missing host", target)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = NodesNamespace
	}

	return u, nil
}

func splitHostPort(target string) (string, string, error) {
	host, port, err := net.SplitHostPort(target)
	if err != nil {
		var addrErr *net.AddrError
		if !errors.As(err, &addrErr) || addrErr.Err != "missing port in address" {
			return "", "", err
		}
		host, port = strings.TrimSuffix(strings.TrimPrefix(target, "["), "]"), DefaultHubPort
	}

	if host == "" || strings.ContainsAny(host, "/?#@ ") {
		return "", "", fmt.Errorf("invalid host %q", host)
	}
	if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
		return "", "", fmt.Errorf("invalid port %q", port)
	}
	return host, port, nil
}
