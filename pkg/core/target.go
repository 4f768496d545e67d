package core

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is the plaintext port assumed when a ws:// URI carries none.
const DefaultPort = 80

// Target is a ws:// URI resolved into the pieces the handshake needs.
type Target struct {
	Host string
	Port int
	Path string
}

// ParseTarget resolves a ws:// URI. The port defaults to DefaultPort and the
// path is forced to start with "/".
func ParseTarget(uri string) (Target, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Target{}, NewError(ErrorTypeConfiguration, "parse uri", err.Error(), ErrInvalidURI).WithCode(ErrCodeInvalidConfig)
	}
	if !strings.EqualFold(u.Scheme, "ws") {
		return Target{}, NewError(ErrorTypeConfiguration, "parse uri", "unsupported scheme "+strconv.Quote(u.Scheme), ErrInvalidURI).
			WithCode(ErrCodeInvalidConfig)
	}
	host := u.Hostname()
	if host == "" {
		return Target{}, NewError(ErrorTypeConfiguration, "parse uri", "missing host", ErrInvalidURI).WithCode(ErrCodeInvalidConfig)
	}

	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Target{}, NewError(ErrorTypeConfiguration, "parse uri", "invalid port "+strconv.Quote(p), ErrInvalidURI).
				WithCode(ErrCodeInvalidConfig)
		}
	}

	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return Target{Host: host, Port: port, Path: path}, nil
}

// Addr returns the host:port pair to dial.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// HostHeader returns the Host header value; the port is omitted when it is DefaultPort.
func (t Target) HostHeader() string {
	host := t.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if t.Port == DefaultPort {
		return host
	}
	return host + ":" + strconv.Itoa(t.Port)
}

// String returns the target formatted as a ws:// URI.
func (t Target) String() string {
	return "ws://" + t.HostHeader() + t.Path
}
