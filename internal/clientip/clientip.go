// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package clientip derives a stable client address from request headers.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when no address can be derived at all.
const Unknown = "unknown"

// Resolver resolves the best-effort client address of a request.
// X-Forwarded-For is only honored when the direct peer is a trusted proxy,
// since any client can set the header itself.
type Resolver struct {
	trusted map[string]struct{}
}

// NewResolver creates a Resolver trusting the given proxy addresses.
func NewResolver(trustedProxies []string) *Resolver {
	trusted := make(map[string]struct{}, len(trustedProxies))
	for _, p := range trustedProxies {
		p = strings.TrimSpace(p)
		if p != "" {
			trusted[p] = struct{}{}
		}
	}
	return &Resolver{trusted: trusted}
}

// FromRequest returns the client address for r. It never fails; the result
// degrades to the direct peer address and finally to "unknown".
func (r *Resolver) FromRequest(req *http.Request) string {
	remote := remoteHost(req)

	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" && r.isTrusted(remote) {
		// Left-most entry is the originating client.
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if remote != "" {
		return remote
	}
	return Unknown
}

func (r *Resolver) isTrusted(addr string) bool {
	if addr == "" {
		return false
	}
	_, ok := r.trusted[addr]
	return ok
}

// remoteHost strips the port from the transport peer address.
func remoteHost(req *http.Request) string {
	if req.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
