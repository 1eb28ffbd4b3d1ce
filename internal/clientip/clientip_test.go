// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/glowbook/waitlist/internal/clientip"
	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded-for from trusted proxy",
			trusted:    []string{"10.0.0.1"},
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded-for from untrusted peer is ignored",
			remoteAddr: "198.51.100.9:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "198.51.100.9",
		},
		{
			name:       "real-ip fallback",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded-for wins over real-ip when trusted",
			trusted:    []string{"10.0.0.1"},
			remoteAddr: "10.0.0.1:443",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.7",
				"X-Real-IP":       "198.51.100.9",
			},
			want: "203.0.113.7",
		},
		{
			name:       "empty forwarded-for falls through",
			trusted:    []string{"10.0.0.1"},
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": " , "},
			want:       "10.0.0.1",
		},
		{
			name:       "no address at all",
			remoteAddr: "",
			want:       clientip.Unknown,
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := clientip.NewResolver(tt.trusted)
			req := httptest.NewRequest("POST", "/api/subscribe", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, resolver.FromRequest(req))
		})
	}
}
