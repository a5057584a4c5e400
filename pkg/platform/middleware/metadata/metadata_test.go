package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ballotbox/pkg/requestcontext"
)

func TestDeviceName(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		contains string
	}{
		{
			name:     "chrome on linux",
			ua:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			contains: "Chrome on Linux",
		},
		{
			name:     "firefox on windows",
			ua:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
			contains: "Firefox on Windows",
		},
		{name: "empty", ua: "", contains: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, DeviceName(tt.ua), tt.contains)
		})
	}
}

func TestClientIPFromRequest(t *testing.T) {
	t.Run("first forwarded address wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, "203.0.113.7", ClientIPFromRequest(r))
	})

	t.Run("x-real-ip", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", " 198.51.100.2 ")
		assert.Equal(t, "198.51.100.2", ClientIPFromRequest(r))
	})

	t.Run("remote addr ipv6", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "[::1]:54321"
		assert.Equal(t, "::1", ClientIPFromRequest(r))
	})
}

func TestClientMetadataPopulatesContext(t *testing.T) {
	var gotIP, gotDevice string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotDevice = requestcontext.Device(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", gotIP)
	assert.Equal(t, "unknown", gotDevice)
}
