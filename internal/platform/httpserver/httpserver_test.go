package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	srv := New(":0", http.NotFoundHandler(), 25*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 25*time.Second, srv.WriteTimeout)
	assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
	assert.NotNil(t, srv.ErrorLog)
}
