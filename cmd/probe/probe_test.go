package probe

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chapool/subflow-agent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/-/ready" {
			w.WriteHeader(521)
			_, _ = w.Write([]byte("Not ready."))
			return
		}
		_, _ = w.Write([]byte("Healthy."))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Management{ProbeBaseURL: srv.URL + "/", ProbeTimeout: time.Second}

	require.NoError(t, probe(t.Context(), cfg, "/-/healthy", true))

	err := probe(t.Context(), cfg, "/-/ready", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "521")
}
