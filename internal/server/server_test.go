package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowbaker/stickerzip/pkg/domain"
	"github.com/flowbaker/stickerzip/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	app := NewHTTPServer(HTTPServerDependencies{BotUsername: "sticker_zip_bot"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "stickerzip", body["service"])
	assert.Equal(t, "sticker_zip_bot", body["bot"])
	assert.NotEmpty(t, body["version"])
}

func TestMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	collector.ObserveRequest(domain.PipelineOutcome_Success, 0)

	app := NewHTTPServer(HTTPServerDependencies{MetricsHandler: collector.Handler()})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `stickerzip_requests_total{outcome="success"} 1`)
}

func TestMetrics_DisabledWithoutHandler(t *testing.T) {
	app := NewHTTPServer(HTTPServerDependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
