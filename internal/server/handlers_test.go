package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samply/laplace-go/internal/privacy"
	"github.com/samply/laplace-go/pkg/constants"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	config := DefaultConfig()
	config.EnableMetrics = false

	srv, err := NewServer(config, logger)
	require.NoError(t, err)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, constants.AppName, body["name"])
}

func TestObfuscateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	reportDoc := map[string]interface{}{
		"resourceType": "MeasureReport",
		"group": []interface{}{
			map[string]interface{}{
				"code": map[string]interface{}{"text": "patients"},
				"population": []interface{}{
					map[string]interface{}{"count": 74},
				},
			},
		},
	}
	payload, err := json.Marshal(reportDoc)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/obfuscate", bytes.NewReader(payload))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constants.ContentTypeJSON, rec.Header().Get(constants.HeaderContentType))
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderRequestID))

	var obfuscated map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obfuscated))

	count := obfuscated["group"].([]interface{})[0].(map[string]interface{})["population"].([]interface{})[0].(map[string]interface{})["count"].(float64)
	assert.Zero(t, int(count)%10)
	assert.Equal(t, "MeasureReport", obfuscated["resourceType"])
}

func TestObfuscateEndpointEmptyBody(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/obfuscate", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "REPORT_EMPTY")
}

func TestObfuscateEndpointInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/obfuscate", bytes.NewReader([]byte("not json")))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERIALIZATION_FAILED")
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestRequestSizeLimit(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	config := DefaultConfig()
	config.EnableMetrics = false
	config.MaxRequestSize = 16

	srv, err := NewServer(config, logger)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/obfuscate",
		bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNewServerInvalidParams(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	config := DefaultConfig()
	config.Obfuscation = privacy.Params{}

	_, err := NewServer(config, logger)
	require.Error(t, err)
}
