package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/config"
	"github.com/winlab/netconflogger/pkg/events/local"
	"github.com/winlab/netconflogger/pkg/models"
)

type staticStatus struct {
	status models.RelayStatus
}

func (s staticStatus) Status() models.RelayStatus { return s.status }
func (s staticStatus) Endpoint() string           { return s.status.Endpoint }

type staticHealth struct {
	ready  bool
	states []models.TargetStatus
}

func (h staticHealth) GetAllStates() []models.TargetStatus { return h.states }
func (h staticHealth) IsReady() bool                       { return h.ready }

func newAPI(t *testing.T) *Component {
	t.Helper()
	return newAPIWithHealth(t, nil)
}

func newAPIWithHealth(t *testing.T, health component.HealthProvider) *Component {
	t.Helper()

	bus := local.NewBus()
	t.Cleanup(func() { bus.Close() })

	cfg := config.Default()
	cfg.API.ListenAddress = "127.0.0.1:0"

	relay := staticStatus{status: models.RelayStatus{
		Endpoint:   "http://127.0.0.1:8000/v1/netconflogs",
		Received:   3,
		Delivered:  2,
		Failed:     map[string]uint64{"transport_failure": 1},
		LastStatus: 200,
	}}

	comp, err := New(component.Dependencies{EventBus: bus, Config: cfg, Relay: relay, Health: health})
	require.NoError(t, err)
	require.NotNil(t, comp)
	return comp.(*Component)
}

func TestHandleStatus(t *testing.T) {
	c := newAPI(t)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(3), resp.Relay.Received)
	assert.Equal(t, uint64(1), resp.Relay.Failed["transport_failure"])
	assert.Equal(t, "http://127.0.0.1:8000/v1/netconflogs", resp.Relay.Endpoint)
	assert.Equal(t, 10000, resp.Bus.PublishChCap)
}

func TestHandleOpenAPI(t *testing.T) {
	c := newAPI(t)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := openapi3.NewLoader().LoadFromData(rec.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{"/api/status", "/healthz", "/readyz", "/api/openapi.json", "/v1/events"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}

	status := doc.Paths.Find("/api/status").Get.Responses.Status(200).Value
	relay := status.Content.Get("application/json").Schema.Value.Properties["relay"].Value
	assert.Contains(t, relay.Properties, "failed")
	assert.Contains(t, relay.Properties, "endpoint")
}

func TestHandleHealth(t *testing.T) {
	c := newAPI(t)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Version)

	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleReady(t *testing.T) {
	rec := httptest.NewRecorder()
	newAPI(t).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	down := staticHealth{states: []models.TargetStatus{{Name: "collector", State: "down", Critical: true}}}
	rec = httptest.NewRecorder()
	newAPIWithHealth(t, down).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	require.Len(t, resp.Targets, 1)
	assert.Equal(t, "down", resp.Targets[0].State)

	up := staticHealth{ready: true, states: []models.TargetStatus{{Name: "collector", State: "up", Critical: true}}}
	rec = httptest.NewRecorder()
	newAPIWithHealth(t, up).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestComponent_StartStop(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))

	resp, err := http.Get("http://" + c.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, c.Stop(ctx))
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.API.Enabled = false
	comp, err := New(component.Dependencies{Config: cfg})
	assert.NoError(t, err)
	assert.Nil(t, comp)

	_, err = New(component.Dependencies{Config: config.Default()})
	assert.Error(t, err)
}
