package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trolley-tracker/internal/catalog"
	"github.com/trolley-tracker/internal/common/logger"
	"github.com/trolley-tracker/internal/tracker/state"
)

// instantFetcher answers every ETA fetch with a fixed string.
type instantFetcher struct{ text string }

func (f *instantFetcher) Fetch(ctx context.Context, stop string, route catalog.Direction) (string, error) {
	return f.text, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *state.Coordinator) {
	t.Helper()
	coordinator := state.NewCoordinator(catalog.Default(), &instantFetcher{text: "3 min 7 sec"}, logger.Discard())
	ui := NewServer(coordinator, logger.Discard())
	server := httptest.NewServer(ui.Routes())
	t.Cleanup(server.Close)
	return server, coordinator
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	resp, body := doJSON(t, "GET", server.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestGetStateReturnsSnapshot(t *testing.T) {
	server, coordinator := newTestServer(t)
	coordinator.SetVehicles([]state.Vehicle{{ID: "181", Lat: 33.42, Lng: -111.94}})

	resp, body := doJSON(t, "GET", server.URL+"/api/state", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "northbound", body["route"])
	assert.Equal(t, "idle", body["etaStatus"])

	stops, ok := body["stops"].([]interface{})
	require.True(t, ok)
	assert.Len(t, stops, 10)
	assert.Equal(t, "Dorsey Ln/Apache Blvd", stops[0])

	vehicles, ok := body["vehicles"].([]interface{})
	require.True(t, ok)
	require.Len(t, vehicles, 1)
	car := vehicles[0].(map[string]interface{})
	assert.Equal(t, "181", car["id"])
}

func TestSetRoute(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, "PUT", server.URL+"/api/route", `{"route": "southbound"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "southbound", body["route"])

	stops := body["stops"].([]interface{})
	assert.Len(t, stops, 12)
	assert.Equal(t, "Marina Heights", stops[0])
}

func TestSetRouteRejectsUnknownDirection(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, "PUT", server.URL+"/api/route", `{"route": "eastbound"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["error"], "eastbound")
}

func TestSelectStop(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, "PUT", server.URL+"/api/stop", `{"stop": "Hayden Ferry"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hayden Ferry", body["selectedStop"])
}

func TestSelectStopOffRouteIs422(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, "PUT", server.URL+"/api/stop", `{"stop": "Tempe Beach Park"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["error"], "Tempe Beach Park")
}

func TestMalformedBodyIs400(t *testing.T) {
	server, _ := newTestServer(t)

	for _, endpoint := range []string{"/api/route", "/api/stop", "/api/car"} {
		resp, body := doJSON(t, "PUT", server.URL+endpoint, `{not json`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, endpoint)
		assert.Equal(t, "malformed request body", body["error"])
	}
}

func TestSelectCarMarkerClick(t *testing.T) {
	server, coordinator := newTestServer(t)
	coordinator.SetVehicles([]state.Vehicle{{ID: "181", Lat: 33.42, Lng: -111.94}})

	resp, body := doJSON(t, "PUT", server.URL+"/api/car", `{"id": "181"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	car, ok := body["selectedCar"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "181", car["id"])

	// Unknown id resolves to no selection, still a 200.
	resp, body = doJSON(t, "PUT", server.URL+"/api/car", `{"id": "999"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["selectedCar"])
}

func TestToggleSidebar(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, "POST", server.URL+"/api/sidebar/toggle", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["sidebarOpen"])

	_, body = doJSON(t, "POST", server.URL+"/api/sidebar/toggle", "")
	assert.Equal(t, false, body["sidebarOpen"])
}
