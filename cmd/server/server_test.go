package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewise/riskmeter/internal/assessment"
	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/gamification"
	"github.com/ridewise/riskmeter/internal/geodata"
	"github.com/ridewise/riskmeter/internal/history"
	"github.com/ridewise/riskmeter/internal/monitoring"
	"github.com/ridewise/riskmeter/internal/privacy"
	"github.com/ridewise/riskmeter/internal/scoring"
	"github.com/ridewise/riskmeter/internal/signal"
	"github.com/ridewise/riskmeter/internal/types"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := history.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := history.NewStore(db)
	privacyService := privacy.NewService(db)
	extractor := signal.NewExtractor(signal.DefaultConfig())
	geoScorer := scoring.NewGeographicScorer(geodata.NewStaticSource())
	assessService := assessment.NewService(extractor, geoScorer, store)
	rewards := gamification.NewService(store)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.GET("/health", healthHandler(appMetrics, db))
	r.POST("/assess", assessHandler(assessService, rewards, appMetrics, appLogger))
	r.POST("/assess/batch", batchHandler(assessService, appMetrics))
	r.POST("/assess/route", routeHandler(assessService))
	r.GET("/drivers/:id/trend", trendHandler(assessService))
	r.GET("/drivers/:id/rewards", rewardsHandler(rewards))
	r.DELETE("/drivers/:id", deleteDriverHandler(privacyService))
	r.GET("/leaderboard", leaderboardHandler(rewards))

	return r
}

func tripSamples(n int) []types.SensorSample {
	base := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	samples := make([]types.SensorSample, n)
	for i := range samples {
		samples[i] = types.SensorSample{
			Timestamp: base.Add(time.Duration(i) * 500 * time.Millisecond),
			AccX:      0.1 * float64(i%4),
			AccY:      -0.05 * float64(i%3),
			AccZ:      9.81,
			GyroX:     0.01,
			GyroY:     -0.02,
			GyroZ:     0.005 * float64(i%5),
		}
	}
	return samples
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAssessEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := postJSON(t, r, "/assess", types.AssessRequest{
		DriverID: "driver-001",
		Samples:  tripSamples(20),
		Location: &types.LocationRecord{Latitude: 51.5074, Longitude: -0.1278},
		Context: &types.ContextRecord{
			Timestamp: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	overall := resp["overall_assessment"].(map[string]interface{})
	risk := overall["final_risk_score"].(float64)
	safety := overall["safety_score"].(float64)
	assert.GreaterOrEqual(t, risk, 0.0)
	assert.LessOrEqual(t, risk, 100.0)
	assert.InDelta(t, 100.0, risk+safety, 1e-9)

	premium := resp["premium_information"].(map[string]interface{})
	assert.NotEmpty(t, premium["tier"])

	// Awarding is part of the assess flow when a driver is named.
	rewards := resp["rewards"].(map[string]interface{})
	assert.GreaterOrEqual(t, rewards["points_earned"].(float64), 50.0)
}

func TestAssessEndpointRejectsEmptySamples(t *testing.T) {
	r := newTestServer(t)

	w := postJSON(t, r, "/assess", types.AssessRequest{DriverID: "driver-001"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp["category"])
}

func TestBatchEndpointPartialFailure(t *testing.T) {
	r := newTestServer(t)

	w := postJSON(t, r, "/assess/batch", types.BatchAssessRequest{
		Requests: []types.AssessRequest{
			{DriverID: "driver-a", Samples: tripSamples(20)},
			{DriverID: "driver-b"}, // no samples
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(1), resp["succeeded"])
	assert.Equal(t, float64(1), resp["failed"])

	failures := resp["failures"].([]interface{})
	require.Len(t, failures, 1)
	failure := failures[0].(map[string]interface{})
	assert.Equal(t, float64(1), failure["index"])
	assert.Equal(t, "driver-b", failure["driver_id"])
}

func TestRouteEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := postJSON(t, r, "/assess/route", types.RouteAssessRequest{
		Points: []types.RoutePoint{
			{Latitude: 51.50, Longitude: -0.12},
			{Latitude: 51.51, Longitude: -0.10},
			{Latitude: 51.52, Longitude: -0.08},
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	segments := resp["segments"].([]interface{})
	assert.Len(t, segments, 3)
	assert.NotEmpty(t, resp["risk_category"])
}

func TestRouteEndpointRejectsInvalidCoordinates(t *testing.T) {
	r := newTestServer(t)

	w := postJSON(t, r, "/assess/route", types.RouteAssessRequest{
		Points: []types.RoutePoint{{Latitude: 123.0, Longitude: 0.0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrendAndDeleteFlow(t *testing.T) {
	r := newTestServer(t)

	for i := 0; i < 3; i++ {
		w := postJSON(t, r, "/assess", types.AssessRequest{
			DriverID: "driver-trend",
			Samples:  tripSamples(20),
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/drivers/driver-trend/trend", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var trend map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trend))
	assert.Equal(t, float64(3), trend["assessments_analyzed"])
	assert.NotEmpty(t, trend["risk_trend"])

	// GDPR deletion wipes history; the trend falls back to insufficient data.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/drivers/driver-trend", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/drivers/driver-trend/trend", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trend))
	assert.Equal(t, "insufficient_data", trend["risk_trend"])
}

func TestRewardsAndLeaderboard(t *testing.T) {
	r := newTestServer(t)

	w := postJSON(t, r, "/assess", types.AssessRequest{
		DriverID: "driver-lead",
		Samples:  tripSamples(20),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/drivers/driver-lead/rewards", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Greater(t, status["total_points"].(float64), 0.0)
	level := status["level_progress"].(map[string]interface{})
	assert.Equal(t, float64(1), level["current_level"])

	// Only the anonymized hash appears on the leaderboard.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/leaderboard?limit=5", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var board map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Equal(t, float64(1), board["count"])
	entry := board["leaderboard"].([]interface{})[0].(map[string]interface{})
	assert.NotContains(t, fmt.Sprintf("%v", entry["driver_hash"]), "driver-lead")
	assert.Len(t, entry["driver_hash"], 64)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotNil(t, resp["metrics"])
}
