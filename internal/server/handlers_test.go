package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"deployhub/internal/deployment"
	"deployhub/internal/feed"
	"deployhub/internal/metrics"
	"deployhub/internal/notify"
	"deployhub/internal/source"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	f, err := feed.New(feed.DefaultCapacity)
	if err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}
	f.Reset(source.Seed(testNow))

	center := notify.NewCenter(notify.DefaultCapacity)
	center.Seed(testNow)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	server, err := NewServer(f, center, metrics.New(), logger, true)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	server.now = func() time.Time { return testNow }
	server.SetLoaded(true)

	return server
}

func doRequest(server *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response map[string]interface{}
	decode(t, rr, &response)

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", response["status"])
	}
	if response["loaded"] != true {
		t.Errorf("Expected loaded true, got %v", response["loaded"])
	}
	if response["records"] != float64(5) {
		t.Errorf("Expected 5 records, got %v", response["records"])
	}
}

func TestHandleDeployments(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name        string
		target      string
		expectedIDs []int64
	}{
		{"default", "/api/deployments", []int64{1, 2, 3, 4, 5}},
		{"status filter", "/api/deployments?status=success", []int64{1, 2, 5}},
		{"environment filter", "/api/deployments?environment=production", []int64{1, 4, 5}},
		{"combined filter", "/api/deployments?status=success&environment=production", []int64{1, 5}},
		{"oldest first", "/api/deployments?sort=oldest", []int64{5, 4, 3, 2, 1}},
		{"longest duration", "/api/deployments?sort=duration", []int64{5, 3, 2, 1, 4}},
		{"search", "/api/deployments?q=ninja", []int64{3}},
		{"no match", "/api/deployments?q=nothing-matches", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(server, "GET", tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}

			var response struct {
				Loading     bool                `json:"loading"`
				Deployments []deployment.Record `json:"deployments"`
			}
			decode(t, rr, &response)

			if response.Loading {
				t.Error("Expected loading to be false")
			}
			if len(response.Deployments) != len(tt.expectedIDs) {
				t.Fatalf("Expected %d deployments, got %d", len(tt.expectedIDs), len(response.Deployments))
			}
			for i, id := range tt.expectedIDs {
				if response.Deployments[i].ID != id {
					t.Errorf("Expected deployment %d to have id %d, got %d", i, id, response.Deployments[i].ID)
				}
			}
		})
	}
}

func TestHandleDeployments_InvalidCriteria(t *testing.T) {
	server := setupTestServer(t)

	for _, target := range []string{
		"/api/deployments?status=cancelled",
		"/api/deployments?environment=qa",
		"/api/deployments?sort=name",
	} {
		rr := doRequest(server, "GET", target)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rr.Code)
		}

		var response map[string]string
		decode(t, rr, &response)
		if !strings.Contains(response["error"], "invalid filter criteria") {
			t.Errorf("%s: unexpected error %q", target, response["error"])
		}
	}
}

func TestHandleDeployments_Loading(t *testing.T) {
	server := setupTestServer(t)
	server.SetLoaded(false)
	server.Feed.Reset(nil)

	rr := doRequest(server, "GET", "/api/deployments")

	var response struct {
		Loading     bool                `json:"loading"`
		Deployments []deployment.Record `json:"deployments"`
	}
	decode(t, rr, &response)

	if !response.Loading {
		t.Error("Expected loading to be true")
	}
	if len(response.Deployments) != 0 {
		t.Errorf("Expected no deployments, got %d", len(response.Deployments))
	}
}

func TestHandleDeployment(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/api/deployments/4")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response struct {
		ID           int64                `json:"id"`
		Status       deployment.Status    `json:"status"`
		RelativeTime string               `json:"relativeTime"`
		Logs         []deployment.LogLine `json:"logs"`
		Actions      []string             `json:"actions"`
	}
	decode(t, rr, &response)

	if response.ID != 4 || response.Status != deployment.StatusFailed {
		t.Errorf("Unexpected deployment %+v", response)
	}
	if response.RelativeTime != "20 minutes ago" {
		t.Errorf("Expected '20 minutes ago', got %q", response.RelativeTime)
	}
	if len(response.Logs) != 7 {
		t.Errorf("Expected 7 log lines for a failed deployment, got %d", len(response.Logs))
	}
	if len(response.Actions) != 3 || response.Actions[1] != "Retry Deployment" {
		t.Errorf("Unexpected actions %v", response.Actions)
	}
}

func TestHandleDeployment_Errors(t *testing.T) {
	server := setupTestServer(t)

	if rr := doRequest(server, "GET", "/api/deployments/999"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	if rr := doRequest(server, "GET", "/api/deployments/abc"); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandleStats(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/api/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response map[string]interface{}
	decode(t, rr, &response)

	expected := map[string]interface{}{
		"total":           float64(5),
		"successCount":    float64(3),
		"failedCount":     float64(1),
		"inProgressCount": float64(1),
		"successRate":     float64(60),
		"health":          "Needs improvement",
		"inProgressRatio": float64(20),
		"failedRatio":     float64(20),
	}
	for key, value := range expected {
		if response[key] != value {
			t.Errorf("Expected %s = %v, got %v", key, value, response[key])
		}
	}
}

func TestHandleChart(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/api/chart")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response struct {
		Size struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"size"`
		Bars []struct {
			Count  int     `json:"count"`
			Height float64 `json:"height"`
		} `json:"bars"`
		Commands []struct {
			Kind string `json:"kind"`
		} `json:"commands"`
	}
	decode(t, rr, &response)

	if response.Size.Width != 500 || response.Size.Height != 300 {
		t.Errorf("Unexpected size %+v", response.Size)
	}
	if len(response.Bars) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(response.Bars))
	}
	if response.Bars[0].Count != 3 || response.Bars[0].Height != 144 {
		t.Errorf("Unexpected success bar %+v", response.Bars[0])
	}
	if len(response.Commands) != 15 {
		t.Errorf("Expected 15 draw commands, got %d", len(response.Commands))
	}
}

func TestHandleChartSVG(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/chart.svg")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Expected image/svg+xml, got %q", ct)
	}

	body := rr.Body.String()
	if !strings.HasPrefix(body, "<svg") || !strings.HasSuffix(body, "</svg>") {
		t.Errorf("Unexpected SVG document %q", body)
	}
	if !strings.Contains(body, ">In Progress</text>") {
		t.Error("Expected bar labels in SVG")
	}
}

func TestNotifications(t *testing.T) {
	server := setupTestServer(t)

	var list struct {
		Unread        int                   `json:"unread"`
		Notifications []notify.Notification `json:"notifications"`
	}

	rr := doRequest(server, "GET", "/api/notifications")
	decode(t, rr, &list)
	if list.Unread != 2 || len(list.Notifications) != 3 {
		t.Fatalf("Unexpected notifications %+v", list)
	}

	id := list.Notifications[0].ID
	rr = doRequest(server, "POST", "/api/notifications/"+itoa(id)+"/read")
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
	if server.Notifications.UnreadCount() != 1 {
		t.Errorf("Expected 1 unread, got %d", server.Notifications.UnreadCount())
	}

	rr = doRequest(server, "POST", "/api/notifications/999/read")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	rr = doRequest(server, "POST", "/api/notifications/abc/read")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	rr = doRequest(server, "POST", "/api/notifications/read-all")
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
	if server.Notifications.UnreadCount() != 0 {
		t.Errorf("Expected 0 unread, got %d", server.Notifications.UnreadCount())
	}
}

func TestNotificationForms(t *testing.T) {
	server := setupTestServer(t)

	id := server.Notifications.List()[0].ID
	rr := doRequest(server, "POST", "/notifications/"+itoa(id)+"/read")
	if rr.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Expected redirect to /, got %q", loc)
	}

	rr = doRequest(server, "POST", "/notifications/999/read")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	rr = doRequest(server, "POST", "/notifications/read-all")
	if rr.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", rr.Code)
	}
	if server.Notifications.UnreadCount() != 0 {
		t.Errorf("Expected 0 unread, got %d", server.Notifications.UnreadCount())
	}
}

func TestHandleDashboard(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected text/html, got %q", ct)
	}

	body := rr.Body.String()
	expected := []string{
		"Live Deployment Dashboard",
		"E-commerce Platform",
		"NFT Marketplace",
		"by @sarah_dev",
		"2 minutes ago",
		"Duration: 4m 22s",
		"Needs improvement",
		"<svg",
		"Retry Deployment",
		"Deployment process finished in 1m 45s",
		`action="/notifications/read-all"`,
	}
	for _, s := range expected {
		if !strings.Contains(body, s) {
			t.Errorf("Expected dashboard to contain %q", s)
		}
	}
}

func TestHandleDashboard_Filtered(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/?status=failed")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "Task Management App") {
		t.Error("Expected failed deployment in list")
	}
	if strings.Contains(body, "by @sarah_dev") {
		t.Error("Expected successful deployment to be filtered out")
	}
	if !strings.Contains(body, `<option value="failed" selected>`) {
		t.Error("Expected failed option to be selected")
	}

	rr = doRequest(server, "GET", "/?q=nothing-matches")
	if !strings.Contains(rr.Body.String(), "No deployments match") {
		t.Error("Expected empty state message")
	}
}

func TestHandleDashboard_InvalidCriteria(t *testing.T) {
	server := setupTestServer(t)

	rr := doRequest(server, "GET", "/?sort=name")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandleDashboard_Loading(t *testing.T) {
	server := setupTestServer(t)
	server.SetLoaded(false)
	server.Feed.Reset(nil)

	rr := doRequest(server, "GET", "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `class="spinner"`) {
		t.Error("Expected loading spinner")
	}
}

func TestHandleDashboard_EscapesRecordFields(t *testing.T) {
	server := setupTestServer(t)
	server.Feed.Prepend(deployment.Record{
		ID:          100,
		Username:    "mallory",
		ProjectName: "<script>alert(1)</script>",
		DeployedAt:  testNow,
		Status:      deployment.StatusSuccess,
		Environment: deployment.EnvStaging,
		Duration:    "0m 10s",
	})

	body := doRequest(server, "GET", "/").Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("Expected project name to be escaped")
	}
}

func TestHandleMetrics(t *testing.T) {
	server := setupTestServer(t)

	doRequest(server, "GET", "/health")
	rr := doRequest(server, "GET", "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	body := rr.Body.String()
	expected := []string{
		"deployhub_feed_records 5",
		"deployhub_success_rate_percent 60",
		`deployhub_http_requests_total{method="GET",route="/health",status_code="200"} 1`,
	}
	for _, s := range expected {
		if !strings.Contains(body, s) {
			t.Errorf("Expected metrics to contain %q", s)
		}
	}
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(t)
	server.TestMode = false

	router := server.Router()
	limited := false
	for i := 0; i < GlobalRateLimit+5; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}

	if !limited {
		t.Error("Expected requests beyond the burst to be rate limited")
	}
}

func TestActionRateLimit_SharedAcrossRoutes(t *testing.T) {
	server := setupTestServer(t)
	server.TestMode = false

	router := server.Router()
	for i := 0; i < ActionRateLimit; i++ {
		req := httptest.NewRequest("POST", "/api/notifications/read-all", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("Expected status 204 for action %d, got %d", i, rr.Code)
		}
	}

	req := httptest.NewRequest("POST", "/notifications/read-all", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected form action to share the exhausted budget (429), got %d", rr.Code)
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	server := setupTestServer(t)

	if err := server.Shutdown(t.Context()); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
