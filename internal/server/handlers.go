package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"deployhub/internal/chart"
	"deployhub/internal/deployment"
	"deployhub/internal/filter"
	"deployhub/internal/notify"
	"deployhub/internal/stats"

	"github.com/go-chi/chi/v5"
)

// deploymentDetail is a record with its expanded-view data
type deploymentDetail struct {
	deployment.Record
	RelativeTime string               `json:"relativeTime"`
	Logs         []deployment.LogLine `json:"logs"`
	Actions      []string             `json:"actions"`
}

// statsResponse is the stats JSON with derived presentation fields
type statsResponse struct {
	stats.Stats
	Health          string  `json:"health"`
	InProgressRatio float64 `json:"inProgressRatio"`
	FailedRatio     float64 `json:"failedRatio"`
}

// HandleDashboard renders the HTML dashboard
func (s *Server) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := s.buildDashboard(criteria)
	if err != nil {
		s.Logger.Error("Failed to build dashboard", "error", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, view); err != nil {
		s.Logger.Error("Failed to render dashboard", "error", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
	}
}

// HandleDeployments returns the filtered and sorted deployment list
func (s *Server) HandleDeployments(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deployments := filter.Apply(s.Feed.Snapshot(), criteria)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"loading":     !s.Loaded(),
		"criteria":    criteria,
		"deployments": deployments,
	})
}

// HandleDeployment returns one deployment with its simulated logs and actions
func (s *Server) HandleDeployment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid deployment id")
		return
	}

	record, ok := s.Feed.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Unknown deployment")
		return
	}

	s.respondJSON(w, http.StatusOK, deploymentDetail{
		Record:       record,
		RelativeTime: deployment.RelativeTime(record.DeployedAt, s.now()),
		Logs:         record.LogLines(),
		Actions:      record.Actions(),
	})
}

// HandleStats returns the aggregate stats of the feed
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	st := s.currentStats()

	s.respondJSON(w, http.StatusOK, statsResponse{
		Stats:           st,
		Health:          st.Health(),
		InProgressRatio: st.Ratio(st.InProgressCount),
		FailedRatio:     st.Ratio(st.FailedCount),
	})
}

// HandleChart returns the chart as draw commands
func (s *Server) HandleChart(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.currentDrawing())
}

// HandleChartSVG returns the chart as an SVG image
func (s *Server) HandleChartSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if err := chart.WriteSVG(w, s.currentDrawing()); err != nil {
		s.Logger.Error("Failed to write chart", "error", err)
	}
}

// HandleNotifications returns the notification list and unread count
func (s *Server) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"unread":        s.Notifications.UnreadCount(),
		"notifications": s.Notifications.List(),
	})
}

// HandleMarkRead marks one notification as read
func (s *Server) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	status, message := s.markRead(r)
	if status != http.StatusNoContent {
		s.respondError(w, status, message)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead marks every notification as read
func (s *Server) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.markAllRead()
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkReadForm is the HTML form variant of HandleMarkRead
func (s *Server) HandleMarkReadForm(w http.ResponseWriter, r *http.Request) {
	status, message := s.markRead(r)
	if status != http.StatusNoContent {
		http.Error(w, message, status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMarkAllReadForm is the HTML form variant of HandleMarkAllRead
func (s *Server) HandleMarkAllReadForm(w http.ResponseWriter, r *http.Request) {
	s.markAllRead()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "ok",
		"loaded":  s.Loaded(),
		"records": s.Feed.Len(),
	}

	s.respondJSON(w, http.StatusOK, response)
}

// HandleMetrics refreshes the feed gauges and serves the Prometheus registry
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.Metrics.Update(s.currentStats())
	s.Metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) markRead(r *http.Request) (int, string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return http.StatusBadRequest, "Invalid notification id"
	}

	if err := s.Notifications.MarkRead(id); err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			return http.StatusNotFound, "Unknown notification"
		}
		s.Logger.Error("Failed to mark notification read", "error", err, "id", id)
		return http.StatusInternalServerError, "Failed to mark notification read"
	}

	s.Logger.Debug("Notification marked read", "id", id)
	return http.StatusNoContent, ""
}

func (s *Server) markAllRead() {
	changed := s.Notifications.MarkAllRead()
	s.Logger.Debug("Notifications marked read", "count", changed)
}

func (s *Server) currentStats() stats.Stats {
	return stats.Compute(s.Feed.Snapshot())
}

func (s *Server) currentDrawing() chart.Drawing {
	return chart.Layout(chart.CountsFrom(s.currentStats()), s.ChartSize)
}

// criteriaFromQuery reads status, environment, sort and q from the query string
func criteriaFromQuery(r *http.Request) (filter.Criteria, error) {
	q := r.URL.Query()
	return filter.ParseCriteria(q.Get("status"), q.Get("environment"), q.Get("sort"), q.Get("q"))
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError sends a JSON error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, map[string]string{"error": message})
}
