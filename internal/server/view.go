package server

import (
	"bytes"
	"fmt"
	"html/template"

	"deployhub/internal/chart"
	"deployhub/internal/deployment"
	"deployhub/internal/filter"
	"deployhub/internal/notify"
	"deployhub/internal/stats"
)

const dashboardTitle = "DeployHub - Live Deployment Dashboard"

type option struct {
	Value    string
	Label    string
	Selected bool
}

type deploymentView struct {
	deployment.Record
	RelativeTime string
}

type notificationView struct {
	notify.Notification
	RelativeTime string
}

type dashboardView struct {
	Title       string
	Loading     bool
	GeneratedAt string

	Stats           stats.Stats
	Health          string
	Healthy         bool
	InProgressRatio float64
	FailedRatio     float64
	Chart           template.HTML

	Criteria           filter.Criteria
	StatusOptions      []option
	EnvironmentOptions []option
	SortOptions        []option
	Deployments        []deploymentView

	Unread        int
	Notifications []notificationView
}

// buildDashboard assembles everything the dashboard template shows from a
// single feed snapshot
func (s *Server) buildDashboard(criteria filter.Criteria) (*dashboardView, error) {
	now := s.now()
	records := s.Feed.Snapshot()
	st := stats.Compute(records)

	var svg bytes.Buffer
	if err := chart.WriteSVG(&svg, chart.Layout(chart.CountsFrom(st), s.ChartSize)); err != nil {
		return nil, err
	}

	view := &dashboardView{
		Title:       dashboardTitle,
		Loading:     !s.Loaded(),
		GeneratedAt: now.UTC().Format("15:04:05 MST"),

		Stats:           st,
		Health:          st.Health(),
		Healthy:         st.Healthy(),
		InProgressRatio: st.Ratio(st.InProgressCount),
		FailedRatio:     st.Ratio(st.FailedCount),
		// Produced by chart.SVG, which escapes every attribute and text node
		Chart: template.HTML(svg.String()),

		Criteria:           criteria,
		StatusOptions:      statusOptions(criteria.Status),
		EnvironmentOptions: environmentOptions(criteria.Environment),
		SortOptions:        sortOptions(criteria.SortBy),

		Unread: s.Notifications.UnreadCount(),
	}

	for _, r := range filter.Apply(records, criteria) {
		view.Deployments = append(view.Deployments, deploymentView{
			Record:       r,
			RelativeTime: deployment.RelativeTime(r.DeployedAt, now),
		})
	}

	for _, n := range s.Notifications.List() {
		view.Notifications = append(view.Notifications, notificationView{
			Notification: n,
			RelativeTime: deployment.RelativeTime(n.CreatedAt, now),
		})
	}

	return view, nil
}

func statusOptions(selected string) []option {
	opts := []option{{Value: filter.All, Label: "All Statuses", Selected: selected == filter.All}}
	for _, st := range deployment.Statuses {
		opts = append(opts, option{Value: string(st), Label: st.Label(), Selected: selected == string(st)})
	}
	return opts
}

func environmentOptions(selected string) []option {
	opts := []option{{Value: filter.All, Label: "All Environments", Selected: selected == filter.All}}
	for _, env := range deployment.Environments {
		label := string(env)
		opts = append(opts, option{Value: label, Label: label, Selected: selected == label})
	}
	return opts
}

func sortOptions(selected filter.SortKey) []option {
	labels := map[filter.SortKey]string{
		filter.SortNewest:   "Newest First",
		filter.SortOldest:   "Oldest First",
		filter.SortDuration: "Longest Duration",
	}

	opts := make([]option, 0, len(filter.SortKeys))
	for _, key := range filter.SortKeys {
		opts = append(opts, option{Value: string(key), Label: labels[key], Selected: selected == key})
	}
	return opts
}

// percent formats a 0-100 ratio for CSS widths
func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio)
}
