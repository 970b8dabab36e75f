// Package server implements the HTTP server for the DeployHub dashboard.
//
// This package provides:
//   - The HTML dashboard (stats, chart, filterable deployment list, notifications)
//   - A JSON API over the same data, plus the chart as draw commands or SVG
//   - Health and Prometheus metrics endpoints
//   - Per-IP rate limiting and structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/feed: the bounded, newest-first deployment feed
//   - internal/stats, internal/chart, internal/filter: the presentation pipeline
//   - internal/notify: the notification center behind the header popover
//   - internal/metrics: request and feed metrics
//   - pkg/templates: dashboard templates with filesystem overrides
package server
