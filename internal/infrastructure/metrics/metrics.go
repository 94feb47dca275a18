// Package metrics 定义 Prometheus 指标，由 /metrics 路由暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mood_chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// 群组生命周期
	GroupsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mood_chat_groups_created_total",
			Help: "Total groups created",
		},
		[]string{"type"},
	)

	GroupJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_chat_group_joins_total",
			Help: "Total new memberships",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_chat_messages_sent_total",
			Help: "Total group messages persisted",
		},
	)

	// 清理
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mood_chat_sweep_runs_total",
			Help: "Cleanup runs by trigger",
		},
		[]string{"trigger"}, // "scheduled" | "manual" | "lazy"
	)

	GroupsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_chat_groups_swept_total",
			Help: "Total groups removed by cascading delete",
		},
	)

	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_chat_sweep_failures_total",
			Help: "Total per-group cascading delete failures",
		},
	)

	// 实时连接
	OpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mood_chat_ws_connections",
			Help: "Currently open websocket connections",
		},
	)

	DroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_chat_ws_dropped_frames_total",
			Help: "Outbound frames dropped because a client send buffer was full",
		},
	)
)
