// Package metrics exposes process counters/gauges on a loopback-only
// diagnostics HTTP surface (supplemented — ambient observability the
// distilled spec's Non-goals don't exclude).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cctv_requests_total",
		Help: "Count of dispatched client requests by request_id.",
	}, []string{"request_id"})

	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cctv_request_errors_total",
		Help: "Count of request handler failures by error kind.",
	}, []string{"kind"})

	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cctv_connections_active",
		Help: "Number of currently connected TLS client sessions.",
	})

	BboxPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cctv_bbox_pushes_total",
		Help: "Count of bbox frames delivered to any connection.",
	})

	BboxBufferDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cctv_bbox_buffer_depth",
		Help: "Current depth of the shared bbox buffer.",
	})

	SerialSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cctv_serial_sends_total",
		Help: "Count of serial send_with_ack outcomes by board and result.",
	}, []string{"board_id", "result"})
)
