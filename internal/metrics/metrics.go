package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ApprovalOps      *prometheus.CounterVec
	BroadcastsTotal  prometheus.Counter
	ConnectedClients prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ApprovalOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_approval_operations_total",
			Help: "Approval engine operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		BroadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "admin_ws_broadcasts_total",
			Help: "Scoped snapshot broadcasts pushed to websocket clients.",
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "admin_ws_connected_clients",
			Help: "Currently connected authenticated websocket clients.",
		}),
	}
}
