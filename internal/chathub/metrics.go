package chathub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "medchat_live_connections",
		Help: "Live channel connections currently registered.",
	})
	liveRoomsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "medchat_live_rooms",
		Help: "Rooms with at least one subscriber.",
	})
	broadcastDeliveredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medchat_broadcast_delivered_total",
		Help: "Live frames handed to subscriber buffers.",
	})
	broadcastDroppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medchat_broadcast_dropped_total",
		Help: "Live frames skipped because the subscriber was closed or saturated.",
	})
)
