package ha

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "standbyd_ticks_total",
			Help: "Total number of coordinator poll-decide-act cycles",
		},
	)

	promotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "standbyd_promotions_total",
			Help: "Total number of local service activations issued",
		},
	)

	demotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standbyd_demotions_total",
			Help: "Total number of deactivations issued during split-brain resolution",
		},
		[]string{"target"},
	)

	splitBrainTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "standbyd_split_brain_total",
			Help: "Total number of split-brain conflicts resolved",
		},
	)

	actionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standbyd_action_failures_total",
			Help: "Total number of failed activate/deactivate commands",
		},
		[]string{"op"},
	)

	activeInstances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "standbyd_active_instances",
			Help: "Number of active instances observed in the last tick",
		},
	)
)
