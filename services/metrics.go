package services

import "github.com/prometheus/client_golang/prometheus"

var (
	xpAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpg_xp_awarded_total",
			Help: "XP granted, by source (task or bonus)",
		},
		[]string{"source"},
	)
	levelUpsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rpg_level_ups_total",
			Help: "Task completions that raised a user's level",
		},
	)
	achievementsUnlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpg_achievements_unlocked_total",
			Help: "Achievements awarded, by criteria type",
		},
		[]string{"criteria_type"},
	)
	bookkeepingFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpg_achievement_bookkeeping_failures_total",
			Help: "Achievement evaluation failures that were logged and skipped",
		},
		[]string{"criteria_type"},
	)
	pushDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpg_push_dispatch_total",
			Help: "Push notifications by result (sent, failed, skipped, dropped)",
		},
		[]string{"result"},
	)
)

// RegisterMetrics registers the service counters. Call this once from main.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		xpAwardedTotal,
		levelUpsTotal,
		achievementsUnlockedTotal,
		bookkeepingFailuresTotal,
		pushDispatchTotal,
	)
}
