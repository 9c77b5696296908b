// Package metrics declares the Prometheus counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LedgerDeltas = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_ledger_deltas_total",
			Help: "Balance deltas applied or rejected, by field",
		},
		[]string{"field", "result"},
	)
	Actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_actions_total",
			Help: "Cooldown-gated actions by outcome",
		},
		[]string{"action", "result"},
	)
	GearUpgrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_gear_upgrades_total",
			Help: "Gear upgrade attempts by kind and outcome",
		},
		[]string{"kind", "result"},
	)
	CasesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_cases_opened_total",
			Help: "Loot cases opened",
		},
		[]string{"case"},
	)
	GameSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_game_sessions_total",
			Help: "Finished wager sessions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	QuestsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_quests_completed_total",
			Help: "Daily quests paid out",
		},
	)

	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(LedgerDeltas)
	prometheus.MustRegister(Actions)
	prometheus.MustRegister(GearUpgrades)
	prometheus.MustRegister(CasesOpened)
	prometheus.MustRegister(GameSessions)
	prometheus.MustRegister(QuestsCompleted)
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
}

// Result labels an outcome as "ok" or "error".
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
