// Package metrics provides Prometheus metrics for Readly — counters and
// gauges for check-ins, point grants, awards, and the reminder loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Check-ins ──────────────────────────────────────────────────────────────

// CheckInsCreated tracks created check-ins.
var CheckInsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "checkins_created_total",
	Help:      "Total check-ins created.",
})

// CheckInsDeleted tracks deleted check-ins.
var CheckInsDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "checkins_deleted_total",
	Help:      "Total check-ins deleted by their owners.",
})

// ─── Awards ─────────────────────────────────────────────────────────────────

// PointsGranted tracks granted points by related type.
var PointsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "points_granted_total",
	Help:      "Total points granted, by source.",
}, []string{"source"})

// BadgesAwarded tracks badge awards by badge ID.
var BadgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "badges_awarded_total",
	Help:      "Total badges awarded.",
}, []string{"badge"})

// LevelUps tracks level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// ChallengeClaims tracks successful daily-challenge claims.
var ChallengeClaims = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "challenge_claims_total",
	Help:      "Total daily challenges claimed.",
})

// ─── Reminders ──────────────────────────────────────────────────────────────

// RemindersSent tracks reminder notifications by type.
var RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "reminders_sent_total",
	Help:      "Total reminder notifications created.",
}, []string{"type"})

// NotificationsCleaned tracks notifications removed by retention cleanup.
var NotificationsCleaned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "readly",
	Name:      "notifications_cleaned_total",
	Help:      "Total notifications removed by retention cleanup.",
})

// SchedulerRunning reports whether the reminder loop is running (1 or 0).
var SchedulerRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "readly",
	Name:      "reminder_scheduler_running",
	Help:      "Whether the reminder scheduler loop is running (1=yes).",
})
