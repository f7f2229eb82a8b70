package session

import "expvar"

var (
	metricSessionCreateTotal  = expvar.NewInt("session_create_total")
	metricSessionCreateErrors = expvar.NewInt("session_create_errors_total")
	metricSessionsActive      = expvar.NewInt("sessions_active")

	metricActionSubmitTotal = expvar.NewInt("action_submit_total")
	metricActionRejectTotal = expvar.NewInt("action_reject_total")
	metricAIActionTotal     = expvar.NewInt("ai_action_total")
	metricTurnTimeoutTotal  = expvar.NewInt("turn_timeout_total")
	metricGamesRevealed     = expvar.NewInt("games_revealed_total")

	metricStoreWriteConflicts = expvar.NewInt("store_write_conflict_total")
	metricStoreWriteErrors    = expvar.NewInt("store_write_errors_total")
	metricEventsDropped       = expvar.NewInt("session_events_dropped_total")
)
