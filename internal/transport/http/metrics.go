package httptransport

import "expvar"

var (
	metricHTTPSessionCreateTotal  = expvar.NewInt("http_session_create_total")
	metricHTTPSessionCreateErrors = expvar.NewInt("http_session_create_errors_total")

	metricHTTPActionTotal  = expvar.NewInt("http_action_submit_total")
	metricHTTPActionErrors = expvar.NewInt("http_action_submit_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("session_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("session_sse_connections_active")
)
