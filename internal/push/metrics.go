package push

import "expvar"

var (
	metricPushQueuedTotal       = expvar.NewInt("ledger_push_queued_total")
	metricPushDroppedTotal      = expvar.NewInt("ledger_push_dropped_total")
	metricPushRetryTotal        = expvar.NewInt("ledger_push_retry_total")
	metricPushRetryDroppedTotal = expvar.NewInt("ledger_push_retry_dropped_total")
	metricPushSentTotal         = expvar.NewInt("ledger_push_sent_total")
	metricPushFailedTotal       = expvar.NewInt("ledger_push_failed_total")
	metricPushCircuitOpenTotal  = expvar.NewInt("ledger_push_circuit_open_total")
	metricPushQueueLen          = expvar.NewInt("ledger_push_queue_len")
	metricPushConfigReloadTotal = expvar.NewInt("ledger_push_config_reload_total")
	metricPushConfigReloadError = expvar.NewInt("ledger_push_config_reload_error_total")
)
