package httptransport

import "expvar"

var (
	metricAPIRecordTotal  = expvar.NewInt("api_record_total")
	metricAPIRecordErrors = expvar.NewInt("api_record_errors_total")
	metricAPIExportTotal  = expvar.NewInt("api_export_total")
	metricAPIOpenTotal    = expvar.NewInt("api_session_open_total")
)
