package bot

import "expvar"

var (
	metricCommandsTotal = expvar.NewMap("bot_commands_total")
	metricCommandErrors = expvar.NewMap("bot_command_errors_total")
	metricReplyFailures = expvar.NewInt("bot_reply_failures_total")
)
