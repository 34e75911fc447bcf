package httptransport

import "expvar"

var (
	metricDepositApplyTotal  = expvar.NewInt("deposit_apply_total")
	metricDepositApplyErrors = expvar.NewInt("deposit_apply_errors_total")

	metricWebhookTotal   = expvar.NewInt("webhook_total")
	metricWebhookIgnored = expvar.NewInt("webhook_ignored_total")
	metricWebhookErrors  = expvar.NewInt("webhook_errors_total")

	metricAdjustmentTotal  = expvar.NewInt("adjustment_total")
	metricAdjustmentErrors = expvar.NewInt("adjustment_errors_total")
)
