package cron

const (
	JOB_NULL = iota
	JOB_RELOAD_INTEGRATION_JOBS
	JOB_PURGE_EXECUTION_LOGS
)

const (
	SCHEDULE_EVERY_DAY  = "0 0 0 * * ?"
	SCHEDULE_EVERY_HOUR = "0 0 * * * ?"
	SCHEDULE_EVERY_MIN  = "0 * * * * ?"
	SCHEDULE_EVERY_SEC  = "* * * * * ?"

	SCHEDULE_RELOAD_DEFAULT = "0 */5 * * * ?"
	SCHEDULE_PURGE_DEFAULT  = "0 30 3 * * ?"
)
