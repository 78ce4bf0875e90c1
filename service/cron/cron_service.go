package cron

import (
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/log"
	"github.com/robfig/cron/v3"
)

type Reloader interface {
	Reload() error
}

type HistoryPurger interface {
	PurgeExecutionLogs(before time.Time) (int64, error)
}

type CronService struct {
	config       config.CronJob
	jobSchedules map[int16]string
	jobList      map[int16]func() error
	cron         *cron.Cron
}

// NewCronService wires the maintenance jobs. A nil reloader skips the job
// reload, e.g. when the scheduler is disabled.
func NewCronService(config config.CronJob, reloader Reloader, purger HistoryPurger) *CronService {
	job := &CronService{
		config:       config,
		jobSchedules: make(map[int16]string),
		jobList:      make(map[int16]func() error),
		cron:         cron.New(cron.WithSeconds()),
	}
	if reloader != nil {
		job.jobList[JOB_RELOAD_INTEGRATION_JOBS] = func() error {
			log.Logger.Debugf("reload integration jobs task triggered")
			return reloader.Reload()
		}
	}
	if purger != nil && config.HistoryRetention > 0 {
		job.jobList[JOB_PURGE_EXECUTION_LOGS] = func() error {
			before := time.Now().AddDate(0, 0, -config.HistoryRetention)
			n, err := purger.PurgeExecutionLogs(before)
			if err == nil && n > 0 {
				log.Logger.Infof("purged %d execution logs older than %s", n, before.Format(time.RFC3339))
			}
			return err
		}
	}
	return job
}

func (job *CronService) schedulePadding() {
	job.jobSchedules[JOB_RELOAD_INTEGRATION_JOBS] = common.GetStringwithDefault(job.config.ReloadJobs, SCHEDULE_RELOAD_DEFAULT)
	job.jobSchedules[JOB_PURGE_EXECUTION_LOGS] = common.GetStringwithDefault(job.config.PurgeHistory, SCHEDULE_PURGE_DEFAULT)
}

func (job *CronService) Start() error {
	job.schedulePadding()
	for k, v := range job.jobList {
		k := k
		v := v
		if spec, ok := job.jobSchedules[k]; ok {
			if _, err := job.cron.AddFunc(spec, func() {
				if err := v(); err != nil {
					log.Logger.Errorf("cron job %d failed: %v", k, err)
				}
			}); err != nil {
				return err
			}
		}
	}
	job.cron.Start()
	return nil
}

func (job *CronService) Stop() {
	<-job.cron.Stop().Done()
	log.Logger.Infof("cron service stopped")
}
