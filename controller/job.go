package controller

import (
	"strconv"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	"github.com/gin-gonic/gin"
)

const (
	JobIdPath string = "id"
)

// JobScheduler is told about every job change. It may be nil when the
// scheduler is disabled.
type JobScheduler interface {
	Upsert(job model.IntegrationJob)
}

type JobController struct {
	Controller
	scheduler JobScheduler
}

func NewJobController(scheduler JobScheduler, wrapfunc Wrapfunc) *JobController {
	jc := &JobController{}
	jc.scheduler = scheduler
	jc.wrapfunc = wrapfunc
	return jc
}

// @Summary Create integration job
// @Tags job
// @Accept  json
// @Param req body model.IntegrationJob true "request body"
// @Router /api/v1/jobs [post]
func (controller *JobController) CreateJob(c *gin.Context) {
	var req model.IntegrationJob
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if err := common.EnsureIdentifiers(append([]string{req.DestinationTable}, req.Columns...)...); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	req.Source = strings.ToLower(req.Source)
	req.Destination = strings.ToLower(req.Destination)
	for _, slug := range []string{req.Source, req.Destination} {
		if _, err := repository.Ps.GetConnectionBySlug(slug); err != nil {
			controller.fail(c, err, model.E_DATA_SELECT_FAILED)
			return
		}
	}
	req.ID = 0
	req.LastError = ""
	if err := repository.Ps.CreateJob(&req); err != nil {
		controller.fail(c, err, model.E_DATA_INSERT_FAILED)
		return
	}
	controller.schedule(req)
	log.Logger.Infof("job %d %s created, enabled: %v", req.ID, req.Name, req.Enabled)
	controller.wrapfunc(c, model.E_SUCCESS, req)
}

// @Summary List integration jobs
// @Tags job
// @Router /api/v1/jobs [get]
func (controller *JobController) GetJobs(c *gin.Context) {
	jobs, err := repository.Ps.GetAllJobs()
	if err != nil {
		controller.wrapfunc(c, model.E_DATA_SELECT_FAILED, err)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, jobs)
}

// @Summary Enable integration job
// @Tags job
// @Param id path int true "job id"
// @Router /api/v1/jobs/{id}/enable [put]
func (controller *JobController) EnableJob(c *gin.Context) {
	controller.setEnabled(c, true)
}

// @Summary Disable integration job
// @Tags job
// @Param id path int true "job id"
// @Router /api/v1/jobs/{id}/disable [put]
func (controller *JobController) DisableJob(c *gin.Context) {
	controller.setEnabled(c, false)
}

func (controller *JobController) setEnabled(c *gin.Context, enabled bool) {
	id, err := strconv.ParseInt(c.Param(JobIdPath), 10, 64)
	if err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, "job id must be an integer")
		return
	}
	job, err := repository.Ps.GetJobByID(id)
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	job.Enabled = enabled
	if enabled {
		job.LastError = ""
	}
	if err = repository.Ps.UpdateJob(job); err != nil {
		controller.fail(c, err, model.E_DATA_UPDATE_FAILED)
		return
	}
	controller.schedule(job)
	controller.wrapfunc(c, model.E_SUCCESS, job)
}

func (controller *JobController) schedule(job model.IntegrationJob) {
	if controller.scheduler != nil {
		controller.scheduler.Upsert(job)
	}
}
