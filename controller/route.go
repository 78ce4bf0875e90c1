package controller

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	"github.com/dbroute/dbroute/service/route"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

const (
	RouteSlugPath string = "slug"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RouteController struct {
	Controller
	executor *route.Executor
}

func NewRouteController(executor *route.Executor, wrapfunc Wrapfunc) *RouteController {
	rc := &RouteController{}
	rc.executor = executor
	rc.wrapfunc = wrapfunc
	return rc
}

// @Summary Create route
// @Tags route
// @Accept  json
// @Param req body model.Route true "request body"
// @Router /api/v1/routes [post]
func (controller *RouteController) CreateRoute(c *gin.Context) {
	var req model.Route
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if msg := req.Check(); msg != "" {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, msg)
		return
	}
	if err := model.Validate(&model.RouteParametersReq{Parameters: req.Parameters}); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	req.Slug = common.Slugify(req.Name)
	if req.Slug == "" {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, "route name has no usable characters")
		return
	}
	req.ID = 0
	req.CreatedAt = time.Now()
	if err := repository.Ps.CreateRoute(&req); err != nil {
		if err == repository.ErrRecordExists {
			controller.wrapfunc(c, model.E_DATA_DUPLICATED, req.Slug)
			return
		}
		controller.fail(c, err, model.E_DATA_INSERT_FAILED)
		return
	}
	created, err := repository.Ps.GetRouteBySlug(req.Slug)
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	log.Logger.Infof("route %s created", created.Slug)
	controller.wrapfunc(c, model.E_SUCCESS, created)
}

// @Summary List routes
// @Tags route
// @Router /api/v1/routes [get]
func (controller *RouteController) GetRoutes(c *gin.Context) {
	routes, err := repository.Ps.GetAllRoutes()
	if err != nil {
		controller.wrapfunc(c, model.E_DATA_SELECT_FAILED, err)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, routes)
}

// @Summary Get route
// @Tags route
// @Param slug path string true "route slug"
// @Router /api/v1/routes/{slug} [get]
func (controller *RouteController) GetRoute(c *gin.Context) {
	rt, err := repository.Ps.GetRouteBySlug(c.Param(RouteSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, rt)
}

// @Summary Update route
// @Description partial update of queries and flags, absent fields are kept
// @Tags route
// @Param slug path string true "route slug"
// @Param req body model.RouteUpdateReq true "request body"
// @Router /api/v1/routes/{slug} [put]
func (controller *RouteController) UpdateRoute(c *gin.Context) {
	rt, err := repository.Ps.GetRouteBySlug(c.Param(RouteSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	var req model.RouteUpdateReq
	if err = model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	rt.Apply(req)
	if msg := rt.Check(); msg != "" {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, msg)
		return
	}
	if err = repository.Ps.UpdateRoute(rt); err != nil {
		controller.fail(c, err, model.E_DATA_UPDATE_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, rt)
}

// @Summary Attach connections to route
// @Description replaces the attached connection list
// @Tags route
// @Param slug path string true "route slug"
// @Param req body model.RouteConnectionsReq true "request body"
// @Router /api/v1/routes/{slug}/connections [put]
func (controller *RouteController) SetConnections(c *gin.Context) {
	var req model.RouteConnectionsReq
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if err := repository.Ps.SetRouteConnections(c.Param(RouteSlugPath), req.Connections); err != nil {
		controller.fail(c, err, model.E_DATA_UPDATE_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, nil)
}

// @Summary Set route parameters
// @Tags route
// @Param slug path string true "route slug"
// @Param req body model.RouteParametersReq true "request body"
// @Router /api/v1/routes/{slug}/parameters [put]
func (controller *RouteController) SetParameters(c *gin.Context) {
	var req model.RouteParametersReq
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if err := repository.Ps.SetRouteParameters(c.Param(RouteSlugPath), req.Parameters); err != nil {
		controller.fail(c, err, model.E_DATA_UPDATE_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, nil)
}

// @Summary Execute route
// @Description runs the route on every requested connection, 200 if at least one succeeded
// @Tags route
// @Param slug path string true "route slug"
// @Param req body model.ExecuteReq true "request body"
// @Success 200 {object} model.ExecutionResult
// @Failure 400 {object} model.ExecutionResult
// @Router /api/v1/routes/execute/{slug} [post]
func (controller *RouteController) Execute(c *gin.Context) {
	var req model.ExecuteReq
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	rt, err := repository.Ps.GetRouteBySlug(c.Param(RouteSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	attached, err := repository.ResolveConnections(repository.Ps, rt)
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}

	result := controller.executor.Execute(c.Request.Context(), &rt, attached, &req)
	log.Logger.Info(route.Describe(&rt, result))
	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// @Summary Next sequence value
// @Description next value of a named sequence per connection, oracle only
// @Tags route
// @Param req body model.SequenceReq true "request body"
// @Success 200 {object} model.ExecutionResult
// @Router /api/v1/routes/bluemind/sequence/ [post]
func (controller *RouteController) NextSequence(c *gin.Context) {
	var req model.SequenceReq
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	for slug, sequence := range req.SequenceBySlug() {
		if sequence != "" && !common.ValidIdentifier(sequence) {
			controller.wrapfunc(c, model.E_INVALID_PARAMS, "invalid sequence name for "+slug)
			return
		}
	}
	conns, err := repository.Ps.GetAllConnections()
	if err != nil {
		controller.wrapfunc(c, model.E_DATA_SELECT_FAILED, err)
		return
	}
	known := make(map[string]*model.Connection, len(conns))
	for i := range conns {
		known[strings.ToLower(conns[i].Slug)] = &conns[i]
	}

	result := controller.executor.NextValues(c.Request.Context(), &req, known)
	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// @Summary Paged query
// @Description runs the resolved read query of a route on one attached connection
// @Tags route
// @Param slug path string true "route slug"
// @Param connection path string true "connection slug"
// @Param limit query int false "page size" default(100)
// @Param offset query int false "rows to skip" default(0)
// @Router /api/v1/routes/query/{slug}/{connection} [post]
func (controller *RouteController) Query(c *gin.Context) {
	limit, offset, err := database.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	values := map[string]interface{}{}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if len(body) > 0 {
		if err = json.Unmarshal(body, &values); err != nil {
			controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
			return
		}
	}

	rt, err := repository.Ps.GetRouteBySlug(c.Param(RouteSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	desc, err := repository.Ps.GetConnectionBySlug(c.Param(ConnectionSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	rows, err := controller.executor.QueryPage(c.Request.Context(), &rt, &desc, values, limit, offset)
	if err != nil {
		controller.fail(c, err, model.E_QUERY_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, rows)
}

// @Summary Execution history
// @Tags route
// @Param slug path string true "route slug"
// @Param limit query int false "max entries" default(100)
// @Router /api/v1/routes/{slug}/history [get]
func (controller *RouteController) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rt, err := repository.Ps.GetRouteBySlug(c.Param(RouteSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	logs, err := repository.Ps.GetExecutionLogs(rt.Slug, limit)
	if err != nil {
		controller.wrapfunc(c, model.E_DATA_SELECT_FAILED, err)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, logs)
}
