package router

import (
	"fmt"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/controller"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/service/route"
	"github.com/gin-gonic/gin"
)

// Services are the long lived objects built in main and shared by the
// controllers.
type Services struct {
	Vault     *common.Vault
	Opener    database.Opener
	Executor  *route.Executor
	Scheduler controller.JobScheduler
}

func InitRouterV1(groupV1 *gin.RouterGroup, config *config.DBRouteConfig, svc *Services) {
	connectTimeout := time.Duration(config.Executor.ConnectTimeout) * time.Second
	userController := controller.NewUserController(config, WrapMsg)
	connController := controller.NewConnectionController(svc.Vault, svc.Opener, connectTimeout, WrapMsg)
	routeController := controller.NewRouteController(svc.Executor, WrapMsg)
	jobController := controller.NewJobController(svc.Scheduler, WrapMsg)

	groupV1.GET("/user", userController.GetUserInfo)

	groupV1.POST("/connections", connController.CreateConnection)
	groupV1.GET("/connections", connController.GetConnections)
	groupV1.GET(fmt.Sprintf("/connections/:%s", controller.ConnectionSlugPath), connController.GetConnection)
	groupV1.PUT(fmt.Sprintf("/connections/:%s", controller.ConnectionSlugPath), connController.UpdateConnection)
	groupV1.POST(fmt.Sprintf("/connections/:%s/test", controller.ConnectionSlugPath), connController.TestConnection)

	groupV1.POST("/routes", routeController.CreateRoute)
	groupV1.GET("/routes", routeController.GetRoutes)
	groupV1.GET(fmt.Sprintf("/routes/:%s", controller.RouteSlugPath), routeController.GetRoute)
	groupV1.PUT(fmt.Sprintf("/routes/:%s", controller.RouteSlugPath), routeController.UpdateRoute)
	groupV1.PUT(fmt.Sprintf("/routes/:%s/connections", controller.RouteSlugPath), routeController.SetConnections)
	groupV1.PUT(fmt.Sprintf("/routes/:%s/parameters", controller.RouteSlugPath), routeController.SetParameters)
	groupV1.GET(fmt.Sprintf("/routes/:%s/history", controller.RouteSlugPath), routeController.History)
	groupV1.POST(fmt.Sprintf("/routes/execute/:%s", controller.RouteSlugPath), routeController.Execute)
	groupV1.POST("/routes/bluemind/sequence/", routeController.NextSequence)
	groupV1.POST(fmt.Sprintf("/routes/query/:%s/:%s", controller.RouteSlugPath, controller.ConnectionSlugPath), routeController.Query)

	groupV1.POST("/jobs", jobController.CreateJob)
	groupV1.GET("/jobs", jobController.GetJobs)
	groupV1.PUT(fmt.Sprintf("/jobs/:%s/enable", controller.JobIdPath), jobController.EnableJob)
	groupV1.PUT(fmt.Sprintf("/jobs/:%s/disable", controller.JobIdPath), jobController.DisableJob)
}
