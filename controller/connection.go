package controller

import (
	"context"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	"github.com/gin-gonic/gin"
)

const (
	ConnectionSlugPath string = "connection"
)

type ConnectionController struct {
	Controller
	vault   *common.Vault
	opener  database.Opener
	timeout time.Duration
}

func NewConnectionController(vault *common.Vault, opener database.Opener, timeout time.Duration, wrapfunc Wrapfunc) *ConnectionController {
	cc := &ConnectionController{}
	cc.vault = vault
	cc.opener = opener
	cc.timeout = timeout
	if cc.timeout <= 0 {
		cc.timeout = 10 * time.Second
	}
	cc.wrapfunc = wrapfunc
	return cc
}

// @Summary Create connection
// @Description password is given in plain text and stored as a vault token
// @Tags connection
// @Accept  json
// @Param req body model.Connection true "request body"
// @Router /api/v1/connections [post]
func (controller *ConnectionController) CreateConnection(c *gin.Context) {
	var req model.Connection
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if _, err := database.Lookup(req.Kind); err != nil {
		controller.fail(c, err, model.E_INVALID_PARAMS)
		return
	}
	req.Slug = common.Slugify(common.GetStringwithDefault(req.Slug, req.Name))
	if req.Slug == "" {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, "slug is empty")
		return
	}
	token, err := controller.vault.Encrypt(req.Password)
	if err != nil {
		controller.fail(c, err, model.E_CRYPTO_FAILED)
		return
	}
	req.Password = token
	req.ID = 0
	req.CreatedAt = time.Now()

	if err = repository.Ps.CreateConnection(&req); err != nil {
		if err == repository.ErrRecordExists {
			controller.wrapfunc(c, model.E_DATA_DUPLICATED, req.Slug)
			return
		}
		controller.wrapfunc(c, model.E_DATA_INSERT_FAILED, err)
		return
	}
	log.Logger.Infof("connection %s (%s) created", req.Slug, req.Kind)
	controller.wrapfunc(c, model.E_SUCCESS, req.View())
}

// @Summary List connections
// @Tags connection
// @Router /api/v1/connections [get]
func (controller *ConnectionController) GetConnections(c *gin.Context) {
	conns, err := repository.Ps.GetAllConnections()
	if err != nil {
		controller.wrapfunc(c, model.E_DATA_SELECT_FAILED, err)
		return
	}
	views := make([]model.ConnectionView, 0, len(conns))
	for _, conn := range conns {
		views = append(views, conn.View())
	}
	controller.wrapfunc(c, model.E_SUCCESS, views)
}

// @Summary Get connection
// @Tags connection
// @Param connection path string true "connection slug"
// @Router /api/v1/connections/{connection} [get]
func (controller *ConnectionController) GetConnection(c *gin.Context) {
	conn, err := repository.Ps.GetConnectionBySlug(c.Param(ConnectionSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, conn.View())
}

// @Summary Update connection
// @Description an empty password keeps the stored credential
// @Tags connection
// @Param connection path string true "connection slug"
// @Router /api/v1/connections/{connection} [put]
func (controller *ConnectionController) UpdateConnection(c *gin.Context) {
	slug := c.Param(ConnectionSlugPath)
	old, err := repository.Ps.GetConnectionBySlug(slug)
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	var req model.Connection
	if err = model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}
	if _, err = database.Lookup(req.Kind); err != nil {
		controller.fail(c, err, model.E_INVALID_PARAMS)
		return
	}
	req.Slug = old.Slug
	if req.Password == "" {
		req.Password = old.Password
	} else if req.Password, err = controller.vault.Encrypt(req.Password); err != nil {
		controller.fail(c, err, model.E_CRYPTO_FAILED)
		return
	}
	if err = repository.Ps.UpdateConnection(req); err != nil {
		controller.fail(c, err, model.E_DATA_UPDATE_FAILED)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, nil)
}

// @Summary Test connection
// @Description decrypts the credential, connects and pings the target
// @Tags connection
// @Param connection path string true "connection slug"
// @Router /api/v1/connections/{connection}/test [post]
func (controller *ConnectionController) TestConnection(c *gin.Context) {
	conn, err := repository.Ps.GetConnectionBySlug(c.Param(ConnectionSlugPath))
	if err != nil {
		controller.fail(c, err, model.E_DATA_SELECT_FAILED)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), controller.timeout)
	defer cancel()
	_, session, err := database.Connect(ctx, controller.opener, controller.vault, &conn)
	if err != nil {
		controller.fail(c, err, model.E_CONNECT_FAILED)
		return
	}
	_ = session.Close()
	controller.wrapfunc(c, model.E_SUCCESS, nil)
}
