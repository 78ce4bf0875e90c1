package controller

import (
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/model"
	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

var TokenCache *cache.Cache

type UserController struct {
	Controller
	config *config.DBRouteConfig
	jwt    *common.JWT
}

func NewUserController(config *config.DBRouteConfig, wrapfunc Wrapfunc) *UserController {
	uc := &UserController{}
	uc.config = config
	uc.wrapfunc = wrapfunc
	uc.jwt = common.NewJWT(config.Server.SigningKey)
	return uc
}

// @Summary Login
// @Tags user
// @Accept  json
// @Param req body model.LoginReq true "request body"
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":{"username":"dbroute","token":"..."}}"
// @Router /api/login [post]
func (controller *UserController) Login(c *gin.Context) {
	var req model.LoginReq
	if err := model.DecodeRequestBody(c.Request, &req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return
	}

	if _, err := common.GetUserInfo(req.Username); err != nil {
		controller.wrapfunc(c, model.E_USER_VERIFY_FAIL, nil)
		return
	}
	info, err := common.Authenticate(req.Username, req.Password)
	if err != nil {
		controller.wrapfunc(c, model.E_PASSWORD_VERIFY_FAIL, nil)
		return
	}

	timeout := time.Second * time.Duration(controller.config.Server.SessionTimeout)
	claims := common.CustomClaims{
		StandardClaims: jwt.StandardClaims{
			// expiry slides with activity, see TokenCache
			IssuedAt: time.Now().Unix(),
		},
		Name:     req.Username,
		Role:     info.Policy,
		ClientIP: c.ClientIP(),
	}
	token, err := controller.jwt.CreateToken(claims)
	if err != nil {
		controller.wrapfunc(c, model.E_CREAT_TOKEN_FAIL, err)
		return
	}

	rsp := model.LoginRsp{
		Username: req.Username,
		Role:     info.Policy,
		Token:    token,
	}
	TokenCache.SetDefault(token, time.Now().Add(timeout).Unix())

	controller.wrapfunc(c, model.E_SUCCESS, rsp)
}

// @Summary Logout
// @Tags user
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":null}"
// @Router /api/logout [put]
func (controller *UserController) Logout(c *gin.Context) {
	if value, exists := c.Get("token"); exists {
		token := value.(string)
		TokenCache.Delete(token)
		c.Set("token", "")
	}

	controller.wrapfunc(c, model.E_SUCCESS, nil)
}

// @Summary Current user
// @Tags user
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":{"name":"dbroute","role":"admin"}}"
// @Router /api/v1/user [get]
func (controller *UserController) GetUserInfo(c *gin.Context) {
	value, exists := c.Get("claims")
	if !exists {
		controller.wrapfunc(c, model.E_JWT_TOKEN_NONE, nil)
		return
	}
	claims := value.(*common.CustomClaims)
	controller.wrapfunc(c, model.E_SUCCESS, model.UserRsp{Name: claims.Name, Role: claims.Role})
}
