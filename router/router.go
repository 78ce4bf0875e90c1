package router

import (
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ResponseBody struct {
	RetCode string      `json:"retCode"`
	RetMsg  string      `json:"retMsg"`
	Entity  interface{} `json:"entity"`
}

// WrapMsg writes the response envelope with the http status of retCode.
// Error details are appended to retMsg unless server.expose_errors is off.
func WrapMsg(c *gin.Context, retCode string, entity interface{}) {
	c.Status(model.HttpStatus(retCode))
	c.Header("Content-Type", "application/json; charset=utf-8")

	retMsg := model.GetMsg(retCode)
	if retCode != model.E_SUCCESS {
		log.Logger.Errorf("%s %s return %s, %v", c.Request.Method, c.Request.RequestURI, retCode, entity)
		var detail string
		if err, ok := entity.(error); ok {
			detail = err.Error()
		} else if s, ok := entity.(string); ok {
			detail = s
		}
		if detail != "" && config.GlobalConfig.Server.ExposeErrors {
			retMsg += ": " + detail
		}
		entity = nil
	}

	resp := ResponseBody{
		RetCode: retCode,
		RetMsg:  retMsg,
		Entity:  entity,
	}
	jsonBytes, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Logger.Errorf("%s %s marshal response body fail: %s", c.Request.Method, c.Request.RequestURI, err.Error())
		return
	}

	log.Logger.Debugf("[response] | %s | %s | %s \n%v", c.Request.Host, c.Request.Method, c.Request.URL, string(jsonBytes))

	_, err = c.Writer.Write(jsonBytes)
	if err != nil {
		log.Logger.Errorf("%s %s write response body fail: %s", c.Request.Method, c.Request.RequestURI, err.Error())
		return
	}
}
