package controller

import (
	"github.com/dbroute/dbroute/model"
	"github.com/gin-gonic/gin"
)

type Wrapfunc func(c *gin.Context, retCode string, entity interface{})

type Controller struct {
	wrapfunc Wrapfunc
}

// fail answers with the return code of err's kind, fallback otherwise.
func (controller *Controller) fail(c *gin.Context, err error, fallback string) {
	controller.wrapfunc(c, model.CodeOf(err, fallback), err)
}
