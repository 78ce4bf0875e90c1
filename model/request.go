package model

import (
	"io"
	"net/http"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// DecodeRequestBody unmarshals the request body into v and runs the struct
// validation tags. Any failure is a ValidationError.
func DecodeRequestBody(request *http.Request, v interface{}) error {
	body, err := io.ReadAll(request.Body)
	if err != nil {
		return common.NewValidationError("read request body: %v", err)
	}
	if len(body) == 0 {
		return common.NewValidationError("request body is empty")
	}
	if err = json.Unmarshal(body, v); err != nil {
		return common.NewValidationError("malformed request body: %v", err)
	}
	return Validate(v)
}

func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		var fields []string
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+" failed on "+fe.Tag())
		}
		return common.NewValidationError("%s", strings.Join(fields, "; "))
	}
	return common.NewValidationError("%v", err)
}

type LoginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRsp struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

type RouteConnectionsReq struct {
	Connections []string `json:"connections" validate:"dive,required"`
}

type RouteParametersReq struct {
	Parameters []RouteParameter `json:"parameters" validate:"dive"`
}

type SequenceReq struct {
	Connections []string                       `json:"connections" validate:"required,min=1,dive,required"`
	Parameters  []map[string]map[string]string `json:"parameters"`
}

// SequenceBySlug returns the requested sequence name per lower cased slug.
func (req *SequenceReq) SequenceBySlug() map[string]string {
	out := make(map[string]string)
	for _, item := range req.Parameters {
		for slug, values := range item {
			out[strings.ToLower(slug)] = values["sequence"]
		}
	}
	return out
}
