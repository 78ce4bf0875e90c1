package model

import "github.com/dbroute/dbroute/common"

const (
	RoleAdmin    string = common.ADMIN
	RoleOperator string = common.OPERATOR
	RoleGuest    string = common.GUEST
)

type UserRsp struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
