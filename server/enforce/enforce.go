package enforce

import (
	"strings"

	"github.com/dbroute/dbroute/common"
)

const (
	POST   string = "POST"
	GET    string = "GET"
	PUT    string = "PUT"
	DELETE string = "DELETE"
)

type Policy struct {
	URL    string
	Method string
}

type Model struct {
	Admin     string
	UrlPrefix []string
}

type Enforcer struct {
	model    Model
	guest    []Policy
	operator []Policy
}

var DefaultModel = Model{
	Admin: common.ADMIN,
	UrlPrefix: []string{
		"/api/v1",
	},
}
var e *Enforcer

func init() {
	e = &Enforcer{
		model:    DefaultModel,
		guest:    GuestPolicies(),
		operator: OperatorPolicies(),
	}
}

// Match reports whether url2, stripped of an api prefix, starts with the
// policy url1. A trailing "*" in url1 is ignored.
func (e *Enforcer) Match(url1, url2 string) bool {
	for _, prefix := range e.model.UrlPrefix {
		if !strings.HasPrefix(url2, prefix) {
			continue
		}
		url22 := strings.TrimPrefix(url2, prefix)
		url11 := strings.TrimSuffix(url1, "*")
		if strings.HasPrefix(url22, url11) {
			return true
		}
	}

	return false
}

// Enforce checks the current role of username, so a role change applies
// to tokens already issued.
func Enforce(username, url, method string) bool {
	userinfo, err := common.GetUserInfo(username)
	if err != nil {
		return false
	}

	var policies []Policy
	switch userinfo.Policy {
	case e.model.Admin:
		return true
	case common.OPERATOR:
		policies = e.operator
	case common.GUEST:
		policies = e.guest
	}
	for _, policy := range policies {
		if e.Match(policy.URL, url) && policy.Method == method {
			return true
		}
	}
	return false
}
