package binder

import (
	"strings"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/model"
)

var fragmentLayouts = map[string][]string{
	model.ParamDate:     {"2006-01-02"},
	model.ParamDatetime: {"2006-01-02 15:04:05", "2006-01-02T15:04:05"},
}

// ApplyFragments writes the design time value of date and datetime route
// parameters into a legacy template as quoted literals. Parameters the
// caller supplied stay placeholders and are bound normally. Values must
// parse with one of the known layouts before they reach the SQL text.
func ApplyFragments(template string, params []model.RouteParameter, supplied map[string]interface{}) (string, error) {
	fragments := make(map[string]string)
	for _, p := range params {
		layouts, ok := fragmentLayouts[p.Type]
		if !ok || strings.TrimSpace(p.Value) == "" || hasKeyFold(supplied, p.Name) {
			continue
		}
		value := strings.TrimSpace(p.Value)
		if !parsesWith(value, layouts) {
			return "", common.NewValidationError("parameter %s: %q is not a valid %s", p.Name, value, p.Type)
		}
		fragments[strings.ToLower(p.Name)] = "'" + value + "'"
	}
	if len(fragments) == 0 {
		return template, nil
	}
	return replacePlaceholders(template, func(name string) string {
		if literal, ok := fragments[strings.ToLower(name)]; ok {
			return literal
		}
		return "@" + name
	}), nil
}

func parsesWith(value string, layouts []string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func hasKeyFold(values map[string]interface{}, name string) bool {
	for k := range values {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
