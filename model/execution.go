package model

import (
	"strings"
	"time"
)

const (
	OutcomeSuccess string = "success"
	OutcomeSkipped string = "skipped"
	OutcomeError   string = "error"

	StatusSuccess string = "success"
	StatusError   string = "error"

	ReasonNotRequested string = "not requested"
	ReasonNoParameters string = "no parameters supplied"
	ReasonNoQuery      string = "no query to execute"
)

type ExecuteReq struct {
	Connections []string                            `json:"connections" validate:"required,min=1,dive,required"`
	Parameters  []map[string]map[string]interface{} `json:"parameters"`
}

// ParamsBySlug flattens the list of {slug: {name: value}} objects into a
// single map keyed by lower cased slug. Later entries win.
func (req *ExecuteReq) ParamsBySlug() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for _, item := range req.Parameters {
		for slug, values := range item {
			if values == nil {
				values = map[string]interface{}{}
			}
			out[strings.ToLower(slug)] = values
		}
	}
	return out
}

// Outcome is the result of one connection inside a fan-out.
type Outcome struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message"`
	RowsAffected int64                  `json:"rows_affected,omitempty"`
	Outputs      map[string]interface{} `json:"outputs,omitempty"`
	Branch       string                 `json:"branch,omitempty"`
	Duration     time.Duration          `json:"-"`
}

func SuccessOutcome(message string) Outcome {
	return Outcome{Status: OutcomeSuccess, Message: message}
}

func SkippedOutcome(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Message: reason}
}

func ErrorOutcome(err error) Outcome {
	return Outcome{Status: OutcomeError, Message: err.Error()}
}

func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

type ExecutionResult struct {
	Status string             `json:"status"`
	Data   map[string]Outcome `json:"data"`
}

// Finalize derives the aggregate status from the per connection outcomes.
func (r *ExecutionResult) Finalize() {
	r.Status = StatusError
	for _, o := range r.Data {
		if o.Succeeded() {
			r.Status = StatusSuccess
			return
		}
	}
}

func (r *ExecutionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

type ExecutionLog struct {
	ID         string    `json:"id"`
	Route      string    `json:"route"`
	Connection string    `json:"connection"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type PagedRows struct {
	Connection string          `json:"connection"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
	Columns    []string        `json:"columns"`
	Rows       [][]interface{} `json:"rows"`
}
