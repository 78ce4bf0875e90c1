package model

import "time"

// IntegrationJob periodically copies the rows returned by SourceQuery on the
// Source connection into DestinationTable on the Destination connection.
type IntegrationJob struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name" validate:"required"`
	Source           string    `json:"source" validate:"required"`
	SourceQuery      string    `json:"source_query" validate:"required"`
	Destination      string    `json:"destination" validate:"required"`
	DestinationTable string    `json:"destination_table" validate:"required"`
	Columns          []string  `json:"columns" validate:"required,min=1"`
	IntervalSeconds  int       `json:"interval_seconds" validate:"required,min=1"`
	BatchSize        int       `json:"batch_size"`
	Enabled          bool      `json:"enabled"`
	LastRun          time.Time `json:"last_run"`
	LastError        string    `json:"last_error"`
}

func (j IntegrationJob) Interval() time.Duration {
	return time.Duration(j.IntervalSeconds) * time.Second
}
