package local

import "github.com/dbroute/dbroute/model"

type PersistentData struct {
	Connections map[string]model.Connection    `json:"connections" yaml:"connections"`
	Routes      map[string]model.Route         `json:"routes" yaml:"routes"`
	Jobs        map[int64]model.IntegrationJob `json:"jobs" yaml:"jobs"`
	Logs        []model.ExecutionLog           `json:"logs" yaml:"logs"`
	LastID      int64                          `json:"last_id" yaml:"last_id"`
}

func (d *PersistentData) ensure() {
	if d.Connections == nil {
		d.Connections = make(map[string]model.Connection)
	}
	if d.Routes == nil {
		d.Routes = make(map[string]model.Route)
	}
	if d.Jobs == nil {
		d.Jobs = make(map[int64]model.IntegrationJob)
	}
}

func (d *PersistentData) nextID() int64 {
	d.LastID++
	return d.LastID
}
