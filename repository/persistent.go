package repository

import (
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/model"
	"github.com/pkg/errors"
)

var Ps PersistentMgr

// Global registry to mapping adapter name to the adapter factory
var PersistentRegistry map[string]PersistentFactory = make(map[string]PersistentFactory)

type PersistentFactory interface {
	GetPersistentName() string
	// Create an adapter instance
	CreatePersistent() PersistentMgr
}

type PersistentMgr interface {
	UnmarshalConfig(configMap map[string]interface{}) interface{}

	Init(config interface{}) error

	// Transaction runs fn against a store scoped to one transaction. The
	// writes of fn are committed when it returns nil and discarded otherwise,
	// writes of other callers are never affected. fn must only use tx.
	Transaction(fn func(tx Repository) error) error

	Repository
}

// Repository is the data surface of the control plane.
type Repository interface {
	GetAllConnections() ([]model.Connection, error)
	GetConnectionBySlug(slug string) (model.Connection, error)
	CreateConnection(conn *model.Connection) error
	UpdateConnection(conn model.Connection) error

	GetAllRoutes() ([]model.Route, error)
	// route with its attached connection slugs and parameters
	GetRouteBySlug(slug string) (model.Route, error)
	CreateRoute(route *model.Route) error
	UpdateRoute(route model.Route) error
	SetRouteConnections(slug string, connections []string) error
	SetRouteParameters(slug string, params []model.RouteParameter) error

	GetAllJobs() ([]model.IntegrationJob, error)
	GetJobByID(id int64) (model.IntegrationJob, error)
	CreateJob(job *model.IntegrationJob) error
	UpdateJob(job model.IntegrationJob) error

	CreateExecutionLog(entry model.ExecutionLog) error
	// newest first, at most limit entries
	GetExecutionLogs(route string, limit int) ([]model.ExecutionLog, error)
	PurgeExecutionLogs(before time.Time) (int64, error)
}

func RegistePersistent(fn func() PersistentFactory) {
	if fn == nil {
		return
	}
	factory := fn()
	name := factory.GetPersistentName()
	if name == "" {
		panic("Empty persistent name when registe persistent factory")
	}
	PersistentRegistry[name] = factory
}

func GetPersistentByName(name string) PersistentMgr {
	if factory, ok := PersistentRegistry[name]; ok {
		return factory.CreatePersistent()
	}
	return nil
}

func InitPersistent(vault *common.Vault) error {
	if Ps == nil {
		Ps = GetPersistentByName(config.GlobalConfig.Server.PersistentPolicy)
	}
	if Ps == nil {
		return errors.Errorf("persistent policy %s is not regist", config.GlobalConfig.Server.PersistentPolicy)
	}

	var pcfg interface{}
	if config.GlobalConfig.PersistentConfig != nil {
		configMap, ok := config.GlobalConfig.PersistentConfig[config.GlobalConfig.Server.PersistentPolicy]
		if ok {
			if err := DecryptConfigMap(vault, configMap); err != nil {
				return err
			}
			pcfg = Ps.UnmarshalConfig(configMap)
		}
	}
	if err := Ps.Init(pcfg); err != nil {
		return err
	}
	return nil
}

// DecryptConfigMap replaces every ENC(token) string value in place.
func DecryptConfigMap(vault *common.Vault, configMap map[string]interface{}) error {
	if vault == nil {
		return nil
	}
	for k, v := range configMap {
		s, ok := v.(string)
		if !ok {
			continue
		}
		plain, err := vault.DecryptValue(s)
		if err != nil {
			return errors.Wrapf(err, "persistent_config.%s", k)
		}
		configMap[k] = plain
	}
	return nil
}
