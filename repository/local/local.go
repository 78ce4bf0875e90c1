package local

import (
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LocalPersistent keeps the whole control plane in one json or yaml file,
// rewritten after every change outside of a transaction.
type LocalPersistent struct {
	Config        LocalConfig
	Data          PersistentData
	inTransaction bool
	lock          sync.RWMutex
}

func (lp *LocalPersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config LocalConfig
	data, err := json.Marshal(configMap)
	if err != nil {
		log.Logger.Errorf("marshal local configMap failed:%v", err)
		return nil
	}
	if err = json.Unmarshal(data, &config); err != nil {
		log.Logger.Errorf("unmarshal local config failed:%v", err)
		return nil
	}
	return config
}

func (lp *LocalPersistent) Init(config interface{}) error {
	if config == nil {
		config = LocalConfig{}
	}
	lp.Config = config.(LocalConfig)
	lp.Config.Normalize()
	lp.inTransaction = false
	lp.Data = PersistentData{}
	if err := lp.load(); err != nil {
		return err
	}
	lp.Data.ensure()
	return nil
}

// Transaction holds the write lock while fn runs, so nothing else is written
// in between and a rollback only drops the writes of fn.
func (lp *LocalPersistent) Transaction(fn func(tx repository.Repository) error) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()

	var snapshot PersistentData
	if err := copyData(&snapshot, &lp.Data); err != nil {
		return err
	}
	committed := false
	lp.inTransaction = true
	defer func() {
		lp.inTransaction = false
		if !committed {
			if err := copyData(&lp.Data, &snapshot); err != nil {
				log.Logger.Errorf("rollback local persistent failed: %v", err)
			}
		}
	}()

	if err := fn(&localTx{lp: lp}); err != nil {
		return err
	}
	if err := lp.dump(); err != nil {
		return err
	}
	committed = true
	return nil
}

// copyData replaces dst entirely, gob alone would merge into existing maps.
func copyData(dst, src *PersistentData) error {
	*dst = PersistentData{}
	err := common.DeepCopyByGob(dst, src)
	dst.ensure()
	return err
}

func (lp *LocalPersistent) unlocked() *localTx {
	return &localTx{lp: lp}
}

func (lp *LocalPersistent) GetAllConnections() ([]model.Connection, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetAllConnections()
}

func (lp *LocalPersistent) GetConnectionBySlug(slug string) (model.Connection, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetConnectionBySlug(slug)
}

func (lp *LocalPersistent) CreateConnection(conn *model.Connection) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().CreateConnection(conn)
}

func (lp *LocalPersistent) UpdateConnection(conn model.Connection) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().UpdateConnection(conn)
}

func (lp *LocalPersistent) GetAllRoutes() ([]model.Route, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetAllRoutes()
}

func (lp *LocalPersistent) GetRouteBySlug(slug string) (model.Route, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetRouteBySlug(slug)
}

// CreateRoute stores the route together with its connections and
// parameters, all or nothing.
func (lp *LocalPersistent) CreateRoute(route *model.Route) error {
	return lp.Transaction(func(tx repository.Repository) error {
		return tx.CreateRoute(route)
	})
}

func (lp *LocalPersistent) UpdateRoute(route model.Route) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().UpdateRoute(route)
}

func (lp *LocalPersistent) SetRouteConnections(slug string, connections []string) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().SetRouteConnections(slug, connections)
}

func (lp *LocalPersistent) SetRouteParameters(slug string, params []model.RouteParameter) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().SetRouteParameters(slug, params)
}

func (lp *LocalPersistent) GetAllJobs() ([]model.IntegrationJob, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetAllJobs()
}

func (lp *LocalPersistent) GetJobByID(id int64) (model.IntegrationJob, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetJobByID(id)
}

func (lp *LocalPersistent) CreateJob(job *model.IntegrationJob) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().CreateJob(job)
}

func (lp *LocalPersistent) UpdateJob(job model.IntegrationJob) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().UpdateJob(job)
}

func (lp *LocalPersistent) CreateExecutionLog(entry model.ExecutionLog) error {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().CreateExecutionLog(entry)
}

func (lp *LocalPersistent) GetExecutionLogs(route string, limit int) ([]model.ExecutionLog, error) {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.unlocked().GetExecutionLogs(route, limit)
}

func (lp *LocalPersistent) PurgeExecutionLogs(before time.Time) (int64, error) {
	lp.lock.Lock()
	defer lp.lock.Unlock()
	return lp.unlocked().PurgeExecutionLogs(before)
}

// save persists the data unless a transaction is open, Transaction dumps
// once fn succeeds.
func (lp *LocalPersistent) save() error {
	if lp.inTransaction {
		return nil
	}
	return lp.dump()
}

func (lp *LocalPersistent) marshal() ([]byte, error) {
	var data []byte
	var err error
	if lp.Config.Format == FORMAT_JSON {
		data, err = json.MarshalIndent(lp.Data, "", "  ")
	} else if lp.Config.Format == FORMAT_YAML {
		data, err = yaml.Marshal(lp.Data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "")
	}

	return data, nil
}

func (lp *LocalPersistent) unmarshal(data []byte) error {
	var err error
	if len(data) == 0 {
		return nil
	}

	if lp.Config.Format == FORMAT_JSON {
		err = json.Unmarshal(data, &lp.Data)
	} else if lp.Config.Format == FORMAT_YAML {
		err = yaml.Unmarshal(data, &lp.Data)
	}

	if err != nil {
		return errors.Wrapf(err, "")
	}
	return nil
}

func (lp *LocalPersistent) dump() error {
	data, err := lp.marshal()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(lp.Config.ConfigDir, 0755); err != nil {
		return errors.Wrapf(err, "")
	}
	localFile := path.Join(lp.Config.ConfigDir, lp.Config.ConfigFile)
	_ = os.Rename(localFile, fmt.Sprintf("%s.last", localFile))
	if err = os.WriteFile(localFile, data, 0600); err != nil {
		return errors.Wrapf(err, "")
	}
	return nil
}

func (lp *LocalPersistent) load() error {
	localFile := path.Join(lp.Config.ConfigDir, lp.Config.ConfigFile)

	_, err := os.Stat(localFile)
	if err != nil {
		// file does not exist
		return nil
	}

	data, err := os.ReadFile(localFile)
	if err != nil {
		return errors.Wrapf(err, "")
	}

	return lp.unmarshal(data)
}

func NewLocalPersistent() *LocalPersistent {
	return &LocalPersistent{}
}
