package migrate

import (
	"fmt"
	"io"
	"os"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	_ "github.com/dbroute/dbroute/repository/dm8"
	_ "github.com/dbroute/dbroute/repository/local"
	_ "github.com/dbroute/dbroute/repository/mysql"
	_ "github.com/dbroute/dbroute/repository/postgres"
	"github.com/hjson/hjson-go/v4"
	"github.com/pkg/errors"
)

type PersistentConfig struct {
	Policy string
	Config map[string]interface{}
}

type MigrateConfig struct {
	Source string
	Target string
	// vault key for ENC(...) values, DBROUTE_VAULT_KEY is used when empty
	VaultKey string                      `json:"vault_key"`
	PsConf   map[string]PersistentConfig `json:"persistent_config"`
}

type Summary struct {
	Connections int
	Routes      int
	Jobs        int
	Logs        int
}

func ParseConfig(conf string) (MigrateConfig, error) {
	var config MigrateConfig
	f, err := os.Open(conf)
	if err != nil {
		return MigrateConfig{}, errors.Wrap(err, "")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return MigrateConfig{}, errors.Wrap(err, "")
	}
	if len(data) == 0 {
		return MigrateConfig{}, errors.New("empty config file")
	}
	err = hjson.Unmarshal(data, &config)
	if err != nil {
		return MigrateConfig{}, errors.Wrap(err, "")
	}
	return config, nil
}

func PersistentCheck(config MigrateConfig, typo string, vault *common.Vault) (repository.PersistentMgr, error) {
	conf, ok := config.PsConf[typo]
	if !ok {
		return nil, errors.Errorf("empty persistent config %s", typo)
	}
	ps := repository.GetPersistentByName(conf.Policy)
	if ps == nil {
		return nil, errors.Errorf("invalid persistent policy: %s", conf.Policy)
	}
	if vault != nil {
		if err := repository.DecryptConfigMap(vault, conf.Config); err != nil {
			return nil, err
		}
	}
	pcfg := ps.UnmarshalConfig(conf.Config)
	if err := ps.Init(pcfg); err != nil {
		return nil, errors.Errorf("init persistent failed: %v", err)
	}
	return ps, nil
}

// Migrate copies the whole control plane from psrc into pdst inside one
// transaction. Execution logs keep the newest entries of every route.
func Migrate(psrc, pdst repository.PersistentMgr) (Summary, error) {
	var summary Summary
	conns, err := psrc.GetAllConnections()
	if err != nil {
		return summary, err
	}
	routes, err := psrc.GetAllRoutes()
	if err != nil {
		return summary, err
	}
	jobs, err := psrc.GetAllJobs()
	if err != nil {
		return summary, err
	}
	var logs []model.ExecutionLog
	for _, route := range routes {
		entries, err := psrc.GetExecutionLogs(route.Slug, repository.DefaultHistoryLimit*10)
		if err != nil {
			return summary, err
		}
		logs = append(logs, entries...)
	}

	if len(conns) == 0 && len(routes) == 0 {
		log.Logger.Warnf("connections and routes have 0 records, will migrate nothing")
	}

	err = pdst.Transaction(func(tx repository.Repository) error {
		for _, conn := range conns {
			conn := conn
			if err := tx.CreateConnection(&conn); err != nil {
				return errors.Wrapf(err, "connection %s", conn.Slug)
			}
			summary.Connections++
		}
		for _, route := range routes {
			route := route
			if err := tx.CreateRoute(&route); err != nil {
				return errors.Wrapf(err, "route %s", route.Slug)
			}
			summary.Routes++
		}
		for _, job := range jobs {
			job := job
			if err := tx.CreateJob(&job); err != nil {
				return errors.Wrapf(err, "job %s", job.Name)
			}
			summary.Jobs++
		}
		for _, entry := range logs {
			if err := tx.CreateExecutionLog(entry); err != nil {
				return errors.Wrapf(err, "execution log %s", entry.ID)
			}
			summary.Logs++
		}
		return nil
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "")
	}
	return summary, nil
}

func MigrateHandle(conf string) {
	mconf, err := ParseConfig(conf)
	if err != nil {
		fmt.Printf("parse config file %s failed: %v\n", conf, err)
		return
	}
	var vault *common.Vault
	if key := common.GetStringwithDefault(mconf.VaultKey, os.Getenv(config.ENV_VAULT_KEY)); key != "" {
		if vault, err = common.NewVault(key); err != nil {
			fmt.Printf("invalid vault key: %v\n", err)
			return
		}
	}
	psrc, err := PersistentCheck(mconf, mconf.Source, vault)
	if err != nil {
		fmt.Printf("source [%s] err: %v\n", mconf.Source, err)
		return
	}
	pdst, err := PersistentCheck(mconf, mconf.Target, vault)
	if err != nil {
		fmt.Printf("target [%s] err: %v\n", mconf.Target, err)
		return
	}

	summary, err := Migrate(psrc, pdst)
	if err != nil {
		fmt.Printf("migrate failed: %v\n", err)
		return
	}
	fmt.Printf("From [%s] migrate to [%s] success! connections: %d, routes: %d, jobs: %d, logs: %d\n",
		mconf.Source, mconf.Target, summary.Connections, summary.Routes, summary.Jobs, summary.Logs)
}
