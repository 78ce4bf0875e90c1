package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var GlobalConfig DBRouteConfig

const (
	FORMAT_JSON  string = ".json"
	FORMAT_HJSON string = ".hjson"
	FORMAT_YAML  string = ".yaml"
	FORMAT_YML   string = ".yml"

	ENV_VAULT_KEY string = "DBROUTE_VAULT_KEY"
	ENV_HOST_IP   string = "HOST_IP"
)

type DBRouteConfig struct {
	ConfigFile       string `yaml:"-" json:"-"`
	Server           DBRouteServerConfig
	Log              DBRouteLogConfig
	Vault            VaultConfig
	Executor         ExecutorConfig
	Scheduler        SchedulerConfig
	Cron             CronJob
	PersistentConfig map[string]map[string]interface{} `yaml:"persistent_config" json:"persistent_config"`
	Version          string                            `yaml:"-" json:"-"`
}

type DBRouteServerConfig struct {
	Ip               string
	Port             int
	Https            bool
	CertFile         string `yaml:"certfile"`
	KeyFile          string `yaml:"keyfile"`
	Pprof            bool
	SessionTimeout   int    `yaml:"session_timeout" json:"session_timeout"`
	PersistentPolicy string `yaml:"persistent_policy" json:"persistent_policy"`
	ExposeErrors     bool   `yaml:"expose_errors" json:"expose_errors"`

	// requests per second per client ip, 0 disables limiting
	RateLimit  int    `yaml:"rate_limit" json:"rate_limit"`
	RateBurst  int    `yaml:"rate_burst" json:"rate_burst"`
	SigningKey string `yaml:"signing_key" json:"signing_key"`
}

type DBRouteLogConfig struct {
	Level    string
	MaxCount int `yaml:"max_count" json:"max_count"`
	MaxSize  int `yaml:"max_size" json:"max_size"`
	MaxAge   int `yaml:"max_age" json:"max_age"`
}

type VaultConfig struct {
	Key string `yaml:"key" json:"key"`
}

type ExecutorConfig struct {
	MaxWorkers     int `yaml:"max_workers" json:"max_workers"`
	ConnectTimeout int `yaml:"connect_timeout" json:"connect_timeout"`
	QueryTimeout   int `yaml:"query_timeout" json:"query_timeout"`
}

type SchedulerConfig struct {
	Enabled bool
	// seconds between heap checks when no job is due sooner
	Tick    int `yaml:"tick" json:"tick"`
	Workers int `yaml:"workers" json:"workers"`
}

type CronJob struct {
	Enabled          bool
	ReloadJobs       string `yaml:"reload_jobs" json:"reload_jobs"`
	PurgeHistory     string `yaml:"purge_history" json:"purge_history"`
	HistoryRetention int    `yaml:"history_retention" json:"history_retention"`
}

func fillDefault(c *DBRouteConfig) {
	c.Server.Port = 8809
	c.Server.SessionTimeout = 3600
	c.Server.Pprof = false
	c.Server.PersistentPolicy = "local"
	c.Server.ExposeErrors = true
	c.Server.RateLimit = 0
	c.Server.RateBurst = 20
	c.Server.SigningKey = "change me"
	c.Log.Level = "INFO"
	c.Log.MaxCount = 5
	c.Log.MaxSize = 10
	c.Log.MaxAge = 10
	c.Server.CertFile = path.Join(GetWorkDirectory(), "conf", "server.crt")
	c.Server.KeyFile = path.Join(GetWorkDirectory(), "conf", "server.key")
	c.Executor.MaxWorkers = 16
	c.Executor.ConnectTimeout = 10
	c.Executor.QueryTimeout = 300
	c.Scheduler.Enabled = true
	c.Scheduler.Tick = 30
	c.Scheduler.Workers = 4
	c.Cron.Enabled = true
	c.Cron.HistoryRetention = 30
}

func MergeEnv() {
	if v := os.Getenv(ENV_VAULT_KEY); v != "" {
		GlobalConfig.Vault.Key = v
	}
	if v := os.Getenv(ENV_HOST_IP); v != "" {
		GlobalConfig.Server.Ip = v
	}
}

func ParseConfigFile(p, version string) error {
	f, err := os.Open(p)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "")
	}

	GlobalConfig.ConfigFile = p
	GlobalConfig.Version = version

	fillDefault(&GlobalConfig)
	if err = Unmarshal(path.Ext(p), data, &GlobalConfig); err != nil {
		return err
	}
	MergeEnv()
	return nil
}

func Unmarshal(format string, data []byte, conf *DBRouteConfig) error {
	var err error
	switch format {
	case FORMAT_JSON, FORMAT_HJSON:
		err = hjson.Unmarshal(data, conf)
	case FORMAT_YAML, FORMAT_YML:
		err = yaml.Unmarshal(data, conf)
	default:
		return fmt.Errorf("config format %s unsupported yet", format)
	}
	return errors.Wrap(err, "")
}

func GetWorkDirectory() string {
	dir, err := filepath.Abs(filepath.Dir(GlobalConfig.ConfigFile))
	if err != nil {
		return ""
	}

	return strings.Replace(filepath.Dir(dir), "\\", "/", -1)
}
