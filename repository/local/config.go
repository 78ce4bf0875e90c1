package local

import (
	"path"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
)

type LocalConfig struct {
	Format          string `yaml:"format" json:"format"`
	ConfigDir       string `yaml:"config_dir" json:"config_dir"`
	ConfigFile      string `yaml:"config_file" json:"config_file"`
	HistoryCapacity int    `yaml:"history_capacity" json:"history_capacity"`
}

var FormatFileSuffix = map[string]string{
	FORMAT_JSON: "json",
	FORMAT_YAML: "yaml",
}

func (config *LocalConfig) Normalize() {
	config.Format = common.GetStringwithDefault(config.Format, FORMAT_JSON)
	if _, ok := FormatFileSuffix[config.Format]; !ok {
		config.Format = FORMAT_JSON
	}
	config.ConfigDir = common.GetStringwithDefault(config.ConfigDir, defaultDir())
	config.ConfigFile = common.GetStringwithDefault(config.ConfigFile, LocalStoreFile)
	if suffix := "." + FormatFileSuffix[config.Format]; !strings.HasSuffix(config.ConfigFile, suffix) {
		config.ConfigFile += suffix
	}
	config.HistoryCapacity = common.GetIntegerwithDefault(config.HistoryCapacity, LOCAL_HISTORY_CAPACITY)
}

func defaultDir() string {
	return path.Join(config.GetWorkDirectory(), LocalStoreDir)
}
