package postgres

import (
	"fmt"

	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/repository/gormstore"
	jsoniter "github.com/json-iterator/go"
	driver "gorm.io/driver/postgres"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type PostgresPersistent struct {
	gormstore.Store
	Config PostgresConfig
}

func (mp *PostgresPersistent) Init(config interface{}) error {
	if config == nil {
		config = PostgresConfig{}
	}
	mp.Config = config.(PostgresConfig)
	mp.Config.Normalize()
	format := "host=%s port=%d user=%s dbname=%s password=%s sslmode=%s"
	dsn := fmt.Sprintf(format, mp.Config.Host, mp.Config.Port, mp.Config.User, mp.Config.DataBase, mp.Config.Password, mp.Config.SslMode)

	log.Logger.Debugf("postgres dsn:%s", fmt.Sprintf(format, mp.Config.Host, mp.Config.Port, mp.Config.User, mp.Config.DataBase, "******", mp.Config.SslMode))
	db, err := gormstore.Open(driver.Open(dsn), mp.Config.Pool(), nil)
	if err != nil {
		return err
	}
	mp.Attach(db)

	//auto create table
	return mp.Migrate(db)
}

func (mp *PostgresPersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config PostgresConfig
	data, err := json.Marshal(configMap)
	if err != nil {
		log.Logger.Errorf("marshal postgres configMap failed:%v", err)
		return nil
	}
	if err = json.Unmarshal(data, &config); err != nil {
		log.Logger.Errorf("unmarshal postgres config failed:%v", err)
		return nil
	}
	return config
}

func NewPostgresPersistent() *PostgresPersistent {
	return &PostgresPersistent{}
}
