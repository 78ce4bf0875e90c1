package mysql

import (
	"fmt"

	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/repository/gormstore"
	jsoniter "github.com/json-iterator/go"
	driver "gorm.io/driver/mysql"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type MysqlPersistent struct {
	gormstore.Store
	Config MysqlConfig
}

func (mp *MysqlPersistent) Init(config interface{}) error {
	if config == nil {
		config = MysqlConfig{}
	}
	mp.Config = config.(MysqlConfig)
	mp.Config.Normalize()
	format := "%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf(format, mp.Config.User, mp.Config.Password, mp.Config.Host, mp.Config.Port, mp.Config.DataBase)

	log.Logger.Debugf("mysql dsn:%s", fmt.Sprintf(format, mp.Config.User, "******", mp.Config.Host, mp.Config.Port, mp.Config.DataBase))
	db, err := gormstore.Open(driver.Open(dsn), mp.Config.Pool(), nil)
	if err != nil {
		return err
	}
	mp.Attach(db)

	//auto create table
	return mp.Migrate(db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"))
}

func (mp *MysqlPersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config MysqlConfig
	data, err := json.Marshal(configMap)
	if err != nil {
		log.Logger.Errorf("marshal mysql configMap failed:%v", err)
		return nil
	}
	if err = json.Unmarshal(data, &config); err != nil {
		log.Logger.Errorf("unmarshal mysql config failed:%v", err)
		return nil
	}
	return config
}

func NewMysqlPersistent() *MysqlPersistent {
	return &MysqlPersistent{}
}
