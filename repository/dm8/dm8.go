package dm8

import (
	"fmt"

	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/repository/gormstore"
	jsoniter "github.com/json-iterator/go"
	driver "github.com/wanlay/gorm-dm8"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type DM8Persistent struct {
	gormstore.Store
	Config DM8Config
}

func (mp *DM8Persistent) Init(config interface{}) error {
	if config == nil {
		config = DM8Config{}
	}
	mp.Config = config.(DM8Config)
	mp.Config.Normalize()
	format := "dm://%s:%s@%s:%d?autoCommit=true"
	if mp.Config.Schema != "" {
		format += "&schema=" + mp.Config.Schema
	}
	dsn := fmt.Sprintf(format, mp.Config.User, mp.Config.Password, mp.Config.Host, mp.Config.Port)

	log.Logger.Debugf("DM8 dsn:%s", fmt.Sprintf(format, mp.Config.User, "******", mp.Config.Host, mp.Config.Port))
	db, err := gormstore.Open(driver.Open(dsn), mp.Config.Pool(), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return err
	}
	mp.Attach(db)

	//auto create table
	return mp.Migrate(db)
}

func (mp *DM8Persistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config DM8Config
	data, err := json.Marshal(configMap)
	if err != nil {
		log.Logger.Errorf("marshal DM8 configMap failed:%v", err)
		return nil
	}
	if err = json.Unmarshal(data, &config); err != nil {
		log.Logger.Errorf("unmarshal DM8 config failed:%v", err)
		return nil
	}
	return config
}

func NewDM8Persistent() *DM8Persistent {
	return &DM8Persistent{}
}
