package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/database"
	_ "github.com/dbroute/dbroute/database/mysql"
	_ "github.com/dbroute/dbroute/database/oracle"
	_ "github.com/dbroute/dbroute/database/postgres"
	_ "github.com/dbroute/dbroute/database/sqlserver"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/repository"
	_ "github.com/dbroute/dbroute/repository/dm8"
	_ "github.com/dbroute/dbroute/repository/local"
	_ "github.com/dbroute/dbroute/repository/mysql"
	_ "github.com/dbroute/dbroute/repository/postgres"
	"github.com/dbroute/dbroute/router"
	"github.com/dbroute/dbroute/server"
	"github.com/dbroute/dbroute/service/cron"
	"github.com/dbroute/dbroute/service/metrics"
	"github.com/dbroute/dbroute/service/route"
	"github.com/dbroute/dbroute/service/scheduler"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/sevlyar/go-daemon.v0"
)

const (
	MARK_NAME  = "_GO_DBROUTE_RELOAD"
	MARK_VALUE = "1"

	HISTORY_QUEUE_SIZE = 1024
)

// @title DBROUTE API
// @version 1.0
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name token
// @BasePath /
func main() {
	if !config.InitCmd() {
		return
	}
	if err := config.ParseConfigFile(config.ConfigFilePath, config.Version); err != nil {
		fmt.Printf("Parse config file %s fail: %v\n", config.ConfigFilePath, err)
		os.Exit(1)
	}

	vault, err := common.NewVault(config.GlobalConfig.Vault.Key)
	if err != nil {
		fmt.Printf("vault key missing, set vault.key or %s: %v\n", config.ENV_VAULT_KEY, err)
		os.Exit(1)
	}
	if config.EncryptValue != "" {
		token, err := vault.Encrypt(config.EncryptValue)
		if err != nil {
			fmt.Printf("encrypt fail: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		os.Exit(0)
	}

	//dump config to log must ensure the secrets not be decoded
	conf := config.GlobalConfig
	if err = vault.DecryptConfig(&config.GlobalConfig.Server); err != nil {
		fmt.Printf("decrypt config file %s fail: %v\n", config.ConfigFilePath, err)
		os.Exit(1)
	}
	log.InitLogger(config.LogFilePath, &config.GlobalConfig.Log)

	cntxt := &daemon.Context{
		PidFileName: config.PidFilePath,
		PidFilePerm: 0644,
		LogFilePerm: 0640,
		WorkDir:     "./",
		Umask:       027,
	}

	if config.Daemon && os.Getenv(MARK_NAME) != MARK_VALUE {
		d, err := cntxt.Reborn()
		if err != nil {
			log.Logger.Fatal(err)
		}
		if d != nil {
			return
		}
		defer cntxt.Release()
	}

	log.Logger.Info("dbroute starting...")
	log.Logger.Infof("version: %v", config.Version)
	log.Logger.Infof("build time: %v", config.BuildTimeStamp)
	log.Logger.Infof("git commit hash: %v", config.GitCommitHash)
	DumpConfig(conf)
	metrics.RegisterBuildInfo(config.Version, config.GitCommitHash, config.BuildTimeStamp)
	signalCh := make(chan os.Signal, 1)

	if err = repository.InitPersistent(vault); err != nil {
		log.Logger.Fatalf("init persistent failed:%v", err)
	}
	common.LoadUsers(path.Join(config.GetWorkDirectory(), "conf"))

	execConf := config.GlobalConfig.Executor
	opener := database.NewSQLOpener(time.Duration(execConf.ConnectTimeout) * time.Second)
	history := route.NewHistoryWriter(repository.Ps, HISTORY_QUEUE_SIZE)
	history.Start()
	defer history.Stop()
	executor := route.NewExecutor(vault, opener,
		route.WithMaxWorkers(execConf.MaxWorkers),
		route.WithQueryTimeout(time.Duration(execConf.QueryTimeout)*time.Second),
		route.WithRecorder(history))

	services := &router.Services{
		Vault:    vault,
		Opener:   opener,
		Executor: executor,
	}
	var reloader cron.Reloader
	if config.GlobalConfig.Scheduler.Enabled {
		schedConf := config.GlobalConfig.Scheduler
		sched := scheduler.NewScheduler(repository.Ps, vault, opener,
			time.Duration(schedConf.Tick)*time.Second, schedConf.Workers,
			time.Duration(execConf.QueryTimeout)*time.Second)
		if err = sched.Start(); err != nil {
			log.Logger.Fatalf("start scheduler fail: %v", err)
		}
		defer sched.Stop()
		services.Scheduler = sched
		reloader = sched
	}

	// start http server
	svr := server.NewApiServer(&config.GlobalConfig, services)
	if err := svr.Start(); err != nil {
		log.Logger.Fatalf("start http server fail: %v", err)
	}
	defer svr.Stop()

	if config.GlobalConfig.Cron.Enabled {
		cronSvr := cron.NewCronService(config.GlobalConfig.Cron, reloader, repository.Ps)
		if err = cronSvr.Start(); err != nil {
			log.Logger.Fatalf("Failed to start cron service, %v", err)
		}
		defer cronSvr.Stop()
	}
	//block here, waiting for terminal signal
	handleSignal(signalCh)
}

func handleSignal(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	sig := <-ch
	log.Logger.Infof("receive signal: %v", sig)
	log.Logger.Warn("dbroute exiting...")
	if sig == syscall.SIGHUP {
		if err := reloadHandler(); err != nil {
			log.Logger.Errorf("restart dbroute fail: %v", err)
		}
	}
	signal.Stop(ch)
}

// reloadHandler starts a fresh process that skips daemonizing again.
func reloadHandler() error {
	env := os.Environ()
	mark := fmt.Sprintf("%s=%s", MARK_NAME, MARK_VALUE)
	env = append(env, mark)

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = env
	return cmd.Start()
}

func DumpConfig(conf config.DBRouteConfig) {
	conf.Vault.Key = "******"
	conf.Server.SigningKey = "******"
	conf.PersistentConfig = nil
	data, err := jsoniter.MarshalIndent(conf, "", "  ")
	if err != nil {
		log.Logger.Errorf("marshal error: %v", err)
		return
	}
	log.Logger.Infof("%v", string(data))
}
