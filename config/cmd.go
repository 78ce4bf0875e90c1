package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version        = ""
	BuildTimeStamp = ""
	GitCommitHash  = ""
	Daemon         = false
	ConfigFilePath = ""
	LogFilePath    = ""
	PidFilePath    = ""
	EncryptValue   = ""
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Long:  "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("version: %v\n", Version)
		fmt.Printf("utc build time: %v\n", BuildTimeStamp)
		fmt.Printf("git commit hash: %v\n", GitCommitHash)
		os.Exit(0)
	},
}

// InitCmd parses the command line into the package level flag variables.
// It returns false when the process should exit after cobra handled the command.
func InitCmd() bool {
	run := false
	var rootCmd = &cobra.Command{
		Use:   "dbroute",
		Short: "dbroute executes named query routes against remote databases",
		Run: func(cmd *cobra.Command, args []string) {
			run = true
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ConfigFilePath, "conf", "c", "conf/dbroute.hjson", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&LogFilePath, "log", "l", "logs/dbroute.log", "Log file path")
	rootCmd.PersistentFlags().StringVarP(&PidFilePath, "pid", "p", "run/dbroute.pid", "Pid file path")
	rootCmd.PersistentFlags().StringVarP(&EncryptValue, "encrypt", "e", "", "encrypt a connection password with the vault key and exit")
	rootCmd.PersistentFlags().BoolVarP(&Daemon, "daemon", "d", false, "Run as daemon")
	rootCmd.AddCommand(VersionCmd)

	if err := rootCmd.Execute(); err != nil {
		return false
	}
	return run
}
