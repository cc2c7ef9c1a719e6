// Package commands wires the sypherd CLI: node lifecycle, data directory
// initialization and key management.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dataDir         string
	dbBackend       string
	rpcAddress      string
	nodeAddress     string
	peerAddrs       []string
	difficulty      int
	resolveInterval time.Duration
	password        string
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "sypherd",
	Short: "SypherLang ledger node",
	Long: `sypherd runs a SypherLang replicated-ledger node: it accepts
transactions, mines blocks under proof-of-work and reconciles its chain
with registered peers.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Data directory")
	RootCmd.PersistentFlags().StringVar(&dbBackend, "db", "pebble", "Database backend (memory, leveldb, pebble)")
	RootCmd.PersistentFlags().StringVar(&rpcAddress, "rpc", "0.0.0.0:7545", "RPC listen address")
	RootCmd.PersistentFlags().StringVar(&nodeAddress, "address", "", "Node address credited with mining rewards (defaults to the keystore address)")
	RootCmd.PersistentFlags().StringSliceVar(&peerAddrs, "peers", nil, "Peer addresses (host:port) to register at startup")
	RootCmd.PersistentFlags().IntVar(&difficulty, "difficulty", 4, "Proof-of-work difficulty in leading zero hex nibbles")
	RootCmd.PersistentFlags().DurationVar(&resolveInterval, "resolve-interval", 30*time.Second, "How often to reconcile with peers (0 disables)")
	RootCmd.PersistentFlags().StringVar(&password, "password", "", "Keystore password")

	viper.BindPFlag("data-dir", RootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("db", RootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("rpc", RootCmd.PersistentFlags().Lookup("rpc"))
	viper.BindPFlag("address", RootCmd.PersistentFlags().Lookup("address"))
	viper.BindPFlag("peers", RootCmd.PersistentFlags().Lookup("peers"))
	viper.BindPFlag("difficulty", RootCmd.PersistentFlags().Lookup("difficulty"))
	viper.BindPFlag("resolve-interval", RootCmd.PersistentFlags().Lookup("resolve-interval"))

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(keyCmd)
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.sypherd"
	}
	return filepath.Join(homeDir, ".sypherd")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dataDir)
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("sypherd")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Info("using config file", "path", viper.ConfigFileUsed())
	}
}

func keystoreDir() string {
	return filepath.Join(viper.GetString("data-dir"), "keystore")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sypherd v0.2.0")
	},
}
