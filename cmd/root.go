package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asipanicisco/meraki-migration/internal/config"
	"github.com/asipanicisco/meraki-migration/internal/meraki"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "meraki-migration",
	Short: "Snapshot and restore Meraki switch network configuration",
	Long: `meraki-migration captures the full configuration of a Meraki network —
network-level switch settings plus per-device routing, DHCP, and port
configuration — into a portable snapshot file, and replays that snapshot
onto another network, remapping device serials and server-assigned IDs
along the way.

A typical migration is: capture, claim the replacement hardware on the
target network, then restore with an old→new serial mapping.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: migration.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("migration")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// newLogger builds the run logger. The flag wins over the config file.
func newLogger(cfg *config.Config) hclog.Logger {
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  "migration",
		Level: hclog.LevelFromString(level),
	})
}

// newClient builds a Dashboard API client for one tenant.
func newClient(cfg *config.Config, apiKey string, logger hclog.Logger) *meraki.Client {
	client := meraki.New(apiKey)
	client.Logger = logger.Named("api")
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	return client
}
