package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fentz26/roster/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster - housekeeping task assignment",
	Long:  `Roster assigns hotel housekeeping tasks to housekeepers, orders each housekeeper's work, and submits the schedule to the backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		return setupLogging(cfg)
	},
	SilenceUsage: true,
}

var (
	cfg         *config.Config
	configPath  string
	gatewayMode string
	apiAddr     string
	debug       bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.roster/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gatewayMode, "gateway", "", "Gateway mode: mock or http")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "Backend address for the http gateway")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(housekeepersCmd)
}

// loadConfig layers the config file, the environment, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if configPath != "" {
		c, err = config.LoadConfig(configPath)
	} else {
		c, err = config.LoadConfigFromHome()
	}
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("gateway") {
		c.Gateway.Mode = gatewayMode
	}
	if flags.Changed("api") {
		c.Gateway.APIAddr = apiAddr
	}
	if debug {
		c.LogLevel = "debug"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func setupLogging(c *config.Config) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
