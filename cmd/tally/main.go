// cmd/tally/main.go
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/vmix-tally/internal/config"
)

var (
	configPath string

	fakeListen   string
	fakeInputs   int
	fakeInterval string

	mainCmd = &cobra.Command{
		Use:           "tally",
		Short:         "vMix tally light",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the tally light",
		RunE:  runTally,
	}
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check a config file and exit",
		RunE:  runValidate,
	}
	fakeCmd = &cobra.Command{
		Use:   "fake-vmix",
		Short: "Serve fake vMix tally reports for bench testing",
		RunE:  runFakeVmix,
	}
)

func main() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml); built-in defaults when empty")
	validateCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file to check")
	_ = validateCmd.MarkFlagRequired("config")

	fakeCmd.Flags().StringVar(&fakeListen, "listen", ":8099", "listen address")
	fakeCmd.Flags().IntVar(&fakeInputs, "inputs", 3, "number of vMix inputs")
	fakeCmd.Flags().StringVar(&fakeInterval, "interval", "1s", "time between tally reports")

	mainCmd.AddCommand(runCmd, validateCmd, fakeCmd)

	if err := mainCmd.Execute(); err != nil {
		log.Errorln(err)
		os.Exit(1)
	}
}

// loadConfig runs Load -> Validate -> Normalize.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func setupLogging(l config.LogConfig) error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if l.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(configPath); err != nil {
		return err
	}
	log.WithField("config", configPath).Infoln("config ok")
	return nil
}
