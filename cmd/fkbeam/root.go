package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seisarray/fkbeam/logging"
)

var (
	configFile   string
	logLevel     string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fkbeam",
	Short: "Frequency-wavenumber array beamforming toolkit",
	Long: `fkbeam runs frequency-wavenumber (FK) beamforming analysis over
seismic array recordings: sliding-window spectral estimation, conventional
and Capon beam power over a slowness grid, statistical channel rejection
and array response evaluation.

The simulate command exercises the full pipeline on a synthetic plane
wave; the arf command evaluates the theoretical array transfer function
of a synthetic array layout.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch logLevel {
		case "debug":
			logging.GetGlobalLogger().SetLevel(logging.DebugLevel)
		case "info":
			logging.GetGlobalLogger().SetLevel(logging.InfoLevel)
		case "warn":
			logging.GetGlobalLogger().SetLevel(logging.WarnLevel)
		case "error":
			logging.GetGlobalLogger().SetLevel(logging.ErrorLevel)
		default:
			return fmt.Errorf("unknown log level %q", logLevel)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./fkbeam.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json",
		"output format (json, yaml)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("fkbeam")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FKBEAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "using config file: %s\n", viper.ConfigFileUsed())
	}
}
