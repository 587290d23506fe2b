package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "whisperctl",
	Short: "whisperctl is a command line tool for interacting with a whisperd daemon",
	Long: `whisperctl is the command-line interface for whisperd, the GPU-aware
transcription job scheduler.

Common workflows:

  Submit a transcription job:
    whisperctl submit /data/uploads/interview.wav --model base --language en

  Check a job:
    whisperctl status <job-id>

  List all known jobs:
    whisperctl jobs

  Cancel a job:
    whisperctl cancel <job-id>

  Inspect devices and models:
    whisperctl devices
    whisperctl models

  Follow the live event stream:
    whisperctl watch

Configuration:
  Set the daemon endpoint via flag, environment, or config file:
    WHISPERD_URL    daemon endpoint (default: http://localhost:5000)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".whisperctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".whisperctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "WHISPERD_VARNAME"
	viper.SetEnvPrefix("WHISPERD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.whisperctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:5000", "whisperd daemon URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
