package cmd

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears viper config between tests for isolation.
func resetViper() {
	viper.Reset()
	viper.SetEnvPrefix("WHISPERD")
	viper.AutomaticEnv()
	viper.Set("url", "http://localhost:5000")
}

func TestRootCommand_DefaultURL(t *testing.T) {
	resetViper()

	if url := viper.GetString("url"); url != "http://localhost:5000" {
		t.Errorf("expected default url http://localhost:5000, got: %s", url)
	}
}

func TestRootCommand_EnvVarBinding(t *testing.T) {
	viper.Reset()
	viper.SetEnvPrefix("WHISPERD")
	viper.AutomaticEnv()

	t.Setenv("WHISPERD_URL", "http://custom-url:8080")

	if url := viper.GetString("url"); url != "http://custom-url:8080" {
		t.Errorf("expected url from env var, got: %s", url)
	}
}

func TestRootCommand_ExecuteReturnsNoError(t *testing.T) {
	resetViper()

	rootCmd.SetArgs([]string{"--help"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("root command should execute without error: %v", err)
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := map[string]bool{
		"submit [file]":   false,
		"status [job-id]": false,
		"jobs":            false,
		"cancel [job-id]": false,
		"devices":         false,
		"models":          false,
		"watch":           false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Use]; ok {
			want[cmd.Use] = true
		}
	}
	for use, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered", use)
		}
	}
}

func TestExecute_ReturnsError(t *testing.T) {
	resetViper()

	rootCmd.SetArgs([]string{"unknown-command-xyz"})
	if err := Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestRootCommand_CustomConfigFile(t *testing.T) {
	resetViper()

	tmpFile, err := os.CreateTemp("", "whisperctl-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.WriteString("url: http://custom-from-config:9999\n")
	tmpFile.Close()

	cfgFile = tmpFile.Name()
	initConfig()

	if url := viper.GetString("url"); url != "http://custom-from-config:9999" {
		t.Errorf("expected url from config file, got: %s", url)
	}

	cfgFile = ""
}
