package main

import (
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// The environment variables that provide defaults for the flags.
const (
	envMaxCycles   = "K10_MAX_CYCLES"
	envArbitration = "K10_ARBITRATION"
	envTraceDB     = "K10_TRACE_DB"
	envMonitorPort = "K10_MONITOR_PORT"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "k10fabric",
	Short: "k10fabric runs the K10 SoC interconnect fabric model.",
	Long: `k10fabric runs the K10 SoC interconnect fabric model. ` +
		`It can run the bus self-test or random traffic through the ` +
		`crossbar, and check a system description before a run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadDotEnv(".env")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadDotEnv loads the variables in the file into the environment. A missing
// file is not an error. Variables already set are kept.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return errors.Wrapf(err, "loading %s", path)
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return def
}

func envUint(key string, def uint64) (uint64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}

	n, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		return def, errors.Wrapf(err, "parsing %s", key)
	}

	return n, nil
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def, errors.Wrapf(err, "parsing %s", key)
	}

	return n, nil
}
