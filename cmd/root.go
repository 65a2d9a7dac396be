package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/kotowari/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "kotowari",
	Short: "Practice saying no, with an AI coach",
	Long: "Kotowari: a terminal coach for practising polite refusals in Japanese.\n\n" +
		"An AI plays someone inviting you somewhere; you decline. Per-element\n" +
		"training focuses on one of six skills and gives a pass/fail verdict.\n" +
		"Pass all six to unlock combined practice.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Database path (sqlite) or DSN (postgres); overrides KOTOWARI_DB")
	pf.StringP("user", "u", "", "User ID; overrides KOTOWARI_USER")
	pf.String("backend", "", "Where progress and chat logs live: sql or file; overrides KOTOWARI_BACKEND")
	pf.String("data-dir", "", "Data directory; overrides KOTOWARI_DATA_DIR")
	pf.String("env-file", ".env", "Environment file to load if present")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(elementsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the env file, reads KOTOWARI_* settings and applies
// flag overrides. Flags win over the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DSN = v
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.User = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// userFromFlag reports whether --user was given explicitly.
func userFromFlag(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("user")
}
