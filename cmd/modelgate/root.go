package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/modelgate/adapters/auth"
	"github.com/artpar/modelgate/bootstrap"
	"github.com/artpar/modelgate/config"
	"github.com/artpar/modelgate/core/schema"
)

const defaultConfigFile = "modelgate.yaml"

var (
	// Global flags
	cfgFile   string
	modelsDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modelgate",
	Short: "CRUD API generated from model documents",
	Long: `modelgate reads model documents (YAML or JSON), derives a table for each
model, wires the declared relations and serves a REST API for them.

Quick start:
  modelgate serve      # Start the API server
  modelgate validate   # Check the model documents
  modelgate routes     # List the served routes
  modelgate openapi    # Print the OpenAPI document`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVarP(&modelsDir, "models", "m", "", "model documents directory (overrides config)")
}

// loadConfig loads the config file. A missing default config file falls back
// to defaults and MODELGATE_* environment variables.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if modelsDir != "" {
		cfg.Models.Dir = modelsDir
	}
	return cfg, nil
}

// deriveModels runs the pipeline without a database, for the commands that
// only inspect the configuration.
func deriveModels(cfg *config.Config, logger zerolog.Logger) (*bootstrap.Result, error) {
	docs, err := schema.LoadDir(cfg.Models.Dir, cfg.Models.DefaultDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.Derive(context.Background(), docs, bootstrap.PipelineOptions{
		Verifier: auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Logger:   logger,
	})
}

// cliLogger logs warnings and errors to stderr.
func cliLogger(cfg *config.Config) zerolog.Logger {
	lc := cfg.Logging
	lc.Format = "console"
	if lc.Level != "debug" {
		lc.Level = "warn"
	}
	return bootstrap.NewLogger(lc, os.Stderr)
}
