package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/modelgate/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the modelgate API server.

The server will:
  - Load configuration from modelgate.yaml (or --config)
  - Apply MODELGATE_* environment variables on top
  - Load every model document from the models directory
  - Create the tables and join tables
  - Serve the CRUD routes under the base path

Environment variables:
  MODELGATE_CONFIGURATION_PATH   - Model documents directory
  MODELGATE_DATABASE_DRIVER      - sqlite3, sqlite, postgres or mysql
  MODELGATE_DATABASE_DSN         - Database connection string
  MODELGATE_SERVER_PORT          - Server port (default: 1337)
  MODELGATE_JWT_SECRET           - Token signing secret
  MODELGATE_LOG_LEVEL            - Log level: debug, info, warn, error

Examples:
  modelgate serve
  modelgate serve --config /etc/modelgate/config.yaml
  modelgate serve --models ./models`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return app.Run(context.Background())
}
