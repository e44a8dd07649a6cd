package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	chanhttp "github.com/artpar/modelgate/core/channel/http"
	"github.com/artpar/modelgate/core/formatter"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the served routes",
	Long: `List every route the server would bind, with its operation and permission.

Examples:
  modelgate routes
  modelgate routes --models ./models -o json`,
	RunE: runRoutes,
}

var (
	routesOutput   string
	routesNoHeader bool
)

var routeColumns = []string{"model", "method", "path", "operation", "permission"}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVarP(&routesOutput, "output", "o", "table", "output format: "+strings.Join(formatter.List(), ", "))
	routesCmd.Flags().BoolVar(&routesNoHeader, "no-header", false, "omit the table header")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	f, ok := formatter.Get(routesOutput)
	if !ok {
		return fmt.Errorf("unknown output format %q (want one of %s)", routesOutput, strings.Join(formatter.List(), ", "))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := deriveModels(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}

	var records []map[string]any
	for _, m := range res.Models {
		for _, b := range m.Routes {
			perm := b.Permission
			if perm == "" {
				perm = "public"
			}
			records = append(records, map[string]any{
				"model":      m.Name,
				"method":     b.Verb,
				"path":       cfg.Server.BasePath + chanhttp.DocPath(m.Path, b.Path),
				"operation":  b.Op.String(),
				"permission": perm,
			})
		}
	}

	return f.FormatList(cmd.OutOrStdout(), routeColumns, records, formatter.FormatOptions{NoHeader: routesNoHeader})
}
