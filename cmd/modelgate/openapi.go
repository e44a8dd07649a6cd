package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/modelgate/core/openapi"
)

var openapiCompact bool

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI document",
	Long: `Print the OpenAPI 3 document generated from the model documents.

Examples:
  modelgate openapi > openapi.json
  modelgate openapi --compact`,
	RunE: runOpenAPI,
}

func init() {
	rootCmd.AddCommand(openapiCmd)

	openapiCmd.Flags().BoolVar(&openapiCompact, "compact", false, "print without indentation")
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := deriveModels(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}

	gen := openapi.NewGenerator()
	gen.SetInfo(openapi.Info{Title: cfg.OpenAPI.Title, Version: cfg.OpenAPI.Version})
	gen.SetBasePath(cfg.Server.BasePath)
	spec := gen.Generate(res.Models)

	var data []byte
	if openapiCompact {
		data, err = spec.ToJSONCompact()
	} else {
		data, err = spec.ToJSON()
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
