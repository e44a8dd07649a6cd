package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artpar/modelgate/bootstrap"
	"github.com/artpar/modelgate/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the model documents",
	Long: `Validate the configuration and every model document.

Checks:
  - Config file syntax and values
  - Model document syntax and required fields
  - Relations resolve to a declared model
  - Custom routes bind to a known operation and verb

With --watch the documents are validated again on every change.

Examples:
  modelgate validate
  modelgate validate --models ./models --watch`,
	RunE: runValidate,
}

var validateWatch bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "validate again when a model document changes")
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
	warnMark  = "\033[33m!\033[0m"
)

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s Config valid\n", crossMark)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s Config valid\n", checkMark)

	err = validateModels(cmd.OutOrStdout(), cfg)
	if !validateWatch {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cliLogger(cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes...\n", cfg.Models.Dir)
	return config.Watch(ctx, cfg.Models.Dir, logger, func(path string) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s changed\n", path)
		if err := validateModels(cmd.OutOrStdout(), cfg); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %v\n", crossMark, err)
		}
	})
}

// validateModels derives every model and reports what would not be served.
func validateModels(w io.Writer, cfg *config.Config) error {
	res, err := deriveModels(cfg, cliLogger(cfg))
	if err != nil {
		fmt.Fprintf(w, "  %s Model documents valid\n", crossMark)
		return err
	}
	fmt.Fprintf(w, "  %s Model documents valid\n", checkMark)
	return report(w, res)
}

func report(w io.Writer, res *bootstrap.Result) error {
	for _, m := range res.Models {
		fmt.Fprintf(w, "  %s %s (%s, %d routes)\n", checkMark, m.Name, m.Path, len(m.Routes))
	}

	names := make([]string, 0, len(res.Failed))
	for name := range res.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s %s: %v\n", crossMark, name, res.Failed[name])
	}

	for _, u := range res.Unresolved {
		fmt.Fprintf(w, "  %s relation %s\n", warnMark, u)
	}

	if len(res.Failed) > 0 {
		return fmt.Errorf("%d model(s) cannot be served", len(res.Failed))
	}
	return nil
}
