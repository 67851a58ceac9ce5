// Command spec-manager manages OpenAPI documents stored in PostgreSQL, which
// pangolin-mcp can serve with --openapi-name.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ubermorgenland/pangolin-mcp/pkg/database"
	"github.com/ubermorgenland/pangolin-mcp/pkg/models"
	"github.com/ubermorgenland/pangolin-mcp/pkg/repository"
	"github.com/ubermorgenland/pangolin-mcp/pkg/server"
	"github.com/ubermorgenland/pangolin-mcp/pkg/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type app struct {
	databaseURL string
	logLevel    string
	close       func() error
	store       *services.SpecStoreService
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "spec-manager",
		Short:         "Manage OpenAPI documents stored in the database",
		Long:          "spec-manager imports, lists, activates and deletes OpenAPI documents in the openapi_specs table.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.databaseURL, "database-url", os.Getenv(server.EnvDatabaseURL), "PostgreSQL connection string (env DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		a.listCmd(),
		a.importCmd(),
		a.seedCmd(),
		a.toggleCmd("activate", "Activate a stored spec", true),
		a.toggleCmd("deactivate", "Deactivate a stored spec", false),
		a.deleteCmd(),
	)
	return cmd
}

func (a *app) open(ctx context.Context) error {
	logger, err := server.NewLogger(a.logLevel, "console")
	if err != nil {
		return err
	}
	if a.databaseURL == "" {
		return server.NewError(server.ErrorTypeValidation, "DATABASE_URL is required", "set --database-url or DATABASE_URL")
	}
	db, err := database.Open(ctx, a.databaseURL, logger)
	if err != nil {
		return server.Wrap(err, server.ErrorTypeDatabase, "failed to initialize database")
	}
	a.close = db.Close
	a.store = services.NewSpecStoreService(repository.NewOpenAPISpecRepository(db), logger)
	return nil
}

func (a *app) listCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored specs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := a.store.List(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			printSpecs(cmd.OutOrStdout(), specs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active specs")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file|dir>",
		Short: "Import a spec file, or every JSON/YAML file of a directory",
		Example: "  spec-manager import pangolin.json --name pangolin\n" +
			"  spec-manager import ./specs",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				spec, err := a.store.ImportFile(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported %s as '%s'\n", args[0], spec.Name)
				return nil
			}
			if name != "" {
				return fmt.Errorf("--name cannot be used when importing a directory")
			}
			results, err := a.store.ImportDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResults(out, results)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Stored spec name (defaults to the file name)")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <seed-file>",
		Short: "Import the specs listed in a YAML or JSON seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := services.LoadSeedConfig(args[0])
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), a.store.Seed(cmd.Context(), cfg))
		},
	}
}

func (a *app) toggleCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if active {
				err = a.store.Activate(cmd.Context(), args[0])
			} else {
				err = a.store.Deactivate(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spec '%s' %sd\n", args[0], use)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spec '%s' deleted\n", args[0])
			return nil
		},
	}
}

func printSpecs(w io.Writer, specs []*models.OpenAPISpec) {
	if len(specs) == 0 {
		fmt.Fprintln(w, "No specs found in the database.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTITLE\tVERSION\tACTIVE\tFORMAT\tSIZE")
	for _, spec := range specs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			spec.Name,
			truncate(deref(spec.Title), 40),
			deref(spec.Version),
			spec.Active(),
			deref(spec.FileFormat),
			size(spec.FileSize))
	}
	tw.Flush()
}

func printResults(w io.Writer, results []services.ImportResult) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", res.File, res.Err)
			continue
		}
		fmt.Fprintf(w, "✓ Imported %s as '%s'\n", res.File, res.Name)
	}
	fmt.Fprintf(w, "\nImport completed: %d imported, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d specs failed to import", failed, len(results))
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func size(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
