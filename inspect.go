package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
	"github.com/ubermorgenland/pangolin-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/pangolin-mcp/pkg/server"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	var listTools, strict bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the tools generated from the OpenAPI document",
		Long: "inspect loads the document and reports the generated tools, lint warnings,\n" +
			"input schemas that do not compile and tool names shared by several operations.\n" +
			"No API key or base URL is needed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, g)
			if err != nil {
				return err
			}
			if err := cfg.ValidateSource(); err != nil {
				return err
			}
			doc, err := loadDocument(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			issues := writeReport(cmd.OutOrStdout(), doc, loader.Lint(cmd.Context(), doc), listTools)
			if strict && issues > 0 {
				return server.NewError(server.ErrorTypeValidation,
					fmt.Sprintf("%d issue(s) found", issues), "")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&listTools, "tools", false, "List every tool with its method and path")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any issue is reported")
	return cmd
}

// writeReport prints the inspection report and returns the number of issues.
func writeReport(w io.Writer, doc *loader.Document, lint []string, listTools bool) int {
	ops := openapi2mcp.ExtractOperations(doc)

	fmt.Fprintf(w, "%s %s (OpenAPI %s)\n", doc.Info.Title, doc.Info.Version, doc.OpenAPI)
	if base := doc.BaseURL(); base != "" {
		fmt.Fprintf(w, "Server: %s\n", base)
	}
	openapi2mcp.PrintToolSummary(w, ops)
	if listTools {
		fmt.Fprintln(w)
		openapi2mcp.PrintToolList(w, ops)
	}

	if len(doc.CustomOptions) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc.CustomOptions, "", "  "); err == nil {
			fmt.Fprintf(w, "\nCustom options:\n%s\n", buf.String())
		}
	}

	issues := 0
	if len(lint) > 0 {
		fmt.Fprintln(w, "\nLint warnings:")
		for _, msg := range lint {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
		issues += len(lint)
	}
	if problems := openapi2mcp.ValidateToolSchemas(openapi2mcp.BuildTools(ops)); len(problems) > 0 {
		fmt.Fprintln(w, "\nInput schema problems:")
		for _, p := range problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
		issues += len(problems)
	}
	if collisions := openapi2mcp.Collisions(ops); len(collisions) > 0 {
		fmt.Fprintln(w, "\nName collisions (the last operation is callable):")
		for _, c := range collisions {
			fmt.Fprintf(w, "  - %s: %v\n", c.Name, c.Paths)
		}
		issues += len(collisions)
	}
	if issues == 0 {
		fmt.Fprintln(w, "\nNo issues found.")
	}
	return issues
}
