// Command pangolin-mcp exposes the Pangolin Integration API as MCP tools.
//
// The document is read from a file (--openapi), inline JSON (--openapi-json) or a
// spec stored in PostgreSQL (--openapi-name). By default the server speaks MCP over
// stdio; --http serves the streamable HTTP transport instead.
//
// Examples:
//
//	pangolin-mcp -o pangolin.json -b https://api.example.com/v1 -k $TOKEN
//	pangolin-mcp -o pangolin.json -b https://api.example.com/v1 -k $TOKEN --read-only --http :8080
//	pangolin-mcp inspect -o pangolin.json
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/database"
	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
	"github.com/ubermorgenland/pangolin-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/pangolin-mcp/pkg/repository"
	"github.com/ubermorgenland/pangolin-mcp/pkg/server"
	"github.com/ubermorgenland/pangolin-mcp/pkg/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// globalFlags holds the raw flag values. Only flags the user set override
// the file and environment layers.
type globalFlags struct {
	configPath string
	values     server.Config
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "pangolin-mcp",
		Short: "MCP server for the Pangolin Integration API",
		Long: "pangolin-mcp turns the operations of the Pangolin OpenAPI document into MCP tools\n" +
			"and forwards tool calls to the Pangolin API with a bearer token.",
		Version:       server.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}
	bindFlags(cmd.PersistentFlags(), g)
	cmd.AddCommand(newInspectCmd(g), newReplCmd(g))
	return cmd
}

func bindFlags(fs *pflag.FlagSet, g *globalFlags) {
	v := &g.values
	fs.StringVarP(&g.configPath, "config", "c", "", "YAML config file (env "+server.EnvConfig+")")
	fs.StringVarP(&v.OpenAPIFile, "openapi", "o", "", "OpenAPI document file, JSON or YAML (env "+server.EnvOpenAPIFile+")")
	fs.StringVar(&v.OpenAPIJSON, "openapi-json", "", "Inline OpenAPI document (env "+server.EnvOpenAPIJSON+")")
	fs.StringVar(&v.OpenAPIName, "openapi-name", "", "Name of a stored spec, needs --database-url (env "+server.EnvOpenAPIName+")")
	fs.StringVarP(&v.APIKey, "api-key", "k", "", "Pangolin API bearer token (env "+server.EnvAPIKey+")")
	fs.StringVarP(&v.BaseURL, "base-url", "b", "", "Pangolin API base URL (env "+server.EnvBaseURL+")")
	fs.BoolVarP(&v.ReadOnly, "read-only", "r", false, "Expose and allow only GET operations (env "+server.EnvReadOnly+")")
	fs.StringVar(&v.HTTPAddr, "http", "", "Serve streamable HTTP on this address instead of stdio, e.g. :8080 (env "+server.EnvHTTPAddr+")")
	fs.StringVar(&v.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env "+server.EnvLogLevel+")")
	fs.StringVar(&v.LogFormat, "log-format", "", "Log format: console or json (env "+server.EnvLogFormat+")")
	fs.StringVar(&v.DatabaseURL, "database-url", "", "PostgreSQL connection string for stored specs (env "+server.EnvDatabaseURL+")")
}

// resolveConfig layers defaults, the config file, the environment and the
// flags the user set, in that order.
func resolveConfig(fs *pflag.FlagSet, g *globalFlags, lookup func(string) (string, bool)) (*server.Config, error) {
	cfg := server.DefaultConfig()

	path := g.configPath
	if !fs.Changed("config") {
		if p, ok := lookup(server.EnvConfig); ok {
			path = p
		}
	}
	if path != "" {
		if err := cfg.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	// a document source given on the command line replaces any lower-layer source
	if fs.Changed("openapi") || fs.Changed("openapi-json") || fs.Changed("openapi-name") {
		cfg.OpenAPIFile, cfg.OpenAPIJSON, cfg.OpenAPIName = "", "", ""
	}

	v := g.values
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "openapi":
			cfg.OpenAPIFile = v.OpenAPIFile
		case "openapi-json":
			cfg.OpenAPIJSON = v.OpenAPIJSON
		case "openapi-name":
			cfg.OpenAPIName = v.OpenAPIName
		case "api-key":
			cfg.APIKey = v.APIKey
		case "base-url":
			cfg.BaseURL = v.BaseURL
		case "read-only":
			cfg.ReadOnly = v.ReadOnly
		case "http":
			cfg.HTTPAddr = v.HTTPAddr
		case "log-level":
			cfg.LogLevel = v.LogLevel
		case "log-format":
			cfg.LogFormat = v.LogFormat
		case "database-url":
			cfg.DatabaseURL = v.DatabaseURL
		}
	})
	return cfg, nil
}

// setup resolves the configuration and builds the logger.
func setup(cmd *cobra.Command, g *globalFlags) (*server.Config, *zap.Logger, error) {
	cfg, err := resolveConfig(cmd.Flags(), g, os.LookupEnv)
	if err != nil {
		return nil, nil, err
	}
	logger, err := server.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadDocument loads the configured document. Stored specs are read through
// a short-lived database connection.
func loadDocument(ctx context.Context, cfg *server.Config, logger *zap.Logger) (*loader.Document, error) {
	var store loader.SpecStore
	if cfg.OpenAPIName != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, server.Wrap(err, server.ErrorTypeDatabase, "failed to initialize database")
		}
		defer db.Close()
		store = services.NewSpecStoreService(repository.NewOpenAPISpecRepository(db), logger)
	}
	return loader.LoadSource(ctx, cfg.Source(), store)
}

// newService loads the document and builds the service used by serve and repl.
func newService(ctx context.Context, cfg *server.Config, logger *zap.Logger) (*server.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LogConfiguration(logger)

	doc, err := loadDocument(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	for _, warning := range loader.Lint(ctx, doc) {
		logger.Warn("OpenAPI document lint", zap.String("warning", warning))
	}
	return server.NewService(doc, server.Options{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		ReadOnly: cfg.ReadOnly,
	}, logger)
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	cfg, logger, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.HTTPMode() {
		handler := server.NewHTTPHandler(svc, openapi2mcp.DefaultBasePath, logger)
		return server.RunHTTP(ctx, cfg.HTTPAddr, handler, logger)
	}

	logger.Info("Starting MCP server on stdio", zap.Int("tools", len(svc.Tools())))
	return openapi2mcp.ServeStdio(svc.MCPServer(), zap.NewStdLog(logger))
}
