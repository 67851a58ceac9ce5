package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/pangolin-mcp/pkg/server"
)

const replHelp = `Commands:
  list                      list available tools
  info                      show server information
  describe <tool>           show a tool's description and input schema
  call <tool> [json-args]   call a tool, e.g. call org_by_orgId {"orgId":"acme"}
  help                      show this help
  exit                      leave the shell`

func newReplCmd(g *globalFlags) *cobra.Command {
	var historyFile string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell for listing and calling tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			svc, err := newService(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			sh := newShell(svc, logger)

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "pangolin> ",
				HistoryFile:     historyFile,
				AutoComplete:    sh.completer(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return server.Wrap(err, server.ErrorTypeInternal, "failed to start shell")
			}
			defer rl.Close()

			sh.out = rl.Stdout()
			fmt.Fprintf(sh.out, "%s %s (session %s)\nType 'help' for commands.\n", server.ServerName, server.Version, sh.session)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if sh.exec(cmd.Context(), line) {
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&historyFile, "history", "", "File to keep command history in")
	return cmd
}

// shell executes repl commands against a Service.
type shell struct {
	svc     *server.Service
	logger  *zap.Logger
	out     io.Writer
	session string
}

func newShell(svc *server.Service, logger *zap.Logger) *shell {
	session := uuid.NewString()
	return &shell{
		svc:     svc,
		logger:  logger.With(zap.String("session_id", session)),
		out:     io.Discard,
		session: session,
	}
}

func (s *shell) completer() *readline.PrefixCompleter {
	names := func(string) []string {
		var out []string
		for _, op := range s.svc.ListOperations() {
			out = append(out, op.Name)
		}
		sort.Strings(out)
		return out
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("list"),
		readline.PcItem("info"),
		readline.PcItem("describe", readline.PcItemDynamic(names)),
		readline.PcItem("call", readline.PcItemDynamic(names)),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprintln(s.out, replHelp)
	case "list":
		openapi2mcp.PrintToolList(s.out, s.svc.ListOperations())
	case "info":
		s.printJSON(s.svc.Info())
	case "describe":
		if len(fields) != 2 {
			fmt.Fprintln(s.out, "usage: describe <tool>")
			return false
		}
		s.describe(fields[1])
	case "call":
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "usage: call <tool> [json-args]")
			return false
		}
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "call"))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		s.call(ctx, fields[1], rest)
	default:
		fmt.Fprintf(s.out, "unknown command %q, type 'help'\n", fields[0])
	}
	return false
}

func (s *shell) describe(name string) {
	op, ok := s.svc.Dispatcher().Lookup(name)
	if !ok {
		fmt.Fprintf(s.out, "unknown tool %q\n", name)
		return
	}
	fmt.Fprintf(s.out, "%s  %s %s\n\n%s\n\nInput schema:\n", op.Name, op.Method, op.Path, openapi2mcp.ToolDescription(op))
	s.printJSON(openapi2mcp.BuildInputSchema(op).Map())
}

func (s *shell) call(ctx context.Context, name, rawArgs string) {
	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			fmt.Fprintf(s.out, "invalid JSON arguments: %v\n", err)
			return
		}
	}

	s.logger.Debug("Shell tool call", zap.String("tool", name))
	res, err := s.svc.Call(ctx, name, args)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if res.IsError {
		fmt.Fprint(s.out, "[error] ")
	}
	for _, c := range res.Content {
		if text, ok := c.(mcp.TextContent); ok {
			fmt.Fprintln(s.out, text.Text)
		}
	}
}

func (s *shell) printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, string(data))
}
