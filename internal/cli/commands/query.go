package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/dbdesk/internal/engine"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against the connection",
		Long: `Run one or more SQL statements against the selected connection.

Statements are split on semicolons (respecting quotes, comments and dollar
quoting) and run in order; execution stops at the first failing statement.
Press Ctrl-C to cancel a running query.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  dbdesk query "SELECT * FROM users LIMIT 10"

  # Run a script
  dbdesk query --input migrate.sql

  # Pipe SQL
  cat report.sql | dbdesk query -o json

  # Interactive mode
  dbdesk query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Determine SQL source
	var sqlText string

	switch {
	case len(args) > 0:
		sqlText = strings.Join(args, " ")
	case opts.Input != "":
		content, err := readInput(opts.Input, cmd.InOrStdin())
		if err != nil {
			return err
		}
		sqlText = string(content)
	case !isTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlText = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx)
	}

	return executeAndRender(cmd.Context(), cmdCtx, sqlText)
}

// executeAndRender runs a script under a fresh execution id. Ctrl-C while it
// runs cancels the execution instead of killing the process.
func executeAndRender(ctx context.Context, cmdCtx *CommandContext, sqlText string) error {
	id := uuid.NewString()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			res := cmdCtx.Engine.Cancel(context.WithoutCancel(ctx), id)
			if !res.Cancelled {
				cmdCtx.Logger.Debug("cancel request ignored",
					slog.String("execution_id", id),
					slog.String("reason", res.Error))
			}
		case <-done:
		}
	}()

	res, err := cmdCtx.Engine.RunQuery(ctx, sqlText, engine.ExecOptions{ExecutionID: id})
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.Results(res)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
