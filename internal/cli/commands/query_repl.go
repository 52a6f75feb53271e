package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "dbdesk> "
	replContPrompt = "    ...> "
)

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	ctx := cmd.Context()

	// Setup history file (next to the execution history database)
	var historyFile string
	if cmdCtx.Cfg.HistoryPath != "" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.HistoryPath), "query_history")
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
			historyFile = ""
		}
	}

	// Get table names for completion
	completer := newTableCompleter(ctx, cmdCtx)

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	conn := cmdCtx.Engine.Connection()
	label := cmdCtx.Cfg.ConnectionName
	if label == "" {
		label = "ad-hoc"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dbdesk REPL (%s, %s)\n", label, conn.DBType)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cmd, cmdCtx, line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString("\n")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		script := multiLineBuffer.String()
		multiLineBuffer.Reset()

		if err := executeAndRender(ctx, cmdCtx, script); err != nil {
			cmdCtx.Renderer.Error(err.Error())
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand runs a REPL dot-command and reports whether to quit.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	r := cmdCtx.Renderer

	report := func(err error) {
		if err != nil {
			r.Error(err.Error())
		}
	}

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".tables", ".schemas":
		report(renderSchemas(ctx, cmdCtx))

	case ".types":
		report(renderTypes(ctx, cmdCtx))

	case ".sequences":
		report(renderSequences(ctx, cmdCtx))

	case ".ddl", ".context":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Usage: %s <[schema.]table>\n", command)
			return false
		}
		schema, table, err := splitTableName(parts[1], cmdCtx.Engine.Connection().Schema)
		if err != nil {
			report(err)
			return false
		}
		if command == ".ddl" {
			sql, err := cmdCtx.Engine.TableDDL(ctx, schema, table)
			if err != nil {
				report(err)
				return false
			}
			r.SQL(sql)
			return false
		}
		editCtx, err := cmdCtx.Engine.EditContext(ctx, schema, table)
		if err != nil {
			report(err)
			return false
		}
		for _, c := range editCtx.Columns {
			flag := ""
			if c.IsPrimaryKey {
				flag = " (pk)"
			}
			r.Printf("  %-24s %s%s\n", c.Name, c.DataType, flag)
		}

	case ".explain":
		query := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
		if query == "" {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .explain <query>")
			return false
		}
		report(renderExplain(ctx, cmdCtx, strings.TrimSuffix(query, ";"), false))

	case ".clear":
		_, _ = fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .schemas           List schemas with their tables and views
  .types             List user-defined types
  .sequences         List sequences
  .ddl <table>       Show the CREATE statement of a table
  .context <table>   Show the columns of a table
  .explain <query>   Show the plan of a query
  .clear             Clear the screen
  .quit / .exit      Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Several statements on one line run in order
  - Ctrl-C cancels a running query
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, cmdCtx *CommandContext) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// Completion is optional; a failing catalog query leaves only dot-commands.
	if schemas, err := cmdCtx.Engine.Schemas(ctx); err == nil {
		for _, s := range schemas {
			for _, t := range s.Tables {
				items = append(items, readline.PcItem(t))
			}
			for _, v := range s.Views {
				items = append(items, readline.PcItem(v))
			}
		}
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".schemas"),
		readline.PcItem(".types"),
		readline.PcItem(".sequences"),
		readline.PcItem(".ddl"),
		readline.PcItem(".context"),
		readline.PcItem(".explain"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
