package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/internal/cli/output"
	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

var errHistoryDisabled = errors.New("execution history is disabled (remove --no-history or set history_path)")

// HistoryOptions holds options for the history list command.
type HistoryOptions struct {
	Limit   int
	Kind    string
	Dialect string
	Failed  bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent executions",
		Long: `Show the executions recorded in the local history database: queries,
edit batches and DDL, newest first.`,
		Example: `  dbdesk history
  dbdesk history --failed --limit 10
  dbdesk history --kind edit -o json
  dbdesk history prune --keep 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum entries to show (default: history_limit)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only show one kind: query, edit or ddl")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "Only show one dialect")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "Only show failed executions")

	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(history.KindQuery), string(history.KindEdit), string(history.KindDDL)}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newHistoryPruneCommand())
	return cmd
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if cmdCtx.History == nil {
		return errHistoryDisabled
	}

	filter := history.Filter{
		Limit:      opts.Limit,
		FailedOnly: opts.Failed,
	}
	if filter.Limit <= 0 {
		filter.Limit = cmdCtx.Cfg.HistoryLimit
	}
	switch k := history.Kind(strings.ToLower(opts.Kind)); k {
	case "", history.KindQuery, history.KindEdit, history.KindDDL:
		filter.Kind = k
	default:
		return fmt.Errorf("unknown history kind %q (expected query, edit or ddl)", opts.Kind)
	}
	if opts.Dialect != "" {
		d, err := core.ParseDialect(opts.Dialect)
		if err != nil {
			return err
		}
		filter.Dialect = d
	}

	entries, err := cmdCtx.History.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(entries)
	}
	if len(entries) == 0 {
		r.Println(r.Muted("No executions recorded."))
		return nil
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		status := "ok"
		switch {
		case e.Cancelled:
			status = "cancelled"
		case !e.Success:
			status = "failed"
		}
		rows[i] = []any{
			e.StartedAt.Local().Format(time.DateTime),
			string(e.Kind),
			displayName(e.Connection),
			status,
			e.RowsAffected,
			fmt.Sprintf("%.1f", e.DurationMs),
			summarize(e),
		}
	}
	return r.Table([]string{"started", "kind", "connection", "status", "rows", "ms", "statement"}, rows)
}

// summarize returns the first statement of an entry on one line, with the
// error appended for failures.
func summarize(e history.Entry) string {
	s := ""
	if len(e.Statements) > 0 {
		s = strings.Join(strings.Fields(e.Statements[0]), " ")
		if len(s) > 60 {
			s = s[:57] + "..."
		}
		if len(e.Statements) > 1 {
			s += fmt.Sprintf(" (+%d)", len(e.Statements)-1)
		}
	}
	if e.Error != "" {
		s += " [" + e.Error + "]"
	}
	return s
}

func newHistoryPruneCommand() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if cmdCtx.History == nil {
				return errHistoryDisabled
			}
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative")
			}

			n, err := cmdCtx.History.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("removed %d entries", n))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "Number of newest entries to keep")
	return cmd
}
