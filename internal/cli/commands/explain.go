package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/internal/cli/output"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand() *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "explain <SQL>",
		Short: "Show the execution plan of a query",
		Long: `Show the plan the database chooses for a query.

With --analyze the query is executed and actual timings are reported where
the database supports it.`,
		Example: `  dbdesk explain "SELECT * FROM orders WHERE user_id = 1"
  dbdesk explain --analyze "SELECT count(*) FROM orders"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return renderExplain(cmd.Context(), cmdCtx, strings.Join(args, " "), analyze)
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Execute the query and report actual timings")
	return cmd
}

func renderExplain(ctx context.Context, cmdCtx *CommandContext, query string, analyze bool) error {
	res, err := cmdCtx.Engine.Explain(ctx, query, analyze)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	lang := ""
	if res.Format == "json" {
		lang = "json"
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatCodeBlock(lang, res.Plan))
	} else {
		r.Println(res.Plan)
	}
	if res.Analyzed {
		r.Println(r.Muted(fmt.Sprintf("(analyzed, %.1f ms)", res.Duration)))
	}
	return nil
}
