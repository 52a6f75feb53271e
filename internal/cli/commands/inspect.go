package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/dbdesk/internal/cli/output"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

var titleCaser = cases.Title(language.English)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List schemas, types and sequences",
		Long: `Inspect the objects visible through the connection.

Without a subcommand, lists everything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return renderCatalog(cmd.Context(), cmdCtx)
		},
	}

	cmd.AddCommand(newInspectSubcommand("schemas", "List schemas with their tables and views", renderSchemas))
	cmd.AddCommand(newInspectSubcommand("types", "List user-defined types", renderTypes))
	cmd.AddCommand(newInspectSubcommand("sequences", "List sequences", renderSequences))
	return cmd
}

func newInspectSubcommand(use, short string, run func(context.Context, *CommandContext) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return run(cmd.Context(), cmdCtx)
		},
	}
}

func renderCatalog(ctx context.Context, cmdCtx *CommandContext) error {
	cat, err := cmdCtx.Engine.Catalog(ctx)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(cat)
	}

	r.Header(2, titleCaser.String("schemas"))
	if err := r.Table(schemaHeader, schemaRows(cat.Schemas)); err != nil {
		return err
	}
	r.Println("")
	r.Header(2, titleCaser.String("types"))
	if err := r.Table(typeHeader, typeRows(cat.Types)); err != nil {
		return err
	}
	r.Println("")
	r.Header(2, titleCaser.String("sequences"))
	return r.Table(sequenceHeader, sequenceRows(cat.Sequences))
}

func renderSchemas(ctx context.Context, cmdCtx *CommandContext) error {
	schemas, err := cmdCtx.Engine.Schemas(ctx)
	if err != nil {
		return err
	}
	if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		return cmdCtx.Renderer.JSON(schemas)
	}
	return cmdCtx.Renderer.Table(schemaHeader, schemaRows(schemas))
}

func renderTypes(ctx context.Context, cmdCtx *CommandContext) error {
	types, err := cmdCtx.Engine.Types(ctx)
	if err != nil {
		return err
	}
	if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		return cmdCtx.Renderer.JSON(types)
	}
	return cmdCtx.Renderer.Table(typeHeader, typeRows(types))
}

func renderSequences(ctx context.Context, cmdCtx *CommandContext) error {
	seqs, err := cmdCtx.Engine.Sequences(ctx)
	if err != nil {
		return err
	}
	if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		return cmdCtx.Renderer.JSON(seqs)
	}
	return cmdCtx.Renderer.Table(sequenceHeader, sequenceRows(seqs))
}

var (
	schemaHeader   = []string{"schema", "tables", "views"}
	typeHeader     = []string{"schema", "name", "kind", "values"}
	sequenceHeader = []string{"schema", "name", "type", "start", "increment", "min", "max"}
)

func schemaRows(schemas []core.SchemaInfo) [][]any {
	rows := make([][]any, len(schemas))
	for i, s := range schemas {
		rows[i] = []any{s.Name, strings.Join(s.Tables, ", "), strings.Join(s.Views, ", ")}
	}
	return rows
}

func typeRows(types []core.TypeInfo) [][]any {
	rows := make([][]any, len(types))
	for i, t := range types {
		rows[i] = []any{t.Schema, t.Name, titleCaser.String(t.Kind), strings.Join(t.Values, ", ")}
	}
	return rows
}

func sequenceRows(seqs []core.SequenceInfo) [][]any {
	rows := make([][]any, len(seqs))
	for i, s := range seqs {
		rows[i] = []any{s.Schema, s.Name, s.DataType, s.StartValue, s.Increment, s.MinValue, s.MaxValue}
	}
	return rows
}
