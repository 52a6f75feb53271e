package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/internal/cli/output"
	"github.com/leapstack-labs/dbdesk/internal/engine"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// TableOptions holds options for the table commands.
type TableOptions struct {
	DryRun   bool
	Watch    bool
	Cascade  bool
	IfExists bool
}

// NewTableCommand creates the table command.
func NewTableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create, alter, drop and inspect tables",
		Long: `Manage tables from YAML or JSON definitions.

Definitions are validated before any SQL is generated; use --dry-run to
print the generated DDL without executing it.`,
	}

	cmd.AddCommand(newTableCreateCommand())
	cmd.AddCommand(newTableAlterCommand())
	cmd.AddCommand(newTableDropCommand())
	cmd.AddCommand(newTableDDLCommand())
	cmd.AddCommand(newTableContextCommand())
	return cmd
}

func newTableCreateCommand() *cobra.Command {
	opts := &TableOptions{}
	cmd := &cobra.Command{
		Use:   "create <file|->",
		Short: "Create a table from a definition",
		Example: `  dbdesk table create users.yaml --dry-run
  dbdesk table create users.yaml --watch
  dbdesk table create users.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			load := func() (*core.TableDefinition, error) {
				data, err := readInput(args[0], cmd.InOrStdin())
				if err != nil {
					return nil, err
				}
				return loadTableDefinition(data, cmdCtx.Engine.Connection().Schema)
			}
			preview := func() error {
				def, err := load()
				if err != nil {
					return err
				}
				sql, err := cmdCtx.Engine.PreviewDDL(def)
				if err != nil {
					return err
				}
				return renderDDLPreview(cmdCtx.Renderer, []string{sql})
			}

			switch {
			case opts.Watch:
				return watchUntilInterrupt(cmd, cmdCtx, args[0], preview)
			case opts.DryRun:
				return preview()
			}

			def, err := load()
			if err != nil {
				return err
			}
			return renderDDLResult(cmdCtx.Renderer,
				cmdCtx.Engine.ApplyCreateTable(cmd.Context(), def, engine.ExecOptions{ExecutionID: uuid.NewString()}))
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the DDL without executing it")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-print the DDL whenever the file changes (implies --dry-run)")
	return cmd
}

func newTableAlterCommand() *cobra.Command {
	opts := &TableOptions{}
	cmd := &cobra.Command{
		Use:   "alter <file|->",
		Short: "Alter a table from a batch of operations",
		Long: `Alter a table. The batch lists column, constraint and index operations
plus optional rename, schema move and comment. Nothing is executed when any
operation cannot be expressed in the connection's dialect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			load := func() (*core.AlterTableBatch, error) {
				data, err := readInput(args[0], cmd.InOrStdin())
				if err != nil {
					return nil, err
				}
				return loadAlterBatch(data, cmdCtx.Engine.Connection().Schema)
			}
			preview := func() error {
				batch, err := load()
				if err != nil {
					return err
				}
				stmts, err := cmdCtx.Engine.PreviewAlter(batch)
				if rerr := renderDDLPreview(cmdCtx.Renderer, stmts); rerr != nil {
					return rerr
				}
				return err
			}

			switch {
			case opts.Watch:
				return watchUntilInterrupt(cmd, cmdCtx, args[0], preview)
			case opts.DryRun:
				return preview()
			}

			batch, err := load()
			if err != nil {
				return err
			}
			return renderDDLResult(cmdCtx.Renderer,
				cmdCtx.Engine.ApplyAlter(cmd.Context(), batch, engine.ExecOptions{ExecutionID: uuid.NewString()}))
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the DDL without executing it")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-print the DDL whenever the file changes (implies --dry-run)")
	return cmd
}

func newTableDropCommand() *cobra.Command {
	opts := &TableOptions{}
	cmd := &cobra.Command{
		Use:   "drop <[schema.]table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			schema, table, err := splitTableName(args[0], cmdCtx.Engine.Connection().Schema)
			if err != nil {
				return err
			}
			drop := core.DropOptions{Cascade: opts.Cascade, IfExists: opts.IfExists}

			if opts.DryRun {
				sql, err := cmdCtx.Engine.PreviewDrop(schema, table, drop)
				if err != nil {
					return err
				}
				return renderDDLPreview(cmdCtx.Renderer, []string{sql})
			}
			return renderDDLResult(cmdCtx.Renderer,
				cmdCtx.Engine.ApplyDrop(cmd.Context(), schema, table, drop, engine.ExecOptions{ExecutionID: uuid.NewString()}))
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the DDL without executing it")
	cmd.Flags().BoolVar(&opts.Cascade, "cascade", false, "Drop dependent objects")
	cmd.Flags().BoolVar(&opts.IfExists, "if-exists", false, "Do not fail when the table is missing")
	return cmd
}

func newTableDDLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl <[schema.]table>",
		Short: "Show the CREATE statement of an existing table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			schema, table, err := splitTableName(args[0], cmdCtx.Engine.Connection().Schema)
			if err != nil {
				return err
			}
			sql, err := cmdCtx.Engine.TableDDL(cmd.Context(), schema, table)
			if err != nil {
				return err
			}
			return renderDDLPreview(cmdCtx.Renderer, []string{sql})
		},
	}
}

func newTableContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "context <[schema.]table>",
		Short: "Show the columns and primary key used for edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			schema, table, err := splitTableName(args[0], cmdCtx.Engine.Connection().Schema)
			if err != nil {
				return err
			}
			editCtx, err := cmdCtx.Engine.EditContext(cmd.Context(), schema, table)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(editCtx)
			}
			r.Header(2, fmt.Sprintf("%s.%s", editCtx.Schema, editCtx.Table))
			rows := make([][]any, len(editCtx.Columns))
			for i, c := range editCtx.Columns {
				var fk any
				if c.ForeignKey != nil {
					fk = fmt.Sprintf("%s.%s", c.ForeignKey.Table, c.ForeignKey.Column)
				}
				rows[i] = []any{c.OrdinalPosition, c.Name, c.DataType, c.IsNullable, c.IsPrimaryKey, fk}
			}
			return r.Table([]string{"#", "column", "type", "nullable", "primary key", "references"}, rows)
		},
	}
}

func renderDDLPreview(r *output.Renderer, stmts []string) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string][]string{"statements": stmts})
	}
	for _, stmt := range stmts {
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		r.SQL(stmt)
	}
	return nil
}

// renderDDLResult renders res and turns a failed execution into an error.
func renderDDLResult(r *output.Renderer, res *core.DDLResult) error {
	if err := r.DDLResult(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("DDL execution failed")
	}
	return nil
}
