package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/internal/cli/output"
	"github.com/leapstack-labs/dbdesk/internal/engine"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// EditOptions holds options for the edit commands.
type EditOptions struct {
	Watch bool
}

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Preview or apply row edits",
		Long: `Compile a batch of row edits (updates, inserts and deletes) into
parameterized statements and run them in a single transaction.

Edit files are YAML or JSON:

  table: users
  operations:
    - type: update
      primaryKeys: [{column: id, value: 1}]
      changes: [{column: name, oldValue: Ann, newValue: Anne}]
    - type: insert
      values: {id: 3, name: Cy}
    - type: delete
      primaryKeys: [{column: id, value: 2}]

Column metadata is read from the database unless the file provides it.`,
	}

	cmd.AddCommand(newEditPreviewCommand())
	cmd.AddCommand(newEditApplyCommand())
	return cmd
}

func newEditPreviewCommand() *cobra.Command {
	opts := &EditOptions{}
	cmd := &cobra.Command{
		Use:   "preview <file|->",
		Short: "Show the SQL an edit batch compiles to",
		Example: `  dbdesk edit preview edits.yaml
  dbdesk edit preview edits.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			preview := func() error { return previewEdits(cmd.Context(), cmd, cmdCtx, args[0]) }
			if opts.Watch {
				return watchUntilInterrupt(cmd, cmdCtx, args[0], preview)
			}
			return preview()
		},
	}
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the preview whenever the file changes")
	return cmd
}

func newEditApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <file|->",
		Short: "Apply an edit batch in one transaction",
		Long: `Apply an edit batch. Operations that fail validation are reported and
skipped; the remaining operations run in one transaction, so either all of
them are applied or none.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			batch, err := loadEditBatch(cmd.Context(), cmd, cmdCtx.Engine, args[0])
			if err != nil {
				return err
			}

			res := cmdCtx.Engine.ApplyEdits(cmd.Context(), batch, engine.ExecOptions{ExecutionID: uuid.NewString()})
			if err := cmdCtx.Renderer.EditResult(res); err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d of %d operations failed", len(res.Errors), len(batch.Operations))
			}
			return nil
		},
	}
}

func previewEdits(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, path string) error {
	batch, err := loadEditBatch(ctx, cmd, cmdCtx.Engine, path)
	if err != nil {
		return err
	}
	previews, errs := cmdCtx.Engine.PreviewEdits(batch)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(editPreview{Statements: previews, Errors: errs})
	}
	for _, stmt := range previews {
		r.SQL(stmt + ";")
	}
	for _, e := range errs {
		r.Error(fmt.Sprintf("%s [%s]: %s", e.OperationID, e.Kind, e.Message))
	}
	return nil
}

type editPreview struct {
	Statements []string              `json:"statements"`
	Errors     []core.OperationError `json:"errors,omitempty"`
}

// loadEditBatch reads an edit file and fills its context from the database
// when the file carries no column metadata.
func loadEditBatch(ctx context.Context, cmd *cobra.Command, eng *engine.Engine, path string) (*core.EditBatch, error) {
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	f, batch, err := loadEditFile(data, eng.Connection().Schema)
	if err != nil {
		return nil, err
	}
	if len(f.Columns) > 0 {
		return batch, nil
	}

	editCtx, err := eng.EditContext(ctx, f.Schema, f.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to load columns of %s.%s: %w", f.Schema, f.Table, err)
	}
	batch.Context = *editCtx
	if len(f.PrimaryKeyColumns) > 0 {
		batch.Context.PrimaryKeyColumns = f.PrimaryKeyColumns
	}
	return batch, nil
}
