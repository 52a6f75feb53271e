// Package commands implements the dbdesk subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/internal/cli/config"
	"github.com/leapstack-labs/dbdesk/internal/cli/output"
	"github.com/leapstack-labs/dbdesk/internal/engine"
	"github.com/leapstack-labs/dbdesk/internal/history"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
	// History is nil when history is disabled.
	History *history.Store
}

// NewCommandContext resolves the connection and creates the engine, history
// store and renderer. Returns the context and a cleanup function that must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, cleanup, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, nil, err
	}

	conn, err := cmdCtx.Cfg.ResolveConnection(cmd.Flags())
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engineCfg := engine.Config{
		Connection:     conn,
		ConnectionName: cmdCtx.Cfg.ConnectionName,
		Logger:         cmdCtx.Logger,
	}
	if cmdCtx.History != nil {
		engineCfg.History = cmdCtx.History
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	cmdCtx := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}

	cleanup := func() {}
	if !cfg.NoHistory && cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath, logger)
		if err != nil {
			// History is best effort; commands still run without it.
			logger.Warn("history disabled", slog.String("error", err.Error()))
		} else {
			cmdCtx.History = store
			cleanup = func() { _ = store.Close() }
		}
	}

	return cmdCtx, cleanup, nil
}

// getConfig returns the configuration loaded by the root command, loading it
// from the current directory when a command runs standalone.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

// splitTableName splits "schema.table" into its parts. A bare name uses
// defaultSchema.
func splitTableName(name, defaultSchema string) (schema, table string, err error) {
	parts := strings.Split(name, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return defaultSchema, parts[0], nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid table name %q (expected table or schema.table)", name)
	}
}
