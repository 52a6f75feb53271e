package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/internal/cli/output"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the connection is reachable",
		Example: `  dbdesk ping
  dbdesk ping -c warehouse
  dbdesk ping --type sqlite --path ./dev.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			pingErr := cmdCtx.Engine.Ping(cmd.Context())
			elapsed := time.Since(start)

			r := cmdCtx.Renderer
			conn := cmdCtx.Engine.Connection()
			if r.EffectiveMode() == output.ModeJSON {
				res := pingResult{
					Connection: cmdCtx.Cfg.ConnectionName,
					Dialect:    conn.DBType,
					Target:     describeTarget(conn),
					OK:         pingErr == nil,
					DurationMs: float64(elapsed.Microseconds()) / 1000,
				}
				if pingErr != nil {
					res.Error = pingErr.Error()
				}
				if err := r.JSON(res); err != nil {
					return err
				}
				return pingErr
			}

			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatHeader(2, "Connection"))
				r.Println(output.FormatKeyValue("Name", displayName(cmdCtx.Cfg.ConnectionName)))
				r.Println(output.FormatKeyValue("Dialect", string(conn.DBType)))
				r.Println(output.FormatKeyValue("Target", describeTarget(conn)))
			} else {
				r.StatusLine(displayName(cmdCtx.Cfg.ConnectionName), statusOf(pingErr), describeTarget(conn))
			}
			if pingErr != nil {
				return pingErr
			}
			r.Success(fmt.Sprintf("connected to %s in %s", conn.DBType, elapsed.Round(time.Millisecond)))
			return nil
		},
	}
}

type pingResult struct {
	Connection string       `json:"connection,omitempty"`
	Dialect    core.Dialect `json:"dialect"`
	Target     string       `json:"target"`
	OK         bool         `json:"ok"`
	Error      string       `json:"error,omitempty"`
	DurationMs float64      `json:"durationMs"`
}

// describeTarget renders where a connection points, without credentials.
func describeTarget(c core.ConnectionConfig) string {
	if c.DBType == core.SQLite {
		if c.Path != "" {
			return c.Path
		}
		return c.Database
	}
	target := c.Host
	if c.Port != 0 {
		target += ":" + strconv.Itoa(c.Port)
	}
	if c.Database != "" {
		target += "/" + c.Database
	}
	return target
}

func displayName(name string) string {
	if name == "" {
		return "ad-hoc"
	}
	return name
}

func statusOf(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
