package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbdesk/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display dbdesk version and the database adapters compiled in.`,
		Run: func(cmd *cobra.Command, _ []string) {
			adapters := make([]string, 0)
			for _, d := range adapter.ListAdapters() {
				adapters = append(adapters, string(d))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dbdesk v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Adapters: %s\n", strings.Join(adapters, ", "))
		},
	}
}
