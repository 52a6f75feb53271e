// Package main provides the dbdesk command-line client.
package main

import (
	"os"

	"github.com/leapstack-labs/dbdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
