// Package mssql provides the SQL Server adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/dbdesk/pkg/adapters/mssql"
package mssql

import (
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func init() {
	adapter.Register(core.MSSQL, func(deps adapter.Deps) adapter.Adapter { return New(deps) })
}
