// Package sqlite provides the SQLite adapter, backed by the pure-Go
// modernc.org/sqlite driver.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/dbdesk/pkg/adapters/sqlite"
package sqlite

import (
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func init() {
	adapter.Register(core.SQLite, func(deps adapter.Deps) adapter.Adapter { return New(deps) })
}
