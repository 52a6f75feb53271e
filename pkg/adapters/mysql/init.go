// Package mysql provides the MySQL adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/dbdesk/pkg/adapters/mysql"
package mysql

import (
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func init() {
	adapter.Register(core.MySQL, func(deps adapter.Deps) adapter.Adapter { return New(deps) })
}
