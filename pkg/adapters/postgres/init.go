// Package postgres provides the PostgreSQL adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/dbdesk/pkg/adapters/postgres"
package postgres

import (
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func init() {
	adapter.Register(core.PostgreSQL, func(deps adapter.Deps) adapter.Adapter { return New(deps) })
}
