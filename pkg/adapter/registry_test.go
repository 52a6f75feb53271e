package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Dialect:   "oracle",
		Available: []core.Dialect{core.PostgreSQL, core.MySQL},
	}

	msg := err.Error()
	assert.Contains(t, msg, "oracle")
	assert.Contains(t, msg, "dbdesk.yaml")
}

func TestRegister(t *testing.T) {
	Register(core.SQLite, func(deps Deps) Adapter {
		base := NewBase(&fakeDriver{dialect: core.SQLite}, deps)
		return &stubAdapter{BaseSQLAdapter: base}
	})

	assert.True(t, IsRegistered(core.SQLite))
	assert.Contains(t, ListAdapters(), core.SQLite)

	a, err := ForConfig(core.ConnectionConfig{DBType: core.SQLite}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, core.SQLite, a.Dialect())
}

func TestRegister_UnknownDialectPanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("oracle", func(Deps) Adapter { return nil })
	})
}

func TestNew_Errors(t *testing.T) {
	_, err := New("", Deps{})
	require.Error(t, err)
	assert.Equal(t, "database type not specified", err.Error())

	_, err = New("oracle", Deps{})
	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, core.Dialect("oracle"), unknown.Dialect)
}

// stubAdapter satisfies Adapter with the shared paths only.
type stubAdapter struct {
	BaseSQLAdapter
}

func (s *stubAdapter) GetSchemas(context.Context, core.ConnectionConfig) ([]core.SchemaInfo, error) {
	return nil, nil
}

func (s *stubAdapter) GetTypes(context.Context, core.ConnectionConfig) ([]core.TypeInfo, error) {
	return nil, nil
}

func (s *stubAdapter) GetSequences(context.Context, core.ConnectionConfig) ([]core.SequenceInfo, error) {
	return nil, nil
}

func (s *stubAdapter) GetTableDDL(context.Context, core.ConnectionConfig, string, string) (string, error) {
	return "", nil
}

func (s *stubAdapter) Explain(context.Context, core.ConnectionConfig, string, bool) (*core.ExplainResult, error) {
	return nil, nil
}

func (s *stubAdapter) GetEditContext(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	return s.GetEditContextCommon(ctx, cfg, schema, table)
}
