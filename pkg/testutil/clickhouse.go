package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carbonscan/carbonscan/pkg/clickhouse"
	clickhousetesting "github.com/carbonscan/carbonscan/pkg/clickhouse/testing"
)

// NewClient creates a migrated test client against the shared container DB.
func NewClient(t *testing.T, db *clickhousetesting.DB) clickhouse.Client {
	client, database, err := clickhousetesting.NewTestClient(t, db)
	require.NoError(t, err)

	log := NewLogger()
	err = clickhouse.RunMigrations(t.Context(), log, db.MigrationConfig(database))
	require.NoError(t, err)

	return client
}
