package carbonscan

import "embed"

// ClickHouseMigrationsFS embeds the goose migration files applied to the
// reporting database.
//
//go:embed db/clickhouse/migrations/*.sql
var ClickHouseMigrationsFS embed.FS
