package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// AnalyticsFS holds the ClickHouse migrations under analytics/.
//
//go:embed analytics/*.sql
var AnalyticsFS embed.FS
