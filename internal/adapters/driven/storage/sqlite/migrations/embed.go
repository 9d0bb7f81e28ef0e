// Package migrations embeds the benchmark run history schema for the SQLite store.
package migrations

import "embed"

// FS holds the numbered up/down migration scripts.
//
//go:embed *.sql
var FS embed.FS
