// Package migrations embeds the SQL schema, one directory per dialect.
package migrations

import "embed"

// FS holds postgres/, mysql/ and sqlite/ migration sets
//
//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var FS embed.FS
