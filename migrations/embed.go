// Package migrations embeds the versioned schema for each SQL backend.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per driver
//
//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var FS embed.FS
