// Package migrations embeds the goose schema migrations for every SQL medium.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
