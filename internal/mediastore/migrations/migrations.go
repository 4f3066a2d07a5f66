// Package migrations embeds the media index schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
