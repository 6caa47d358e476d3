// Package migrations embeds the schema applied at startup.
package migrations

import "embed"

// FS holds the *.sql migrations, applied in name order.
//
//go:embed *.sql
var FS embed.FS
