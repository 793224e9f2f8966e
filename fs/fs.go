// Package appfs embeds the application's static assets.
package appfs

import "embed"

//go:embed migrations/*.sql
var FS embed.FS
