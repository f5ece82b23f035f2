// Package scripts embeds the built-in Risor filter scripts.
package scripts

import "embed"

// DefaultFilter is the path of the filter used when none is configured.
const DefaultFilter = "filter/default.risor"

// FS holds every embedded script.
//
//go:embed filter/*.risor
var FS embed.FS
