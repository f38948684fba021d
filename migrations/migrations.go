// Package migrations embeds the versioned schema for each supported backend.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// MoodUpgradeVersion is the migration whose data step maps legacy mood
// labels onto the 1-5 scale.
const MoodUpgradeVersion = 2
