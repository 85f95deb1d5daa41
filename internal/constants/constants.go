// Package constants provides named constants used throughout the lvlup codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Progression constants
const (
	// DefaultBaseMax is the level-up threshold every stat starts with.
	DefaultBaseMax = 5

	// LevelGrowthFactor scales a stat's threshold on every level-up.
	// The scaled value is rounded up, so a threshold of 5 becomes 7.
	LevelGrowthFactor = 1.25
)

// Storage file names, relative to the data directory.
const (
	// SnapshotFileName holds the JSON stat snapshot.
	SnapshotFileName = "progress_data.json"

	// SQLiteFileName holds the stat snapshot when the sqlite backend is used.
	SQLiteFileName = "lvlup.db"

	// ChangeLogFileName holds the human-readable change log.
	ChangeLogFileName = "Log.txt"

	// EventLogFileName holds structured progression events at debug level.
	EventLogFileName = "events.jsonl"

	// AuditLogFileName holds one line per MCP tool call.
	AuditLogFileName = "audit.jsonl"

	// ChangeLogHeader is written as the first line of a fresh change log.
	ChangeLogHeader = "=== Stat change log ==="
)

// Server defaults
const (
	// DefaultAddr is the address the HTTP API listens on.
	DefaultAddr = "localhost:5000"

	// DefaultModelPath is the 3D model served from /model.
	DefaultModelPath = "Lowpolyszkielet.glb"

	// DefaultUpdateRatePerMinute bounds stat mutations per minute on every surface.
	DefaultUpdateRatePerMinute = 120
)

// Backup defaults
const (
	// DefaultBackupMaxCount is the number of backups kept by retention.
	DefaultBackupMaxCount = 10
)
