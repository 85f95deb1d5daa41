package mcp

import "github.com/nvandessel/lvlup/internal/models"

// UpdateInput defines the input for the lvlup_update tool.
type UpdateInput struct {
	Category string `json:"category" jsonschema:"Stat category, e.g. Physical"`
	Stat     string `json:"stat" jsonschema:"Stat name within the category, e.g. Strength"`
	Change   int    `json:"change" jsonschema:"Signed amount to add to the stat's progress, within -1000000..1000000"`
	Date     string `json:"date,omitempty" jsonschema:"Day the change happened (YYYY-MM-DD); defaults to today"`
}

// UpdateOutput defines the output for the lvlup_update tool.
type UpdateOutput struct {
	Success    bool   `json:"success" jsonschema:"False when the category or stat does not exist"`
	Value      int    `json:"value,omitempty" jsonschema:"Progress within the current level"`
	CurrentMax int    `json:"current_max,omitempty" jsonschema:"Progress needed for the next level"`
	Level      int    `json:"level,omitempty" jsonschema:"Level of the stat"`
	LevelUp    bool   `json:"level_up,omitempty" jsonschema:"Whether this change caused a level-up"`
	TotalLevel int    `json:"total_level,omitempty" jsonschema:"Sum of all stat levels"`
	Message    string `json:"message" jsonschema:"Human-readable result message"`
}

// StatsInput defines the input for the lvlup_stats tool.
type StatsInput struct {
	Category string `json:"category,omitempty" jsonschema:"Only return this category"`
}

// StatsOutput defines the output for the lvlup_stats tool.
type StatsOutput struct {
	Categories map[string]models.Category `json:"categories" jsonschema:"Stats keyed by category then stat name"`
	TotalLevel int                        `json:"total_level" jsonschema:"Sum of all stat levels"`
}

// HistoryInput defines the input for the lvlup_history tool.
type HistoryInput struct {
	Range string `json:"range,omitempty" jsonschema:"One of week, month, half_year, year, all (default week)"`
}

// HistoryOutput defines the output for the lvlup_history tool.
type HistoryOutput struct {
	Success bool     `json:"success" jsonschema:"False when no change log exists yet"`
	Range   string   `json:"range" jsonschema:"Range that was applied"`
	Count   int      `json:"count" jsonschema:"Number of log lines returned"`
	Logs    []string `json:"logs" jsonschema:"Change log lines, oldest first"`
	Skipped int      `json:"skipped,omitempty" jsonschema:"Malformed lines that were ignored"`
	Error   string   `json:"error,omitempty" jsonschema:"Why the history is unavailable"`
}
