package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the local state database
	DefaultDatabasePath = "./weread2notion.db"

	// DefaultNotesDir is where TXT exports are read from
	DefaultNotesDir = "./notes"

	// DefaultHeatmapOutputDir is where the heatmap site is written
	DefaultHeatmapOutputDir = "./site"
)
