package config

// Constants defining default values for application configuration
const (
	DefaultDBPath      = "./patchwatch.db"
	DefaultReportsDir  = "./patch_reports"
	DefaultSourcesPath = "./sources.yaml"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultCheckInterval  = 15 // Minutes between ingestion cycles
	DefaultNotifyInterval = 2  // Minutes between notification cycles
	DefaultHarvestLimit   = 5  // Candidate notices per source per cycle

	DefaultGeminiModel = "gemini-2.0-flash"

	DefaultLogLevel = "info"
)
