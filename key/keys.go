// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 22

// Resolution Engine - these keys tune provider search and variant selection.
const (
	EngineAudioMode       = "engine.audio_mode"
	EngineProviderTimeout = "engine.provider_timeout"
	EngineRegional        = "engine.regional"
	EngineProviders       = "engine.providers"
)

// Metadata Gateway - these keys shape admission, caching and retry of catalog queries.
const (
	GatewayConcurrency = "gateway.concurrency"
	GatewayCacheTTL    = "gateway.cache_ttl"
	GatewayRetries     = "gateway.retries"
	GatewayRetryDelay  = "gateway.retry_delay"
)

// Mapping Cache - these keys bound the lifetime of cross-reference records.
const (
	MappingTTL         = "mapping.ttl"
	MappingNegativeTTL = "mapping.negative_ttl"
)

// History Tracking - these keys configure the persistence of playback state.
const (
	HistorySavePosition = "history.save_position"
	HistoryResume       = "history.resume"
)

// Search Interaction - these keys define catalog search behaviour.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
	SearchLimit                = "search.limit"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Media Playback - these keys configure the external video player.
const (
	Player     = "player.default"
	PlayerSkip = "player.skip"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern general command behaviour.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
