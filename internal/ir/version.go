package ir

// Version constants for the metadata schema and the segment engine.
const (
	// MetadataVersion is the persisted metadata schema version.
	MetadataVersion = "1"

	// EngineVersion is the segmaker engine version.
	EngineVersion = "0.3.0"
)
