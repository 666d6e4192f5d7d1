package ir

// Version constants for journal records and snapshot hashing.
const (
	// FormatVersion is the changeset/journal encoding version.
	FormatVersion = "1"

	// EngineVersion is the listsync engine version.
	EngineVersion = "0.1.0"
)
