package ir

// Version constants recorded alongside stored evaluations.
const (
	// IRVersion is the record vocabulary version.
	IRVersion = "1"

	// EngineVersion is the rpnmath engine version.
	EngineVersion = "0.1.0"
)
