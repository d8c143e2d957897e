package store

// Session is one stored evaluation session.
type Session struct {
	ID            string
	Policy        string
	StartedSeq    int64
	EngineVersion string
	IRVersion     string
}

// Evaluation is one stored program evaluation. A successful evaluation has
// HasResult set and an empty ErrorCode; a failed one the reverse.
type Evaluation struct {
	ID           string
	SessionID    string
	Seq          int64
	Program      string
	ProgramHash  string
	HasResult    bool
	Value        int64
	Bits         int
	ErrorCode    string
	ErrorMessage string
	Steps        int
}
