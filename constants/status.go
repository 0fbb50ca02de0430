package constants

// RunStatus is the canonical status for rows in the extraction journal.
type RunStatus string

// Stable values (store these exact strings in the journal).
const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Method selects how a document is turned into structured data.
type Method string

const (
	MethodAuto  Method = "auto"  // LLM when configured, falling back to regex
	MethodRegex Method = "regex" // OCR / text layer + pattern extractors
	MethodLLM   Method = "llm"   // extraction model only
)

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodAuto, MethodRegex, MethodLLM:
		return true
	}
	return false
}
