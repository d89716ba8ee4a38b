package domain

// StateKind names a workflow state.
type StateKind string

const (
	KindIdle                 StateKind = "idle"
	KindRedacting            StateKind = "redacting"
	KindAwaitingConfirmation StateKind = "awaiting_confirmation"
	KindAnalyzing            StateKind = "analyzing"
	KindResult               StateKind = "result"
)

// State is one of Idle, Redacting, AwaitingConfirmation, Analyzing or Result.
// Switch on the concrete type to read its payload.
type State interface {
	Kind() StateKind
	sealed()
}

// Idle is the initial and recovery state. Err is the last failure, if any.
type Idle struct {
	Err error
}

// Redacting holds the raw input while the redaction call is in flight.
type Redacting struct {
	Input ReportInput
}

// AwaitingConfirmation holds the raw input and its redaction until the
// reporter confirms or cancels.
type AwaitingConfirmation struct {
	Input     ReportInput
	Redaction RedactionResult
}

// Analyzing marks an in-flight analysis call. The pending pair has already
// been consumed.
type Analyzing struct{}

// Result holds the report that was just finalized.
type Result struct {
	Report StoredReport
}

func (Idle) Kind() StateKind                 { return KindIdle }
func (Redacting) Kind() StateKind            { return KindRedacting }
func (AwaitingConfirmation) Kind() StateKind { return KindAwaitingConfirmation }
func (Analyzing) Kind() StateKind            { return KindAnalyzing }
func (Result) Kind() StateKind               { return KindResult }

func (Idle) sealed()                 {}
func (Redacting) sealed()            {}
func (AwaitingConfirmation) sealed() {}
func (Analyzing) sealed()            {}
func (Result) sealed()               {}
