package agent

import "fmt"

// ModelUnavailableError signals the Gemini backend failed or returned an
// unusable response. The turn is aborted without retry.
type ModelUnavailableError struct {
	Err error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %v", e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// MalformedToolCallError reports tool arguments that failed validation
// before reaching the calendar. It travels back to the model as an error
// result so the model can correct itself.
type MalformedToolCallError struct {
	Tool   string
	Reason string
}

func (e *MalformedToolCallError) Error() string {
	return fmt.Sprintf("malformed call to %s: %s", e.Tool, e.Reason)
}

// ToolLoopExceededError reports a turn that hit the tool iteration cap
// without the model producing a final reply.
type ToolLoopExceededError struct {
	Limit int
}

func (e *ToolLoopExceededError) Error() string {
	return fmt.Sprintf("conversation turn exceeded %d tool iterations", e.Limit)
}
