package entity

import (
	"encoding/json"
	"fmt"
)

// ToolName identifies one of the recording tools. The set is closed:
// dispatch happens through a single exhaustive switch, not a registry.
type ToolName string

const (
	ToolNavigate        ToolName = "navigate"
	ToolScrollToBottom  ToolName = "scroll_to_bottom"
	ToolObservePage     ToolName = "observe_page"
	ToolRegisterElement ToolName = "register_element"
	ToolSetPageContext  ToolName = "set_page_context"
	ToolGoBack          ToolName = "go_back"
	ToolWait            ToolName = "wait"
	ToolScroll          ToolName = "scroll"
)

func (t ToolName) String() string {
	return string(t)
}

// ToolNames lists every tool in the order it is presented to the model.
func ToolNames() []ToolName {
	return []ToolName{
		ToolNavigate,
		ToolScrollToBottom,
		ToolObservePage,
		ToolRegisterElement,
		ToolSetPageContext,
		ToolGoBack,
		ToolWait,
		ToolScroll,
	}
}

// ToolResult is the outcome of a tool execution. Failures are data, not
// Go errors: the session keeps running and the model sees the message.
type ToolResult struct {
	Success bool   `json:"success"`
	Body    string `json:"body,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OKResult(format string, args ...any) ToolResult {
	return ToolResult{Success: true, Body: fmt.Sprintf(format, args...)}
}

func FailResult(format string, args ...any) ToolResult {
	return ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Observation renders the result as the tool message the model reads.
func (r ToolResult) Observation() string {
	if r.Success {
		return r.Body
	}
	return "ERROR: " + r.Error
}

// MarshalJSON keeps failed results explicit even when the error text is
// empty, so audit lines never show a bare {"success":false}.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	type alias ToolResult
	a := alias(r)
	if !a.Success && a.Error == "" {
		a.Error = "unspecified tool failure"
	}
	return json.Marshal(a)
}
