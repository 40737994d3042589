package entity

// MessageRole identifies who authored a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is one entry in the conversation between the recorder and the
// model. Assistant messages may carry tool calls; tool messages answer
// them, matched by ToolCallID.
type Message struct {
	Role       MessageRole
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// SystemMessage builds the instruction message that opens a session.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds the scenario message handed to the model.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolReply builds the tool message answering one tool call.
func ToolReply(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    content,
	}
}

// ToolCall is a model request to run one recording tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a tool to the model in JSON Schema form.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}
