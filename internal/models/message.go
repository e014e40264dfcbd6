package models

// Role of a conversation history entry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the append-only conversation history. An
// assistant entry may embed the code it ran and the output it produced.
type ChatMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
	Output   string `json:"output,omitempty"`
}

// MessageType classifies a transcript line for rendering.
type MessageType int

const (
	User MessageType = iota
	Assistant
	Program
	CodeBlock
	Console
	ErrorLine
)

// Message is a single rendered transcript entry.
type Message struct {
	Content  string
	Type     MessageType
	Language string // set for CodeBlock

	// Streaming marks an assistant message still accumulating fragments;
	// the next text fragment appends to it instead of opening a new entry.
	Streaming bool
}
