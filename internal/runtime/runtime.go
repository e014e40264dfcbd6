package runtime

import (
	"context"
	"errors"
	"time"
)

// Config is the flat provider snapshot the runtime binds to for one session.
// It always carries an API key: the completion layer rejects requests with an
// absent key even for local servers, so providers that need none use a
// placeholder.
type Config struct {
	Endpoint      string
	Model         string
	APIKey        string
	Offline       bool
	Timeout       time.Duration
	Temperature   float32
	ContextWindow int
	Workdir       string
	SystemPrompt  string
}

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ExecInfo describes a code block that is about to run.
type ExecInfo struct {
	Code     string
	Language string
}

// Chunk is one fragment of the streamed session protocol. At most one field
// group is set per chunk, mirroring the order the model produced it:
// StartOfMessage/Message/EndOfMessage for prose, StartOfCode/Language/Code/
// EndOfCode for a code block, Executing just before a block runs, Output for
// execution results.
type Chunk struct {
	StartOfMessage bool
	EndOfMessage   bool
	Message        string

	StartOfCode bool
	EndOfCode   bool
	Language    string
	Code        string

	Executing *ExecInfo
	Output    string
}

// Stream is a cancellable view of one inference turn.
//
// Contract for the execution boundary: after Next returns a chunk with
// Executing set, the stream holds the block in a pending state. The block
// runs only inside a later Next call, and only if Proceed(true) was recorded
// first. Calling Proceed(false), or Close before Proceed, guarantees the
// block never executes. This is enforced by an explicit state machine, not by
// iterator teardown side effects.
type Stream interface {
	// Next returns the next chunk. It returns io.EOF when the turn is over.
	Next(ctx context.Context) (Chunk, error)

	// Proceed records the decision for the pending execution boundary.
	// Only the first call per boundary is honored.
	Proceed(approved bool)

	// Close abandons the stream. Pending code is never executed.
	Close() error

	// Usage reports input/output token counts. Valid after Next returned
	// io.EOF; estimates are heuristic when the backend sends no usage data.
	Usage() (in, out int)
}

// Runtime produces one Stream per inference turn.
type Runtime interface {
	Chat(ctx context.Context, history []Message, userText string) (Stream, error)
}

// Factory binds a Config to a concrete Runtime. The interpreter core holds a
// Factory so tests can substitute scripted runtimes.
type Factory func(cfg Config) (Runtime, error)

var (
	// ErrMissingEndpoint is returned when a Config has no endpoint to dial.
	ErrMissingEndpoint = errors.New("runtime config has no endpoint")
	// ErrMissingModel is returned when a Config names no model.
	ErrMissingModel = errors.New("runtime config has no model")
)
