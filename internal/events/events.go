package events

// Kind classifies an Event for the presentation layer.
type Kind int

const (
	Text            Kind = iota // assistant prose, streamed fragment by fragment
	Code                        // a complete code block (never partial)
	ConsoleOutput               // output produced by executed code
	Error                       // a failure surfaced to the user
	Status                      // state change; Final marks the end of a turn
	ApprovalRequest             // code is pending a human decision
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Code:
		return "code"
	case ConsoleOutput:
		return "console"
	case Error:
		return "error"
	case Status:
		return "status"
	case ApprovalRequest:
		return "approval"
	default:
		return "unknown"
	}
}

// Event is a single item streamed from the interpreter core to the UI.
// Events are immutable once pushed and are delivered in FIFO order.
type Event struct {
	Kind      Kind
	Content   string
	Language  string // set for Code and ApprovalRequest
	Final     bool   // set on the Status event that terminates a turn
	TokensIn  int
	TokensOut int
}
