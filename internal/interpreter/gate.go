package interpreter

import "sync"

// approvalGate is the synchronization point between the worker, which polls
// for a decision, and the UI thread, which records one. A gate exists only
// while a turn is paused on a pending code block; the first decision wins and
// later calls are no-ops.
type approvalGate struct {
	mu       sync.Mutex
	open     bool
	decided  bool
	approved bool
	code     string
	language string
}

func (g *approvalGate) openGate(code, language string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	g.decided = false
	g.approved = false
	g.code = code
	g.language = language
}

// decide records the decision for an open, undecided gate. Returns false
// when there was nothing to decide.
func (g *approvalGate) decide(approved bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open || g.decided {
		return false
	}
	g.decided = true
	g.approved = approved
	return true
}

func (g *approvalGate) decision() (decided, approved bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decided, g.approved
}

func (g *approvalGate) closeGate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = false
	g.code = ""
	g.language = ""
}

func (g *approvalGate) isOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// pending returns the code under review while the gate is open.
func (g *approvalGate) pending() (code, language string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.code, g.language, g.open
}
