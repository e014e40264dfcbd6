package interpreter

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oxbot/oxbot/internal/events"
	"github.com/oxbot/oxbot/internal/models"
	"github.com/oxbot/oxbot/internal/runtime"
)

const (
	// pollInterval bounds how long a stop or approval decision can go
	// unnoticed by the worker.
	pollInterval = 100 * time.Millisecond

	// quiesceTimeout bounds how long Configure and ResetConversation wait
	// for a stopped worker to finish.
	quiesceTimeout = 2 * time.Second
)

// RequestHook can rewrite a submission before it reaches the runtime. The
// transcript and history keep the original text.
type RequestHook func(text string) string

// Wrapper owns the interpreter lifecycle: configuration, one worker turn at
// a time, the event queue the UI drains, the approval gate, and the
// conversation history. All methods are safe for concurrent use.
type Wrapper struct {
	factory runtime.Factory
	queue   *events.Queue
	log     *zap.Logger

	running atomic.Bool
	autoRun atomic.Bool

	// stopSeq counts stop requests; turnStopSeq snapshots it when a turn is
	// claimed. A mismatch means a stop arrived after the claim, so a stop
	// racing a submission is charged to the new turn instead of being lost.
	stopSeq     atomic.Uint64
	turnStopSeq atomic.Uint64

	gate approvalGate

	tokensIn  atomic.Int64
	tokensOut atomic.Int64

	mu          sync.Mutex
	rt          runtime.Runtime
	history     []models.ChatMessage
	requestHook RequestHook
	stopHook    func()
	turnCancel  context.CancelFunc
	workerDone  chan struct{}
}

// New builds a Wrapper around a runtime factory. A nil factory models an
// unavailable runtime: Configure fails with ErrRuntimeUnavailable.
func New(factory runtime.Factory, log *zap.Logger) *Wrapper {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Wrapper{
		factory: factory,
		queue:   events.NewQueue(),
		log:     log,
	}
	w.queue.SetErrorCallback(func(qe events.QueueError) {
		log.Warn("event queue error",
			zap.String("operation", qe.Operation),
			zap.Error(qe.Err))
	})
	return w
}

// SetRequestHook installs a hook applied to each submission before it is
// handed to the runtime.
func (w *Wrapper) SetRequestHook(h RequestHook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requestHook = h
}

// SetStopHook installs a callback invoked on every emergency stop.
func (w *Wrapper) SetStopHook(h func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopHook = h
}

// Configure builds a fresh runtime from cfg and resets the conversation. If
// a turn is active it is stopped first and the worker is given a bounded
// window to quiesce.
func (w *Wrapper) Configure(cfg runtime.Config) error {
	if w.factory == nil {
		return ErrRuntimeUnavailable
	}
	if w.running.Load() {
		w.EmergencyStop()
		w.waitQuiesce(quiesceTimeout)
	}

	rt, err := w.factory(cfg)
	if err != nil {
		w.mu.Lock()
		w.rt = nil
		w.mu.Unlock()
		w.log.Error("configuration failed", zap.Error(err))
		return &ConfigurationError{Err: err}
	}

	w.mu.Lock()
	w.rt = rt
	w.history = nil
	w.mu.Unlock()

	w.log.Info("interpreter configured",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("model", cfg.Model),
		zap.Bool("offline", cfg.Offline))
	return nil
}

// IsConfigured reports whether a runtime is currently bound.
func (w *Wrapper) IsConfigured() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rt != nil
}

// Submit starts a turn for text. It fails fast with ErrBusy while a turn is
// active and never queues submissions. A stop that lands while the
// submission is in flight halts the new turn before it reaches the stream.
func (w *Wrapper) Submit(text string) error {
	w.mu.Lock()
	rt := w.rt
	hook := w.requestHook
	w.mu.Unlock()
	if rt == nil {
		return ErrNotConfigured
	}
	seq := w.stopSeq.Load()
	if !w.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	w.turnStopSeq.Store(seq)
	w.gate.closeGate()

	request := text
	if hook != nil {
		request = hook(text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	w.mu.Lock()
	w.turnCancel = cancel
	w.workerDone = done
	hist := flattenHistory(w.history)
	w.history = append(w.history, models.ChatMessage{Role: models.RoleUser, Content: text})
	w.mu.Unlock()

	w.queue.Push(events.Event{Kind: events.Status, Content: "Processing..."})
	go w.runTurn(ctx, cancel, done, rt, hist, request)
	return nil
}

// runTurn is the worker goroutine for one turn. Every exit path, including
// panic, releases the running flag and pushes exactly one terminal Status.
func (w *Wrapper) runTurn(ctx context.Context, cancel context.CancelFunc, done chan struct{}, rt runtime.Runtime, hist []runtime.Message, request string) {
	turnID := uuid.NewString()[:8]
	log := w.log.With(zap.String("turn", turnID))
	log.Info("turn started")

	var (
		stopped   bool
		failed    bool
		prose     strings.Builder
		codeAcc   strings.Builder
		curLang   = "python"
		lastCode  string
		lastLang  string
		lastOut   strings.Builder
		turnIn    int
		turnOut   int
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("worker panic", zap.Any("panic", r))
			w.queue.Push(events.Event{Kind: events.Error, Content: "Internal error while processing the turn, see the log for details"})
			failed = true
		}
		cancel()
		w.gate.closeGate()

		w.mu.Lock()
		if prose.Len() > 0 || lastCode != "" {
			w.history = append(w.history, models.ChatMessage{
				Role:     models.RoleAssistant,
				Content:  prose.String(),
				Code:     lastCode,
				Language: lastLang,
				Output:   lastOut.String(),
			})
		}
		w.mu.Unlock()

		w.tokensIn.Add(int64(turnIn))
		w.tokensOut.Add(int64(turnOut))

		content := "Turn complete"
		switch {
		case stopped:
			content = "Processing stopped"
		case failed:
			content = "Turn ended with an error"
		}
		w.queue.Push(events.Event{
			Kind:      events.Status,
			Content:   content,
			Final:     true,
			TokensIn:  turnIn,
			TokensOut: turnOut,
		})
		w.running.Store(false)
		close(done)
		log.Info("turn finished",
			zap.Bool("stopped", stopped),
			zap.Bool("failed", failed),
			zap.Int("tokens_in", turnIn),
			zap.Int("tokens_out", turnOut))
	}()

	stream, err := rt.Chat(ctx, hist, request)
	if err != nil {
		log.Error("chat start failed", zap.Error(err))
		w.queue.Push(events.Event{Kind: events.Error, Content: inferenceFailureMessage(err)})
		failed = true
		return
	}
	defer stream.Close()

	for {
		if w.stopPending() {
			stopped = true
			return
		}

		chunk, nerr := stream.Next(ctx)
		if nerr != nil {
			if errors.Is(nerr, io.EOF) {
				turnIn, turnOut = stream.Usage()
				return
			}
			if errors.Is(nerr, context.Canceled) {
				stopped = true
				return
			}
			log.Error("stream failed", zap.Error(nerr))
			w.queue.Push(events.Event{Kind: events.Error, Content: inferenceFailureMessage(nerr)})
			failed = true
			return
		}

		switch {
		case chunk.StartOfCode:
			codeAcc.Reset()

		case chunk.Language != "":
			curLang = chunk.Language

		case chunk.Code != "":
			codeAcc.WriteString(chunk.Code)

		case chunk.EndOfCode:
			code := strings.TrimRight(codeAcc.String(), "\n")
			codeAcc.Reset()
			if strings.TrimSpace(code) != "" {
				w.queue.Push(events.Event{Kind: events.Code, Content: code, Language: curLang})
			}

		case chunk.Message != "":
			prose.WriteString(chunk.Message)
			w.queue.Push(events.Event{Kind: events.Text, Content: chunk.Message})

		case chunk.Output != "":
			lastOut.WriteString(chunk.Output)
			w.queue.Push(events.Event{Kind: events.ConsoleOutput, Content: chunk.Output})

		case chunk.Executing != nil:
			lastCode = chunk.Executing.Code
			lastLang = chunk.Executing.Language
			// The block shown for approval is always exactly what would run.
			w.queue.Push(events.Event{Kind: events.Code, Content: lastCode, Language: lastLang})

			if w.autoRun.Load() {
				log.Info("auto-run approved execution", zap.String("language", lastLang))
				stream.Proceed(true)
				continue
			}

			w.gate.openGate(lastCode, lastLang)
			w.queue.Push(events.Event{Kind: events.ApprovalRequest, Content: lastCode, Language: lastLang})
			approved, aborted := w.awaitDecision()
			w.gate.closeGate()

			if aborted {
				stream.Proceed(false)
				stopped = true
				return
			}
			if !approved {
				log.Info("execution rejected by user")
				stream.Proceed(false)
				w.queue.Push(events.Event{Kind: events.Status, Content: "Execution rejected"})
				return
			}
			log.Info("execution approved by user", zap.String("language", lastLang))
			stream.Proceed(true)
		}
	}
}

// awaitDecision polls the gate until a decision lands or a stop is
// requested. A stop always wins over a simultaneous decision.
func (w *Wrapper) awaitDecision() (approved, aborted bool) {
	for {
		if w.stopPending() {
			return false, true
		}
		if decided, ok := w.gate.decision(); decided {
			return ok, false
		}
		time.Sleep(pollInterval)
	}
}

// Approve records the decision for the pending code block. Returns false
// when nothing is awaiting approval.
func (w *Wrapper) Approve(approved bool) bool {
	return w.gate.decide(approved)
}

// stopPending reports whether a stop was requested after the current turn
// was claimed.
func (w *Wrapper) stopPending() bool {
	return w.stopSeq.Load() != w.turnStopSeq.Load()
}

// EmergencyStop requests that the active turn halt as soon as possible. It
// is a no-op while idle and safe to call from any goroutine.
func (w *Wrapper) EmergencyStop() {
	w.stopSeq.Add(1)
	w.mu.Lock()
	cancel := w.turnCancel
	hook := w.stopHook
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if w.running.Load() {
		w.log.Warn("emergency stop requested")
		w.queue.Push(events.Event{Kind: events.Status, Content: "Emergency stop, halting processing"})
	}
	if hook != nil {
		hook()
	}
}

// ResetConversation stops any active turn, clears the history and discards
// queued events.
func (w *Wrapper) ResetConversation() {
	if w.running.Load() {
		w.EmergencyStop()
		w.waitQuiesce(quiesceTimeout)
	}
	w.mu.Lock()
	w.history = nil
	w.mu.Unlock()
	w.queue.Drain()
	w.log.Info("conversation reset")
}

// DrainEvents returns all queued events without blocking.
func (w *Wrapper) DrainEvents() []events.Event {
	return w.queue.Drain()
}

// IsRunning reports whether a turn is active.
func (w *Wrapper) IsRunning() bool {
	return w.running.Load()
}

// IsAwaitingApproval reports whether a code block is pending a decision.
func (w *Wrapper) IsAwaitingApproval() bool {
	return w.gate.isOpen()
}

// PendingCode returns the code block under review, if any.
func (w *Wrapper) PendingCode() (code, language string, ok bool) {
	return w.gate.pending()
}

// SetAutoRun toggles unattended execution. When enabled, code blocks run
// without opening the approval gate.
func (w *Wrapper) SetAutoRun(enabled bool) {
	w.autoRun.Store(enabled)
	w.log.Info("auto-run changed", zap.Bool("enabled", enabled))
}

// AutoRun reports whether unattended execution is enabled.
func (w *Wrapper) AutoRun() bool {
	return w.autoRun.Load()
}

// History returns a copy of the conversation history.
func (w *Wrapper) History() []models.ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.ChatMessage, len(w.history))
	copy(out, w.history)
	return out
}

// SessionTokens returns the prompt and completion token totals accumulated
// since startup.
func (w *Wrapper) SessionTokens() (in, out int) {
	return int(w.tokensIn.Load()), int(w.tokensOut.Load())
}

// waitQuiesce waits for the current worker to finish, bounded by d. Returns
// false on timeout; the worker still sees the pending stop request and will
// release the running flag on its own.
func (w *Wrapper) waitQuiesce(d time.Duration) bool {
	w.mu.Lock()
	done := w.workerDone
	w.mu.Unlock()
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(d):
		w.log.Warn("worker did not quiesce in time")
		return false
	}
}

// flattenHistory converts stored history into runtime messages. Assistant
// entries fold executed code and its output back into the message body so
// the model sees what actually ran.
func flattenHistory(hist []models.ChatMessage) []runtime.Message {
	out := make([]runtime.Message, 0, len(hist))
	for _, m := range hist {
		content := m.Content
		if m.Role == models.RoleAssistant && m.Code != "" {
			var b strings.Builder
			b.WriteString(content)
			if content != "" {
				b.WriteString("\n")
			}
			b.WriteString("```")
			b.WriteString(m.Language)
			b.WriteString("\n")
			b.WriteString(m.Code)
			b.WriteString("\n```")
			if m.Output != "" {
				b.WriteString("\nOutput:\n")
				b.WriteString(m.Output)
			}
			content = b.String()
		}
		out = append(out, runtime.Message{Role: m.Role, Content: content})
	}
	return out
}
