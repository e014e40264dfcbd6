package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// maxExecRounds bounds how many execute-and-continue round trips one turn
// may make, preventing runaway loops.
const maxExecRounds = 6

var (
	errStreamClosed = errors.New("stream closed by consumer")
	errExecRejected = errors.New("execution rejected")
)

// openaiRuntime drives an OpenAI-compatible chat completion endpoint. Both
// the local server and the cloud provider speak this protocol.
type openaiRuntime struct {
	client *openai.Client
	cfg    Config
}

// New binds a Config to an OpenAI-compatible runtime.
func New(cfg Config) (Runtime, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.Endpoint
	return &openaiRuntime{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

func (r *openaiRuntime) Chat(ctx context.Context, history []Message, userText string) (Stream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if r.cfg.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.cfg.SystemPrompt,
		})
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	s := &chatStream{
		chunks:  make(chan Chunk, 16),
		proceed: make(chan bool, 1),
		done:    make(chan struct{}),
	}
	go s.produce(ctx, r, messages)
	return s, nil
}

// chatStream implements Stream over a producer goroutine. The producer owns
// all protocol state; the consumer only reads chunks and records decisions.
type chatStream struct {
	chunks    chan Chunk
	proceed   chan bool
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	err      error
	usageIn  int
	usageOut int
}

func (s *chatStream) Next(ctx context.Context) (Chunk, error) {
	select {
	case chunk, ok := <-s.chunks:
		if !ok {
			return Chunk{}, s.terminalErr()
		}
		return chunk, nil
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	}
}

func (s *chatStream) Proceed(approved bool) {
	select {
	case s.proceed <- approved:
	default:
		// A decision was already recorded for this boundary.
	}
}

func (s *chatStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *chatStream) Usage() (in, out int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usageIn, s.usageOut
}

func (s *chatStream) terminalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return io.EOF
	}
	return s.err
}

func (s *chatStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *chatStream) addUsage(in, out int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usageIn += in
	s.usageOut += out
}

// send forwards a chunk to the consumer, giving up if the stream was closed.
func (s *chatStream) send(chunk Chunk) bool {
	select {
	case s.chunks <- chunk:
		return true
	case <-s.done:
		return false
	}
}

// produce runs the full turn: stream a completion, pause at each execution
// boundary, run approved blocks, and feed their output back to the model for
// the next round.
func (s *chatStream) produce(ctx context.Context, r *openaiRuntime, messages []openai.ChatCompletionMessage) {
	defer close(s.chunks)

	exec := newExecutor(r.cfg.Workdir, r.cfg.Timeout)

	for round := 0; round < maxExecRounds; round++ {
		result, err := s.streamOnce(ctx, r, exec, messages)
		if err != nil {
			if errors.Is(err, errStreamClosed) || errors.Is(err, errExecRejected) {
				s.setErr(io.EOF)
				return
			}
			s.setErr(fmt.Errorf("inference request failed: %w", err))
			return
		}
		if len(result.outputs) == 0 {
			break
		}
		messages = append(messages,
			openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: result.completion,
			},
			openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: "Output of the executed code:\n\n" + strings.Join(result.outputs, "\n") + "\n\nContinue. If the task is done, summarize the result without more code.",
			},
		)
	}
	s.setErr(io.EOF)
}

type roundResult struct {
	completion string
	outputs    []string
}

func (s *chatStream) streamOnce(ctx context.Context, r *openaiRuntime, exec *executor, messages []openai.ChatCompletionMessage) (roundResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Temperature: r.cfg.Temperature,
		// Always set so the completion layer never has to guess the
		// context window.
		MaxTokens:     4000,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}

	stream, err := r.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return roundResult{}, err
	}
	defer stream.Close()

	var (
		result     roundResult
		codeBuf    strings.Builder
		codeLang   = defaultLanguage
		reportedIn bool
		abortErr   error
	)

	emit := func(chunk Chunk) bool {
		switch {
		case chunk.Language != "":
			codeLang = chunk.Language
		case chunk.StartOfCode:
			codeBuf.Reset()
		case chunk.Code != "":
			codeBuf.WriteString(chunk.Code)
		}
		if !s.send(chunk) {
			abortErr = errStreamClosed
			return false
		}
		if !chunk.EndOfCode {
			return true
		}

		// Execution boundary: announce the block, then hold until the
		// consumer decides.
		code := strings.TrimRight(codeBuf.String(), "\n")
		if strings.TrimSpace(code) == "" {
			return true
		}
		if !s.send(Chunk{Executing: &ExecInfo{Code: code, Language: codeLang}}) {
			abortErr = errStreamClosed
			return false
		}
		var approved bool
		select {
		case approved = <-s.proceed:
		case <-s.done:
			abortErr = errStreamClosed
			return false
		}
		if !approved {
			abortErr = errExecRejected
			return false
		}

		output, execErr := exec.run(ctx, code, codeLang)
		if execErr != nil {
			output = execErr.Error()
		}
		if output != "" {
			if !s.send(Chunk{Output: output}) {
				abortErr = errStreamClosed
				return false
			}
		}
		result.outputs = append(result.outputs, output)
		return true
	}

	parser := newFenceParser(emit)

	for {
		response, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return roundResult{}, recvErr
		}
		if response.Usage != nil {
			s.addUsage(response.Usage.PromptTokens, response.Usage.CompletionTokens)
			reportedIn = true
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		result.completion += delta
		if !parser.feed(delta) {
			return roundResult{}, abortErr
		}
	}
	if !parser.finish() {
		return roundResult{}, abortErr
	}

	if !reportedIn {
		// The backend sent no usage data; fall back to the heuristic.
		var promptText strings.Builder
		for _, msg := range messages {
			promptText.WriteString(msg.Content)
		}
		s.addUsage(EstimateTokens(promptText.String()), EstimateTokens(result.completion))
	}
	return result, nil
}
