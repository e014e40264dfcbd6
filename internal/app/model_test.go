package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oxbot/oxbot/internal/automation"
	"github.com/oxbot/oxbot/internal/config"
	"github.com/oxbot/oxbot/internal/events"
	"github.com/oxbot/oxbot/internal/health"
	"github.com/oxbot/oxbot/internal/interpreter"
	"github.com/oxbot/oxbot/internal/models"
	"github.com/oxbot/oxbot/internal/provider"
	"github.com/oxbot/oxbot/internal/runtime"
	"github.com/oxbot/oxbot/internal/vision"
)

// scriptedStream replays fixed chunks without an inference backend.
type scriptedStream struct {
	chunks []runtime.Chunk
	pos    int
}

func (s *scriptedStream) Next(ctx context.Context) (runtime.Chunk, error) {
	if s.pos >= len(s.chunks) {
		return runtime.Chunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *scriptedStream) Proceed(bool)      {}
func (s *scriptedStream) Close() error      { return nil }
func (s *scriptedStream) Usage() (int, int) { return 3, 5 }

type scriptedRuntime struct{ chunks []runtime.Chunk }

func (r *scriptedRuntime) Chat(ctx context.Context, history []runtime.Message, text string) (runtime.Stream, error) {
	return &scriptedStream{chunks: r.chunks}, nil
}

func testApplication(t *testing.T, chunks []runtime.Chunk) *Application {
	t.Helper()
	t.Setenv("OXBOT_HOME", t.TempDir())
	settings, err := config.Load()
	require.NoError(t, err)

	log := zap.NewNop()
	registry := provider.NewRegistry()
	registry.RegisterLocal(provider.Config{
		Name:     provider.KeyLocal,
		Endpoint: "http://localhost:1234/v1",
		Model:    "m",
	})
	require.NoError(t, registry.SelectActive(provider.KeyLocal))

	app := &Application{
		settings:   settings,
		log:        log,
		registry:   registry,
		monitor:    health.NewMonitor("", time.Minute, log),
		automation: automation.NewController(automation.NewRobotgoDriver(), log),
	}
	app.vision = vision.NewCapturer(app.grabFrame, log)
	app.wrapper = interpreter.New(func(cfg runtime.Config) (runtime.Runtime, error) {
		return &scriptedRuntime{chunks: chunks}, nil
	}, log)
	require.NoError(t, app.wrapper.Configure(runtime.Config{Endpoint: "http://localhost:1234/v1", Model: "m"}))
	app.model = NewModel(app)
	return app
}

func waitForIdle(t *testing.T, app *Application) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !app.wrapper.IsRunning() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("turn did not finish")
}

func TestExportWritesMarkdownAndJSON(t *testing.T) {
	app := testApplication(t, []runtime.Chunk{
		{StartOfMessage: true},
		{Message: "hello from the assistant"},
		{EndOfMessage: true},
	})
	m := app.model

	require.NoError(t, app.wrapper.Submit("hi"))
	waitForIdle(t, app)

	m.exportConversation()

	dir := app.settings.Dir()
	mds, err := filepath.Glob(filepath.Join(dir, "conversation-*.md"))
	require.NoError(t, err)
	require.Len(t, mds, 1)
	jsons, err := filepath.Glob(filepath.Join(dir, "conversation-*.json"))
	require.NoError(t, err)
	require.Len(t, jsons, 1)

	md, err := os.ReadFile(mds[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "hello from the assistant")

	last := m.state.Messages[len(m.state.Messages)-1]
	assert.Equal(t, models.Program, last.Type)
	assert.Contains(t, last.Content, mds[0])
	assert.Contains(t, last.Content, jsons[0])
}

func TestExportWithEmptyConversation(t *testing.T) {
	app := testApplication(t, nil)
	m := app.model

	m.exportConversation()

	last := m.state.Messages[len(m.state.Messages)-1]
	assert.Equal(t, "Nothing to export yet.", last.Content)
}

func TestApplyEventStreamsText(t *testing.T) {
	app := testApplication(t, nil)
	m := app.model
	base := len(m.state.Messages)

	m.applyEvent(events.Event{Kind: events.Text, Content: "hel"})
	m.applyEvent(events.Event{Kind: events.Text, Content: "lo"})
	require.Len(t, m.state.Messages, base+1)
	assert.Equal(t, "hello", m.state.Messages[base].Content)
	assert.True(t, m.state.Messages[base].Streaming)

	m.applyEvent(events.Event{Kind: events.Status, Content: "Turn complete", Final: true})
	assert.False(t, m.state.Messages[base].Streaming)
	assert.False(t, m.state.Loading)
}
