package app

import (
	"errors"
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/oxbot/oxbot/internal/automation"
	"github.com/oxbot/oxbot/internal/config"
	"github.com/oxbot/oxbot/internal/health"
	"github.com/oxbot/oxbot/internal/interpreter"
	"github.com/oxbot/oxbot/internal/logging"
	"github.com/oxbot/oxbot/internal/models"
	"github.com/oxbot/oxbot/internal/provider"
	"github.com/oxbot/oxbot/internal/runtime"
	"github.com/oxbot/oxbot/internal/vision"
)

const basePrompt = `You are a coding assistant running on the user's machine.
When a task needs code, write it in a fenced code block with the language
tag (python, sh or javascript). Each block you produce may be executed
locally after the user approves it, and you will receive its output. Prefer
small, verifiable steps over monolithic scripts.

Safety rules:
- Never delete or overwrite files without asking the user first.
- Explain what a code block will do before or alongside writing it.
- If the user moves the mouse to the top-left corner, all automation stops.`

const automationPrompt = `
Desktop automation is available through the oxbot CLI. From a code block,
shell out to it one action at a time, for example:

  oxbot auto move 640 360
  oxbot auto click left
  oxbot auto type hello world
  oxbot auto key enter
  oxbot auto screen

Actions: move X Y, click [button] [double], clickat X Y [button] [double],
drag X Y, scroll DX DY, type TEXT, paste TEXT, key KEY [MOD...], hold KEY MS,
windows, activate TITLE, find IMAGE_PATH, pos, screen, info, sleep MS.
Each action prints its result on stdout and exits non-zero when automation
is disabled. Always describe what an action will do before doing it.`

const visionPrompt = `
The user may attach a screenshot of their screen to a message. When one is
attached it appears as a base64 JPEG payload; use it to ground your answer
in what is actually on screen.`

// Application wires settings, logging, the provider registry, the
// interpreter core, health monitoring, automation and vision together, and
// owns their lifecycle around the TUI.
type Application struct {
	settings   *config.Settings
	log        *zap.Logger
	registry   *provider.Registry
	wrapper    *interpreter.Wrapper
	monitor    *health.Monitor
	automation *automation.Controller
	vision     *vision.Capturer
	model      *Model
}

func NewApplication() (*Application, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	log, err := logging.New(settings.Dir(), settings.LogLevel())
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	registry := provider.NewRegistry()
	registry.RegisterLocal(provider.Config{
		Name:     provider.KeyLocal,
		Endpoint: settings.ProviderEndpoint(provider.KeyLocal),
		Model:    settings.ProviderModel(provider.KeyLocal),
		APIKey:   settings.ProviderAPIKey(provider.KeyLocal),
	})
	registry.RegisterCloud(provider.Config{
		Name:     provider.KeyCloud,
		Endpoint: settings.ProviderEndpoint(provider.KeyCloud),
		Model:    settings.ProviderModel(provider.KeyCloud),
		APIKey:   settings.ProviderAPIKey(provider.KeyCloud),
	})
	if err := registry.SelectActive(settings.ActiveProvider()); err != nil {
		log.Warn("configured provider unknown, falling back to local",
			zap.String("provider", settings.ActiveProvider()))
		_ = registry.SelectActive(provider.KeyLocal)
	}

	auto := automation.NewController(automation.NewRobotgoDriver(), log)
	auto.SetEnabled(settings.AutomationEnabled())
	auto.SetPause(settings.AutomationPause())

	app := &Application{
		settings:   settings,
		log:        log,
		registry:   registry,
		monitor:    health.NewMonitor("", settings.HealthInterval(), log),
		automation: auto,
	}
	app.vision = vision.NewCapturer(app.grabFrame, log)
	app.vision.SetEnabled(settings.VisionEnabled())

	app.wrapper = interpreter.New(runtime.New, log)
	app.wrapper.SetAutoRun(settings.AutoRun())
	app.wrapper.SetRequestHook(app.attachScreenshot)
	app.wrapper.SetStopHook(func() { auto.SetEnabled(false) })

	app.model = NewModel(app)
	return app, nil
}

// Configure resolves the active provider into a runtime configuration and
// rebinds the interpreter and the health monitor to it.
func (app *Application) Configure() error {
	cfg, err := app.registry.ResolveRuntimeConfig(runtime.Config{
		Timeout:       app.settings.ExecTimeout(),
		Temperature:   float32(app.settings.Temperature()),
		ContextWindow: app.settings.ContextWindow(),
		Workdir:       app.settings.Workdir(),
		SystemPrompt:  app.systemPrompt(),
	})
	if err != nil {
		return err
	}
	if err := app.wrapper.Configure(cfg); err != nil {
		return err
	}
	app.monitor.SetEndpoint(strings.TrimSuffix(cfg.Endpoint, "/") + "/models")
	return nil
}

func (app *Application) systemPrompt() string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if app.automation.Enabled() {
		b.WriteString(automationPrompt)
		b.WriteString("\nHost environment:\n")
		info := app.automation.SystemInfo()
		for _, key := range []string{"os", "arch", "screen", "active_window"} {
			if v := info[key]; v != "" {
				b.WriteString("- " + key + ": " + v + "\n")
			}
		}
	}
	if app.vision.Enabled() {
		b.WriteString(visionPrompt)
	}
	return b.String()
}

// grabFrame feeds the vision capturer from the same screen source the
// automation driver uses. Capture is read-only and is not gated by the
// automation enable flag.
func (app *Application) grabFrame() (image.Image, error) {
	frame := app.automation.CaptureFrame()
	if frame == nil {
		return nil, errors.New("screen capture failed")
	}
	return frame, nil
}

// attachScreenshot folds the pending screenshot, if any, into the outgoing
// request. The transcript keeps the user's original text.
func (app *Application) attachScreenshot(text string) string {
	payload, ok := app.vision.TakePending()
	if !ok {
		return text
	}
	return text + "\n\n[Attached screenshot, base64 JPEG]\n" + payload
}

func (app *Application) Start() error {
	if err := app.Configure(); err != nil {
		app.log.Warn("initial configuration failed", zap.Error(err))
		app.model.pushProgram("Provider not ready: " + err.Error())
		app.model.pushProgram("Fix the provider with `oxbot provider` and restart, or switch with ctrl+p.")
	}
	app.monitor.Start()
	app.monitor.OnChange(func(s health.State) {
		app.log.Info("health transition", zap.String("state", s.String()))
	})

	p := tea.NewProgram(app.model)
	_, err := p.Run()
	return err
}

func (app *Application) Stop() {
	app.wrapper.EmergencyStop()
	app.monitor.Stop()
	_ = app.log.Sync()
}

func createInitialModel(app *Application) models.AppModel {
	return models.AppModel{
		Messages: []models.Message{
			{Content: "oxbot, your desktop agent", Type: models.Program},
			{Content: "Provider: " + app.registry.Active(), Type: models.Program},
			{Content: "Type a message and press enter. ctrl+x stops, y/n answers approval prompts.", Type: models.Program},
		},
		Status:       "Ready",
		AutoRun:      app.wrapper.AutoRun(),
		AutomationOn: app.automation.Enabled(),
		VisionOn:     app.vision.Enabled(),
		HealthState:  app.monitor.State().String(),
		ProviderName: app.registry.Active(),
	}
}
