package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	homeEnv     = "OXBOT_HOME"
	dirName     = ".oxbot"
	settingsFil = "settings.json"
)

// Settings merges the built-in defaults with the user override file. Reads
// see the merged tree; writes touch only the override file, so defaults can
// evolve between releases without stale copies on disk.
type Settings struct {
	mu     sync.RWMutex
	home   string
	merged map[string]interface{}
	user   map[string]interface{}
}

// Home resolves the configuration directory, honoring OXBOT_HOME.
func Home() (string, error) {
	if custom := os.Getenv(homeEnv); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Load reads the user override file if present and merges it over the
// defaults. A missing file is not an error.
func Load() (*Settings, error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &Settings{
		home: home,
		user: make(map[string]interface{}),
	}
	path := filepath.Join(home, settingsFil)
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &s.user); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	s.merged = merge(defaults(), s.user)
	return s, nil
}

// Dir returns the configuration directory.
func (s *Settings) Dir() string {
	return s.home
}

// Get resolves a dot-separated path in the merged tree.
func (s *Settings) Get(path string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.merged, path)
}

// Set writes a value at a dot-separated path into the user overrides and
// persists them. Intermediate maps are created as needed.
func (s *Settings) Set(path string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assign(s.user, path, value)
	s.merged = merge(defaults(), s.user)
	return s.save()
}

// ResetToDefaults discards all user overrides and removes the override
// file.
func (s *Settings) ResetToDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = make(map[string]interface{})
	s.merged = merge(defaults(), s.user)
	path := filepath.Join(s.home, settingsFil)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *Settings) save() error {
	data, err := json.MarshalIndent(s.user, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	path := filepath.Join(s.home, settingsFil)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Typed accessors over the merged tree.

func (s *Settings) String(path, fallback string) string {
	if v, ok := s.Get(path); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

func (s *Settings) Bool(path string, fallback bool) bool {
	if v, ok := s.Get(path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func (s *Settings) Float(path string, fallback float64) float64 {
	if v, ok := s.Get(path); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

func (s *Settings) Int(path string, fallback int) int {
	return int(s.Float(path, float64(fallback)))
}

func (s *Settings) ActiveProvider() string {
	return s.String("active_provider", "local")
}

func (s *Settings) AutoRun() bool {
	return s.Bool("auto_run", false)
}

func (s *Settings) Workdir() string {
	return s.String("workdir", "")
}

func (s *Settings) LogLevel() string {
	return s.String("log_level", "info")
}

func (s *Settings) ProviderEndpoint(name string) string {
	return s.String("providers."+name+".endpoint", "")
}

func (s *Settings) ProviderModel(name string) string {
	return s.String("providers."+name+".model", "")
}

func (s *Settings) ProviderAPIKey(name string) string {
	return s.String("providers."+name+".api_key", "")
}

func (s *Settings) Temperature() float64 {
	return s.Float("interpreter.temperature", 0.3)
}

func (s *Settings) ContextWindow() int {
	return s.Int("interpreter.context_window", 8192)
}

func (s *Settings) ExecTimeout() time.Duration {
	return time.Duration(s.Float("interpreter.exec_timeout_sec", 30)) * time.Second
}

func (s *Settings) HealthInterval() time.Duration {
	return time.Duration(s.Float("health.interval_sec", 5)) * time.Second
}

func (s *Settings) AutomationEnabled() bool {
	return s.Bool("automation.enabled", false)
}

func (s *Settings) AutomationPause() time.Duration {
	return time.Duration(s.Float("automation.pause_sec", 0.5) * float64(time.Second))
}

func (s *Settings) VisionEnabled() bool {
	return s.Bool("vision.enabled", false)
}

// merge lays override on top of base recursively. Nested maps merge key by
// key; any other value in the override wins outright.
func merge(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range override {
		bm, baseIsMap := out[k].(map[string]interface{})
		om, overrideIsMap := ov.(map[string]interface{})
		if baseIsMap && overrideIsMap {
			out[k] = merge(bm, om)
			continue
		}
		out[k] = ov
	}
	return out
}

func lookup(tree map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	cur := interface{}(tree)
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func assign(tree map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	cur := tree
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}
