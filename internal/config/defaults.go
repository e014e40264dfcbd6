package config

// defaults is the built-in configuration tree. User settings are laid over
// it at load time; only user overrides are ever written back to disk.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"active_provider": "local",
		"auto_run":        false,
		"workdir":         "",
		"log_level":       "info",
		"providers": map[string]interface{}{
			"local": map[string]interface{}{
				"endpoint": "http://localhost:1234/v1",
				"model":    "qwen2.5-coder-7b-instruct",
				"api_key":  "not-needed",
			},
			"cloud": map[string]interface{}{
				"endpoint": "https://api.openai.com/v1",
				"model":    "gpt-4o",
				"api_key":  "",
			},
		},
		"interpreter": map[string]interface{}{
			"temperature":      0.3,
			"context_window":   8192,
			"exec_timeout_sec": 30,
		},
		"health": map[string]interface{}{
			"interval_sec": 5,
		},
		"automation": map[string]interface{}{
			"enabled":   false,
			"pause_sec": 0.5,
		},
		"vision": map[string]interface{}{
			"enabled": false,
		},
	}
}
