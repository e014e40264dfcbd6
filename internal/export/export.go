package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oxbot/oxbot/internal/models"
)

// Markdown writes the conversation as a markdown transcript into dir and
// returns the file path.
func Markdown(dir string, history []models.ChatMessage) (string, error) {
	var b strings.Builder
	b.WriteString("# Conversation export\n\n")
	b.WriteString(fmt.Sprintf("Exported %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			b.WriteString("## You\n\n")
		default:
			b.WriteString("## Assistant\n\n")
		}
		if m.Content != "" {
			b.WriteString(m.Content)
			b.WriteString("\n\n")
		}
		if m.Code != "" {
			b.WriteString("```")
			b.WriteString(m.Language)
			b.WriteString("\n")
			b.WriteString(m.Code)
			b.WriteString("\n```\n\n")
		}
		if m.Output != "" {
			b.WriteString("Output:\n\n```\n")
			b.WriteString(m.Output)
			b.WriteString("\n```\n\n")
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("conversation-%s.md", timestamp()))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// JSON writes the raw conversation history as JSON into dir and returns the
// file path.
func JSON(dir string, history []models.ChatMessage) (string, error) {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("conversation-%s.json", timestamp()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func timestamp() string {
	return time.Now().Format("20060102-150405")
}
