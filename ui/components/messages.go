package components

import (
	"strings"

	"github.com/oxbot/oxbot/internal/models"
	"github.com/oxbot/oxbot/ui/styles"
)

func RenderMessages(messages []models.Message) string {
	var b strings.Builder

	programStyle := styles.ProgramStyle()
	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	codeStyle := styles.CodeStyle()
	consoleStyle := styles.ConsoleStyle()
	errorStyle := styles.ErrorStyle()

	for _, msg := range messages {
		switch msg.Type {
		case models.Program:
			b.WriteString(programStyle.Render(msg.Content) + "\n\n")
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render("Assistant: "+msg.Content) + "\n\n")
		case models.CodeBlock:
			header := msg.Language
			if header == "" {
				header = "code"
			}
			b.WriteString(codeStyle.Render(header+"\n"+msg.Content) + "\n\n")
		case models.Console:
			b.WriteString(consoleStyle.Render(strings.TrimRight(msg.Content, "\n")) + "\n\n")
		case models.ErrorLine:
			b.WriteString(errorStyle.Render(msg.Content) + "\n\n")
		}
	}

	return b.String()
}
