package components

import (
	"github.com/oxbot/oxbot/ui/styles"
)

func RenderInput(input string, width int) string {
	inputStyle := styles.InputStyle(width)
	return inputStyle.Render(input)
}

// RenderApproval draws the pending code block with its decision prompt.
func RenderApproval(code, language string, width int) string {
	approvalStyle := styles.ApprovalStyle(width)
	header := "Run this " + language + " code? [y]es / [n]o"
	return approvalStyle.Render(header + "\n\n" + code)
}
