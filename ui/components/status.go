package components

import (
	"fmt"
	"strings"

	"github.com/oxbot/oxbot/ui/styles"
)

// StatusInfo carries everything shown on the status bar.
type StatusInfo struct {
	Text        string
	Loading     bool
	LoadingDots int
	Provider    string
	Health      string
	AutoRun     bool
	Automation  bool
	Vision      bool
	TokensIn    int
	TokensOut   int
}

func RenderStatus(info StatusInfo, width int) string {
	statusStyle := styles.StatusStyle(width)

	text := info.Text
	if info.Loading {
		text += strings.Repeat(".", info.LoadingDots)
	}

	var flags []string
	if info.AutoRun {
		flags = append(flags, "auto-run")
	}
	if info.Automation {
		flags = append(flags, "automation")
	}
	if info.Vision {
		flags = append(flags, "vision")
	}

	right := fmt.Sprintf("%s %s | tok %d/%d",
		healthDot(info.Health), info.Provider, info.TokensIn, info.TokensOut)
	if len(flags) > 0 {
		right += " | " + strings.Join(flags, ",")
	}

	gap := width - len(text) - len(right) - 4
	if gap < 1 {
		gap = 1
	}
	return statusStyle.Render(text + strings.Repeat(" ", gap) + right)
}

func healthDot(state string) string {
	switch state {
	case "online":
		return styles.HealthOnline().Render("●")
	case "offline":
		return styles.HealthOffline().Render("●")
	default:
		return styles.HealthUnknown().Render("●")
	}
}
