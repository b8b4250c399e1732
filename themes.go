package main

import (
	"strings"

	lipgloss "github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nulifyer/gugetctl/logger"
)

type Theme struct {
	Border lipgloss.TerminalColor
	Muted  lipgloss.TerminalColor
	Text   lipgloss.TerminalColor
	Subtle lipgloss.TerminalColor
	Accent lipgloss.TerminalColor
	Green  lipgloss.TerminalColor
	Yellow lipgloss.TerminalColor
	Red    lipgloss.TerminalColor
	Purple lipgloss.TerminalColor
	Cyan   lipgloss.TerminalColor
	// Markdown is the glamour standard style used by the detail pane.
	Markdown string
}

var validThemeNames = []string{"auto", "dark", "light", "dracula", "nord", "gruvbox"}

var themes = map[string]Theme{
	"auto": {
		Border:   lipgloss.AdaptiveColor{Dark: "#30363d", Light: "#d0d7de"},
		Muted:    lipgloss.AdaptiveColor{Dark: "#484f58", Light: "#8c959f"},
		Text:     lipgloss.AdaptiveColor{Dark: "#e6edf3", Light: "#1f2328"},
		Subtle:   lipgloss.AdaptiveColor{Dark: "#8b949e", Light: "#656d76"},
		Accent:   lipgloss.AdaptiveColor{Dark: "#58a6ff", Light: "#0969da"},
		Green:    lipgloss.AdaptiveColor{Dark: "#3fb950", Light: "#1a7f37"},
		Yellow:   lipgloss.AdaptiveColor{Dark: "#d29922", Light: "#9a6700"},
		Red:      lipgloss.AdaptiveColor{Dark: "#f85149", Light: "#cf222e"},
		Purple:   lipgloss.AdaptiveColor{Dark: "#bc8cff", Light: "#8250df"},
		Cyan:     lipgloss.AdaptiveColor{Dark: "#56d7c2", Light: "#0d7680"},
		Markdown: "dark",
	},
	"dark": {
		Border:   lipgloss.Color("#30363d"),
		Muted:    lipgloss.Color("#484f58"),
		Text:     lipgloss.Color("#e6edf3"),
		Subtle:   lipgloss.Color("#8b949e"),
		Accent:   lipgloss.Color("#58a6ff"),
		Green:    lipgloss.Color("#3fb950"),
		Yellow:   lipgloss.Color("#d29922"),
		Red:      lipgloss.Color("#f85149"),
		Purple:   lipgloss.Color("#bc8cff"),
		Cyan:     lipgloss.Color("#56d7c2"),
		Markdown: "dark",
	},
	"light": {
		Border:   lipgloss.Color("#d0d7de"),
		Muted:    lipgloss.Color("#8c959f"),
		Text:     lipgloss.Color("#1f2328"),
		Subtle:   lipgloss.Color("#656d76"),
		Accent:   lipgloss.Color("#0969da"),
		Green:    lipgloss.Color("#1a7f37"),
		Yellow:   lipgloss.Color("#9a6700"),
		Red:      lipgloss.Color("#cf222e"),
		Purple:   lipgloss.Color("#8250df"),
		Cyan:     lipgloss.Color("#0d7680"),
		Markdown: "light",
	},
	"dracula": {
		Border:   lipgloss.Color("#44475a"),
		Muted:    lipgloss.Color("#6272a4"),
		Text:     lipgloss.Color("#f8f8f2"),
		Subtle:   lipgloss.Color("#6272a4"),
		Accent:   lipgloss.Color("#8be9fd"),
		Green:    lipgloss.Color("#50fa7b"),
		Yellow:   lipgloss.Color("#f1fa8c"),
		Red:      lipgloss.Color("#ff5555"),
		Purple:   lipgloss.Color("#bd93f9"),
		Cyan:     lipgloss.Color("#8be9fd"),
		Markdown: "dracula",
	},
	"nord": {
		Border:   lipgloss.Color("#3b4252"),
		Muted:    lipgloss.Color("#4c566a"),
		Text:     lipgloss.Color("#eceff4"),
		Subtle:   lipgloss.Color("#d8dee9"),
		Accent:   lipgloss.Color("#88c0d0"),
		Green:    lipgloss.Color("#a3be8c"),
		Yellow:   lipgloss.Color("#ebcb8b"),
		Red:      lipgloss.Color("#bf616a"),
		Purple:   lipgloss.Color("#b48ead"),
		Cyan:     lipgloss.Color("#8fbcbb"),
		Markdown: "dark",
	},
	"gruvbox": {
		Border:   lipgloss.Color("#665c54"),
		Muted:    lipgloss.Color("#a89984"),
		Text:     lipgloss.Color("#ebdbb2"),
		Subtle:   lipgloss.Color("#bdae93"),
		Accent:   lipgloss.Color("#83a598"),
		Green:    lipgloss.Color("#b8bb26"),
		Yellow:   lipgloss.Color("#fabd2f"),
		Red:      lipgloss.Color("#fb4934"),
		Purple:   lipgloss.Color("#d3869b"),
		Cyan:     lipgloss.Color("#8ec07c"),
		Markdown: "dark",
	},
}

// Current theme colors. initTheme replaces them before the model is built.
var (
	colorBorder lipgloss.TerminalColor
	colorMuted  lipgloss.TerminalColor
	colorText   lipgloss.TerminalColor
	colorSubtle lipgloss.TerminalColor
	colorAccent lipgloss.TerminalColor
	colorGreen  lipgloss.TerminalColor
	colorYellow lipgloss.TerminalColor
	colorRed    lipgloss.TerminalColor
	colorPurple lipgloss.TerminalColor
	colorCyan   lipgloss.TerminalColor

	markdownStyle = "dark"
)

var (
	styleMuted      lipgloss.Style
	styleSubtle     lipgloss.Style
	styleText       lipgloss.Style
	styleTextBold   lipgloss.Style
	styleAccent     lipgloss.Style
	styleAccentBold lipgloss.Style
	styleGreen      lipgloss.Style
	styleYellow     lipgloss.Style
	styleRed        lipgloss.Style
	stylePurple     lipgloss.Style
	styleCyan       lipgloss.Style
	styleBorder     lipgloss.Style

	styleHeaderTitle lipgloss.Style
	styleHeaderBar   lipgloss.Style
	styleFooterBar   lipgloss.Style
	stylePanel       lipgloss.Style
	styleTabActive   lipgloss.Style
	styleTab         lipgloss.Style
	styleSelected    lipgloss.Style
)

func init() { applyTheme(themes["auto"]) }

// initTheme applies the named theme. With noColor every style renders plain.
func initTheme(name string, noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		markdownStyle = "notty"
		return
	}
	t, ok := themes[strings.ToLower(name)]
	if !ok {
		logger.Warn("Unknown theme %q, falling back to \"auto\"", name)
		t = themes["auto"]
	}
	applyTheme(t)
}

func applyTheme(t Theme) {
	colorBorder, colorMuted, colorText, colorSubtle = t.Border, t.Muted, t.Text, t.Subtle
	colorAccent, colorGreen, colorYellow, colorRed = t.Accent, t.Green, t.Yellow, t.Red
	colorPurple, colorCyan = t.Purple, t.Cyan
	markdownStyle = t.Markdown

	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
	styleSubtle = lipgloss.NewStyle().Foreground(colorSubtle)
	styleText = lipgloss.NewStyle().Foreground(colorText)
	styleTextBold = styleText.Bold(true)
	styleAccent = lipgloss.NewStyle().Foreground(colorAccent)
	styleAccentBold = styleAccent.Bold(true)
	styleGreen = lipgloss.NewStyle().Foreground(colorGreen)
	styleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	styleRed = lipgloss.NewStyle().Foreground(colorRed)
	stylePurple = lipgloss.NewStyle().Foreground(colorPurple)
	styleCyan = lipgloss.NewStyle().Foreground(colorCyan)
	styleBorder = lipgloss.NewStyle().Foreground(colorBorder)

	styleHeaderTitle = styleAccentBold.Padding(0, 2)
	styleHeaderBar = lipgloss.NewStyle().BorderBottom(true).BorderStyle(lipgloss.NormalBorder()).BorderBottomForeground(colorBorder)
	styleFooterBar = lipgloss.NewStyle().BorderTop(true).BorderStyle(lipgloss.NormalBorder()).BorderTopForeground(colorBorder).Padding(0, 2)
	stylePanel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	styleTabActive = styleAccentBold.Underline(true).Padding(0, 1)
	styleTab = styleSubtle.Padding(0, 1)
	styleSelected = styleTextBold.Background(colorBorder)

	logger.SetPalette(logger.Palette{
		Trace: colorSubtle,
		Debug: colorCyan,
		Info:  colorGreen,
		Warn:  colorYellow,
		Error: colorRed,
	})
}
