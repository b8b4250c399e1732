package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	lipgloss "github.com/charmbracelet/lipgloss"
)

type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	}
	return "NONE"
}

var (
	mu           sync.Mutex
	level        = LevelWarn
	colorEnabled = true
	outWriter    io.Writer // nil = os.Stdout / os.Stderr per level
	exit         = os.Exit
)

var (
	styleTrace = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("#56d7c2"))
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
)

// Palette recolours the level tags. The TUI calls it whenever the theme changes.
type Palette struct {
	Trace, Debug, Info, Warn, Error lipgloss.TerminalColor
}

func SetPalette(p Palette) {
	mu.Lock()
	defer mu.Unlock()
	styleTrace = lipgloss.NewStyle().Foreground(p.Trace)
	styleDebug = lipgloss.NewStyle().Foreground(p.Debug)
	styleInfo = lipgloss.NewStyle().Foreground(p.Info)
	styleWarn = lipgloss.NewStyle().Foreground(p.Warn)
	styleError = lipgloss.NewStyle().Foreground(p.Error)
}

func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

func SetColor(f bool) {
	mu.Lock()
	colorEnabled = f
	mu.Unlock()
}

// SetOutput sends every level to w. A custom writer receives plain text so
// the TUI log panel can apply its own styling. nil restores stdout/stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	outWriter = w
	mu.Unlock()
}

func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "none":
		return LevelNone
	case "error", "err":
		return LevelError
	case "", "warn", "warning":
		return LevelWarn
	case "info":
		return LevelInfo
	case "debug", "dbg":
		return LevelDebug
	case "trace", "trc":
		return LevelTrace
	default:
		return LevelWarn
	}
}

func write(l Level, style lipgloss.Style, format string, v ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < l && l != LevelNone {
		return
	}
	w := outWriter
	useColor := colorEnabled && w == nil
	if w == nil {
		w = os.Stdout
		if l <= LevelWarn {
			w = os.Stderr
		}
	}
	tag := "[" + l.String() + "]"
	if l == LevelNone {
		tag = "[FATAL]"
	}
	msg := fmt.Sprintf(format, v...)
	if useColor {
		fmt.Fprintf(w, "%s %s\n", style.Render(tag), msg)
	} else {
		fmt.Fprintf(w, "%s %s\n", tag, msg)
	}
}

func Trace(format string, v ...any) { write(LevelTrace, styleTrace, format, v...) }
func Debug(format string, v ...any) { write(LevelDebug, styleDebug, format, v...) }
func Info(format string, v ...any)  { write(LevelInfo, styleInfo, format, v...) }
func Warn(format string, v ...any)  { write(LevelWarn, styleWarn, format, v...) }
func Error(format string, v ...any) { write(LevelError, styleError, format, v...) }

// Fatal always prints, regardless of level, then exits.
func Fatal(format string, v ...any) {
	write(LevelNone, styleError, format, v...)
	exit(1)
}
