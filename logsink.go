package main

import (
	"strings"

	bubble_tea "github.com/charmbracelet/bubbletea"
)

// logSink receives logger output and queues it for the log panel. Writes
// never block: the logger may be called from inside Update, and a full
// queue drops lines rather than stall the UI.
type logSink struct {
	lines chan string
}

func newLogSink(size int) *logSink {
	return &logSink{lines: make(chan string, size)}
}

func (s *logSink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		select {
		case s.lines <- line:
		default:
		}
	}
	return len(p), nil
}

// next waits for the following log line.
func (s *logSink) next() bubble_tea.Cmd {
	return func() bubble_tea.Msg {
		return logLineMsg{line: <-s.lines}
	}
}
