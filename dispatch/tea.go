package dispatch

import tea "github.com/charmbracelet/bubbletea"

// ProgramSender matches *tea.Program's Send method.
type ProgramSender interface {
	Send(msg tea.Msg)
}

// TaskMsg carries a task into the program's Update loop, which must run it
// with a context from WithOwner.
type TaskMsg struct {
	Task Task
}

// Program posts tasks to a bubbletea program.
type Program struct {
	Sender ProgramSender
}

func (p *Program) Post(task Task) {
	p.Sender.Send(TaskMsg{Task: task})
}
