package main

import (
	"context"
	"fmt"
	"strings"

	bubbles_spinner "github.com/charmbracelet/bubbles/spinner"
	bubbles_textinput "github.com/charmbracelet/bubbles/textinput"
	bubbles_viewport "github.com/charmbracelet/bubbles/viewport"
	bubble_tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	lipgloss "github.com/charmbracelet/lipgloss"

	"github.com/nulifyer/gugetctl/catalog"
	"github.com/nulifyer/gugetctl/control"
	"github.com/nulifyer/gugetctl/dispatch"
	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/search"
	"github.com/nulifyer/gugetctl/source"
	"github.com/nulifyer/gugetctl/status"
)

const (
	logPanelLines       = 6
	logPanelOuterHeight = logPanelLines + 4 // border(2) + title(1) + divider(1)
	maxLayoutWidth      = 200
	minLayoutWidth      = 80
	maxLogLines         = 500
	filterCount         = 3
)

type focusPanel int

const (
	focusSources focusPanel = iota
	focusPackages
	focusDetail
	focusLog
)

type searchResultsMsg struct {
	result catalog.Result
}

type logLineMsg struct {
	line string
}

// ─────────────────────────────────────────────
// Board: state the session writes through its collaborators
// ─────────────────────────────────────────────

// board is shared by pointer between copies of Model. The session reaches
// it as its source picker, its package list view and its searcher, always
// from inside Update.
type board struct {
	session    *control.Session
	dispatcher dispatch.Dispatcher
	searcher   *catalog.Searcher
	markdown   *markdownRenderer

	sources      []source.PackageSource
	sourceCursor int

	packages []*search.Package
	loading  bool
	err      error
}

func (b *board) SetItems(sources []source.PackageSource) {
	b.sources = sources
	if b.sourceCursor >= len(sources) {
		b.sourceCursor = max(len(sources)-1, 0)
	}
}

func (b *board) SetSelected(index int) {
	if index >= 0 && index < len(b.sources) {
		b.sourceCursor = index
	}
}

func (b *board) ImpliesStatus() bool { return b.session.Filter().ImpliesStatus() }

func (b *board) Items() []any {
	out := make([]any, len(b.packages))
	for i, p := range b.packages {
		out[i] = p
	}
	return out
}

// Reload re-runs the current search; membership of a filtered list can only
// change that way.
func (b *board) Reload(context.Context) error {
	b.session.Refresh()
	return nil
}

func (b *board) Search(req search.Request) {
	b.loading = true
	b.err = nil
	b.searcher.Search(req)
}

// ─────────────────────────────────────────────
// Markdown
// ─────────────────────────────────────────────

type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func (r *markdownRenderer) render(md string, width int) string {
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logger.Debug("markdown renderer: %v", err)
			return md
		}
		r.renderer, r.width = tr, width
	}
	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n ")
}

func statusLabel(pkg *search.Package) string {
	if pkg.StatusErr != nil {
		return "unknown (" + pkg.StatusErr.Error() + ")"
	}
	return pkg.Status.String()
}

func packageMarkdown(pkg *search.Package, prerelease bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", pkg.ID)
	if pkg.Authors != "" {
		fmt.Fprintf(&b, "*by %s*\n\n", pkg.Authors)
	}
	if pkg.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", pkg.Description)
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n", statusLabel(pkg))
	if latest, ok := pkg.Latest(); ok {
		fmt.Fprintf(&b, "**Latest:** %s\n\n", latest)
	}
	if len(pkg.Versions) > 0 {
		if prerelease {
			b.WriteString("## Versions (including prerelease)\n\n")
		} else {
			b.WriteString("## Versions\n\n")
		}
		for i := len(pkg.Versions) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "- %s\n", pkg.Versions[i])
		}
	}
	return b.String()
}

// ─────────────────────────────────────────────
// Model
// ─────────────────────────────────────────────

type Model struct {
	width  int
	height int
	focus  focusPanel

	ctx   context.Context
	board *board
	sink  *logSink

	packageCursor int
	packageOffset int

	detailView bubbles_viewport.Model
	spinner    bubbles_spinner.Model

	input     bubbles_textinput.Model
	searching bool

	logLines []string
	logView  bubbles_viewport.Model
	showLogs bool

	statusLine  string
	statusIsErr bool
}

func NewModel(ctx context.Context, b *board, sink *logSink) Model {
	sp := bubbles_spinner.New()
	sp.Spinner = bubbles_spinner.Dot
	sp.Style = styleAccent

	ti := bubbles_textinput.New()
	ti.Placeholder = "Search packages…"
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		ctx:        ctx,
		board:      b,
		sink:       sink,
		focus:      focusPackages,
		spinner:    sp,
		input:      ti,
		detailView: bubbles_viewport.New(40, 20),
		logView:    bubbles_viewport.New(80, logPanelLines),
	}
}

func (m Model) Init() bubble_tea.Cmd {
	cmds := []bubble_tea.Cmd{m.spinner.Tick}
	if m.sink != nil {
		cmds = append(cmds, m.sink.next())
	}
	return bubble_tea.Batch(cmds...)
}

// owned is the context tasks run with on this goroutine.
func (m Model) owned() context.Context {
	return dispatch.WithOwner(m.ctx, m.board.dispatcher)
}

func (m Model) Update(msg bubble_tea.Msg) (bubble_tea.Model, bubble_tea.Cmd) {
	var cmds []bubble_tea.Cmd

	switch msg := msg.(type) {

	case bubble_tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		m.refreshDetail()

	case bubbles_spinner.TickMsg:
		var cmd bubble_tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case dispatch.TaskMsg:
		msg.Task(m.owned())
		m.clampPackageCursor()
		m.refreshDetail()

	case searchResultsMsg:
		if !m.board.searcher.Latest(msg.result.Seq) {
			break
		}
		m.board.loading = false
		m.board.err = msg.result.Err
		if msg.result.Err != nil {
			cmds = append(cmds, m.setStatus("✗ Search failed (see logs)", true))
			break
		}
		m.board.packages = msg.result.Packages
		m.packageCursor = 0
		m.packageOffset = 0
		m.refreshDetail()

	case logLineMsg:
		m.logLines = append(m.logLines, msg.line)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		m.updateLogView()
		cmds = append(cmds, m.sink.next())

	case bubble_tea.KeyMsg:
		if m.searching {
			cmds = append(cmds, m.handleSearchKey(msg))
			return m, bubble_tea.Batch(cmds...)
		}
		cmds = append(cmds, m.handleKey(msg))
		return m, bubble_tea.Batch(cmds...)
	}

	switch m.focus {
	case focusDetail:
		var cmd bubble_tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		cmds = append(cmds, cmd)
	case focusLog:
		if m.showLogs {
			var cmd bubble_tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, bubble_tea.Batch(cmds...)
}

func (m *Model) setStatus(text string, isErr bool) bubble_tea.Cmd {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	m.statusLine = text
	m.statusIsErr = isErr
	return nil
}

func (m *Model) handleKey(msg bubble_tea.KeyMsg) bubble_tea.Cmd {
	s := m.board.session
	switch msg.String() {
	case "ctrl+c", "q":
		return bubble_tea.Quit

	case "tab":
		m.focus = m.nextFocus(1)
	case "shift+tab":
		m.focus = m.nextFocus(-1)

	case "/":
		m.searching = true
		m.input.SetValue(s.SearchText())
		m.input.CursorEnd()
		return m.input.Focus()
	case "x":
		s.ClearSearch()
	case "f":
		s.SetFilter(search.Filter((int(s.Filter()) + 1) % filterCount))
	case "p":
		s.SetIncludePrerelease(!s.IncludePrerelease())
	case "r":
		if err := s.UpdatePackageStatus(m.owned(), m.board); err != nil {
			logger.Warn("refresh: %v", err)
			return m.setStatus("✗ Some statuses could not be refreshed (see logs)", true)
		}
		m.refreshDetail()
		return m.setStatus("✓ Statuses refreshed", false)
	case "R":
		s.Refresh()
	case "d":
		if s.DisclaimerVisible() {
			s.SuppressDisclaimer()
			m.relayout()
		}
	case "l":
		m.showLogs = !m.showLogs
		if !m.showLogs && m.focus == focusLog {
			m.focus = focusPackages
		}
		m.relayout()

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if m.focus == focusSources && len(m.board.sources) > 0 {
			s.SelectSource(m.board.sources[m.board.sourceCursor].Name)
		}
	}
	return nil
}

func (m *Model) handleSearchKey(msg bubble_tea.KeyMsg) bubble_tea.Cmd {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.input.Blur()
		return nil
	case "enter":
		text := m.input.Value()
		m.searching = false
		m.input.Blur()
		if strings.TrimSpace(text) == "" {
			m.board.session.ClearSearch()
		} else {
			m.board.session.Search(text)
		}
		return nil
	}
	var cmd bubble_tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) nextFocus(step int) focusPanel {
	n := 3
	if m.showLogs {
		n = 4
	}
	return focusPanel((int(m.focus) + step + n) % n)
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case focusSources:
		c := m.board.sourceCursor + delta
		if c >= 0 && c < len(m.board.sources) {
			m.board.sourceCursor = c
		}
	case focusPackages:
		c := m.packageCursor + delta
		if c >= 0 && c < len(m.board.packages) {
			m.packageCursor = c
			m.clampPackageCursor()
			m.refreshDetail()
		}
	case focusDetail:
		m.detailView.SetYOffset(m.detailView.YOffset + delta)
	case focusLog:
		m.logView.SetYOffset(m.logView.YOffset + delta)
	}
}

func (m *Model) selectedPackage() *search.Package {
	if m.packageCursor < 0 || m.packageCursor >= len(m.board.packages) {
		return nil
	}
	return m.board.packages[m.packageCursor]
}

func (m *Model) clampPackageCursor() {
	n := len(m.board.packages)
	if m.packageCursor >= n {
		m.packageCursor = max(n-1, 0)
	}
	h := m.packageListHeight()
	if m.packageCursor < m.packageOffset {
		m.packageOffset = m.packageCursor
	}
	if h > 0 && m.packageCursor >= m.packageOffset+h {
		m.packageOffset = m.packageCursor - h + 1
	}
}

func (m *Model) refreshDetail() {
	pkg := m.selectedPackage()
	if pkg == nil {
		m.detailView.SetContent(styleMuted.Render("No package selected"))
		return
	}
	md := packageMarkdown(pkg, m.board.session.IncludePrerelease())
	m.detailView.SetContent(m.board.markdown.render(md, max(m.detailView.Width-2, 20)))
	m.detailView.GotoTop()
}

func (m *Model) updateLogView() {
	colored := make([]string, len(m.logLines))
	for i, line := range m.logLines {
		colored[i] = colorizeLogLine(line)
	}
	m.logView.SetContent(strings.Join(colored, "\n"))
	m.logView.GotoBottom()
}

func colorizeLogLine(line string) string {
	switch {
	case strings.HasPrefix(line, "[TRACE]"):
		return styleMuted.Render(line)
	case strings.HasPrefix(line, "[DEBUG]"):
		return styleCyan.Render(line)
	case strings.HasPrefix(line, "[INFO]"):
		return styleGreen.Render(line)
	case strings.HasPrefix(line, "[WARN]"):
		return styleYellow.Render(line)
	case strings.HasPrefix(line, "[ERROR]"), strings.HasPrefix(line, "[FATAL]"):
		return styleRed.Render(line)
	}
	return styleText.Render(line)
}

// ─────────────────────────────────────────────
// Layout
// ─────────────────────────────────────────────

func (m Model) layoutWidth() int {
	return clampW(m.width, minLayoutWidth, maxLayoutWidth)
}

func (m Model) panelWidths() (left, mid, right int) {
	w := m.layoutWidth()
	left = clampW(w/5, 22, 40)
	right = clampW(w*2/5, 30, 80)
	mid = w - left - right
	return left, mid, right
}

func (m Model) bodyOuterHeight() int {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	if m.showLogs {
		h -= logPanelOuterHeight
	}
	return max(h, 5)
}

// packageListHeight is the number of rows visible in the package panel:
// border(2) and the title line with its divider(2) are not rows.
func (m Model) packageListHeight() int {
	return m.bodyOuterHeight() - 4
}

func (m *Model) relayout() {
	_, _, right := m.panelWidths()
	m.detailView.Width = right - 4
	m.detailView.Height = m.bodyOuterHeight() - 2
	m.logView.Width = m.layoutWidth() - 4
	m.logView.Height = logPanelLines
	m.clampPackageCursor()
}

// ─────────────────────────────────────────────
// View
// ─────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	leftW, midW, rightW := m.panelWidths()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSourcePanel(leftW),
		m.renderPackagePanel(midW),
		m.renderDetailPanel(rightW),
	)

	parts := []string{m.renderHeader(), body}
	if m.showLogs {
		parts = append(parts, m.renderLogPanel())
	}
	parts = append(parts, m.renderFooter())
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.width > m.layoutWidth() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, content)
	}
	return content
}

func (m Model) renderHeader() string {
	s := m.board.session
	title := styleHeaderTitle.Render("◈ " + s.Title())

	var tabs []string
	for f := search.Filter(0); int(f) < filterCount; f++ {
		if f == s.Filter() {
			tabs = append(tabs, styleTabActive.Render(f.Label()))
		} else {
			tabs = append(tabs, styleTab.Render(f.Label()))
		}
	}
	pre := styleSubtle.Render("[ ] prerelease")
	if s.IncludePrerelease() {
		pre = styleAccent.Render("[x] prerelease")
	}

	query := styleMuted.Render("no search")
	if m.searching {
		query = m.input.View()
	} else if t := s.SearchText(); t != "" {
		query = styleText.Render("search: " + t)
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", strings.Join(tabs, " "), "  ", pre),
		"  " + query,
	}
	if s.DisclaimerVisible() {
		lines = append(lines, "  "+styleYellow.Render("Each package is licensed to you by its owner. Press d to dismiss."))
	}
	return styleHeaderBar.Width(m.layoutWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) panelStyle(p focusPanel) lipgloss.Style {
	if m.focus == p {
		return stylePanel.BorderForeground(colorAccent)
	}
	return stylePanel
}

func (m Model) renderSourcePanel(w int) string {
	h := m.bodyOuterHeight()
	innerW := w - 4
	lines := []string{styleAccentBold.Render("Sources"), styleBorder.Render(strings.Repeat("─", innerW))}

	active := m.board.session.ActiveSource()
	if len(m.board.sources) == 0 {
		lines = append(lines, styleMuted.Render("no enabled sources"))
	}
	for i, src := range m.board.sources {
		marker := "  "
		if active != nil && source.SameName(active.Name, src.Name) {
			marker = styleGreen.Render("● ")
		}
		text := truncate(src.Name, innerW-2)
		if m.focus == focusSources && i == m.board.sourceCursor {
			text = styleSelected.Render(padRight(text, innerW-2))
		} else {
			text = styleText.Render(text)
		}
		lines = append(lines, marker+text)
	}
	return m.panelStyle(focusSources).Width(w - 2).Height(h - 2).Render(fitLines(lines, h-2))
}

func statusBadge(pkg *search.Package) string {
	if pkg.StatusErr != nil {
		return styleRed.Render("!")
	}
	switch pkg.Status {
	case status.Installed:
		return styleGreen.Render("✓")
	case status.UpdateAvailable:
		return styleYellow.Render("⬆")
	}
	return styleMuted.Render("·")
}

func (m Model) renderPackagePanel(w int) string {
	h := m.bodyOuterHeight()
	innerW := w - 4

	title := styleAccentBold.Render("Packages")
	if m.board.loading {
		title += " " + m.spinner.View()
	} else {
		title += styleSubtle.Render(fmt.Sprintf(" (%d)", len(m.board.packages)))
	}
	lines := []string{title, styleBorder.Render(strings.Repeat("─", innerW))}

	switch {
	case m.board.err != nil:
		lines = append(lines, styleRed.Render(truncate(m.board.err.Error(), innerW)))
	case len(m.board.packages) == 0 && !m.board.loading:
		lines = append(lines, styleMuted.Render("no packages"))
	}

	verW := 14
	nameW := max(innerW-verW-3, 10)
	end := min(m.packageOffset+m.packageListHeight(), len(m.board.packages))
	for i := m.packageOffset; i < end; i++ {
		pkg := m.board.packages[i]
		latest := ""
		if v, ok := pkg.Latest(); ok {
			latest = v.String()
		}
		row := padRight(truncate(pkg.ID, nameW), nameW) + " " + truncate(latest, verW)
		if m.focus == focusPackages && i == m.packageCursor {
			row = styleSelected.Render(padRight(row, innerW-2))
		} else if i == m.packageCursor {
			row = styleTextBold.Render(row)
		} else {
			row = styleText.Render(row)
		}
		lines = append(lines, statusBadge(pkg)+" "+row)
	}
	return m.panelStyle(focusPackages).Width(w - 2).Height(h - 2).Render(fitLines(lines, h-2))
}

func (m Model) renderDetailPanel(w int) string {
	h := m.bodyOuterHeight()
	return m.panelStyle(focusDetail).Width(w - 2).Height(h - 2).Render(m.detailView.View())
}

func (m Model) renderLogPanel() string {
	title := styleAccentBold.Render("Logs")
	div := styleBorder.Render(strings.Repeat("─", m.layoutWidth()-6))
	content := lipgloss.JoinVertical(lipgloss.Left, title, div, m.logView.View())
	return m.panelStyle(focusLog).Width(m.layoutWidth() - 2).Render(content)
}

func (m Model) footerKeys() []struct{ k, v string } {
	if m.searching {
		return []struct{ k, v string }{{"enter", "search"}, {"esc", "cancel"}}
	}
	keys := []struct{ k, v string }{
		{"tab", "focus"},
		{"↑↓", "move"},
		{"/", "search"},
		{"x", "clear"},
		{"f", "filter"},
		{"p", "prerelease"},
		{"r", "refresh status"},
		{"R", "reload"},
		{"l", "logs"},
		{"q", "quit"},
	}
	if m.focus == focusSources {
		keys = append([]struct{ k, v string }{{"enter", "use source"}}, keys...)
	}
	return keys
}

func (m Model) renderFooter() string {
	var entries []string
	for _, pair := range m.footerKeys() {
		entries = append(entries, styleAccentBold.Render(pair.k)+" "+styleSubtle.Render(pair.v))
	}
	keybinds := strings.Join(entries, styleMuted.Render("  ·  "))

	statusStr := styleSubtle.Render(m.board.session.Tooltip())
	if m.statusLine != "" {
		s := styleGreen
		if m.statusIsErr {
			s = styleRed
		}
		statusStr = s.Render(m.statusLine)
	}

	return styleFooterBar.
		Width(m.layoutWidth()).
		Render(statusStr + "\n" + keybinds)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func clampW(w, minW, maxW int) int {
	return max(minW, min(w, maxW))
}

// padRight pads s to width visible cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// fitLines joins lines, dropping whatever does not fit in h rows.
func fitLines(lines []string, h int) string {
	if h >= 0 && len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}
