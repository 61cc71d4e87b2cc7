// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/trabalhosfenix/planconv/internal/export"
)

// Loader produces the document shown by the browser. It is called again on refresh.
type Loader func(ctx context.Context) (*export.Document, error)

// BrowseOption configures the browser.
type BrowseOption func(*browseConfig)

type browseConfig struct {
	title    string
	pageSize int
}

// WithTitle sets the heading shown above the task list.
func WithTitle(title string) BrowseOption {
	return func(c *browseConfig) {
		c.title = title
	}
}

// WithPageSize sets how many task rows are visible at once.
func WithPageSize(n int) BrowseOption {
	return func(c *browseConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// Browse starts the task browser on stdout.
func Browse(ctx context.Context, load Loader, opts ...BrowseOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("inspect requires a TTY")
	}
	model := newBrowserModel(ctx, load, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// filter selects a subset of tasks.
type filter int

const (
	filterAll filter = iota
	filterMilestones
	filterSummaries
	filterInProgress
	filterDone
)

func (f filter) String() string {
	switch f {
	case filterMilestones:
		return "milestones"
	case filterSummaries:
		return "summaries"
	case filterInProgress:
		return "in progress"
	case filterDone:
		return "done"
	}
	return "all"
}

func (f filter) match(t export.Task) bool {
	switch f {
	case filterMilestones:
		return t.Milestone
	case filterSummaries:
		return t.Summary
	case filterInProgress:
		return t.PercentComplete > 0 && t.PercentComplete < 100
	case filterDone:
		return t.PercentComplete >= 100
	}
	return true
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	milestoneMark = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("◆")
)

type browserModel struct {
	ctx      context.Context
	load     Loader
	cfg      browseConfig
	doc      *export.Document
	loadErr  error
	visible  []int // indexes into doc.Tasks
	cursor   int
	offset   int
	filter   filter
	showHelp bool
}

type loadedMsg struct {
	doc *export.Document
	err error
}

func newBrowserModel(ctx context.Context, load Loader, opts ...BrowseOption) *browserModel {
	cfg := browseConfig{title: "planconv", pageSize: 15}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &browserModel{ctx: ctx, load: load, cfg: cfg}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m *browserModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		doc, err := m.load(m.ctx)
		return loadedMsg{doc: doc, err: err}
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.doc = msg.doc
		}
		m.applyFilter()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r", "f5":
			return m, m.loadCmd()
		case "h", "?":
			m.showHelp = !m.showHelp
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.cfg.pageSize)
		case "pgdown", " ":
			m.move(m.cfg.pageSize)
		case "home", "g":
			m.move(-len(m.visible))
		case "end", "G":
			m.move(len(m.visible))
		case "0":
			m.setFilter(filterAll)
		case "1":
			m.setFilter(filterMilestones)
		case "2":
			m.setFilter(filterSummaries)
		case "3":
			m.setFilter(filterInProgress)
		case "4":
			m.setFilter(filterDone)
		}
	}
	return m, nil
}

func (m *browserModel) setFilter(f filter) {
	m.filter = f
	m.applyFilter()
}

func (m *browserModel) applyFilter() {
	m.visible = m.visible[:0]
	if m.doc != nil {
		for i, t := range m.doc.Tasks {
			if m.filter.match(t) {
				m.visible = append(m.visible, i)
			}
		}
	}
	m.cursor = 0
	m.offset = 0
}

func (m *browserModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.cfg.pageSize {
		m.offset = m.cursor - m.cfg.pageSize + 1
	}
}

// selected returns the task under the cursor.
func (m *browserModel) selected() *export.Task {
	if m.doc == nil || len(m.visible) == 0 {
		return nil
	}
	return &m.doc.Tasks[m.visible[m.cursor]]
}

func (m *browserModel) View() string {
	var b strings.Builder
	m.writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Error loading plan:") + "\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b)
		return b.String()
	}
	if m.doc == nil {
		b.WriteString("Loading...\n\n")
		writeFooter(&b)
		return b.String()
	}

	writeOverview(&b, m.doc)
	if m.filter != filterAll {
		b.WriteString(fmt.Sprintf("Filter: %s (0 to clear)\n\n", m.filter))
	}
	m.writeList(&b)
	writeDetail(&b, m.selected())
	writeWarnings(&b, m.doc.Warnings)
	writeFooter(&b)
	return b.String()
}

func (m *browserModel) writeTitle(b *strings.Builder) {
	title := m.cfg.title
	if m.doc != nil && m.doc.Name != nil {
		title += " - " + *m.doc.Name
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)) + "\n\n")
}

func writeOverview(b *strings.Builder, doc *export.Document) {
	var milestones, summaries, done int
	for _, t := range doc.Tasks {
		if t.Milestone {
			milestones++
		}
		if t.Summary {
			summaries++
		}
		if t.PercentComplete >= 100 {
			done++
		}
	}
	b.WriteString(fmt.Sprintf("  Tasks: %d  Milestones: %d  Summaries: %d  Done: %d\n\n",
		len(doc.Tasks), milestones, summaries, done))
}

func (m *browserModel) writeList(b *strings.Builder) {
	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("  No tasks match.") + "\n\n")
		return
	}
	end := m.offset + m.cfg.pageSize
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for row := m.offset; row < end; row++ {
		line := formatRow(m.doc.Tasks[m.visible[row]])
		if row == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(m.visible) > m.cfg.pageSize {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(m.visible))) + "\n")
	}
	b.WriteString("\n")
}

func formatRow(t export.Task) string {
	mark := " "
	switch {
	case t.Milestone:
		mark = milestoneMark
	case t.Summary:
		mark = "+"
	}
	return fmt.Sprintf("  %s %4d  %-32s %5.1f%%  %s", mark, t.ID, truncate(text(t.Name), 32),
		t.PercentComplete, text(t.Duration))
}

func writeDetail(b *strings.Builder, t *export.Task) {
	if t == nil {
		return
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("Task %d", t.ID)) + "\n\n")
	rows := []struct {
		label string
		value string
	}{
		{"Name", text(t.Name)},
		{"WBS", text(t.WBS)},
		{"Start", text(t.Start)},
		{"Finish", text(t.Finish)},
		{"Duration", text(t.Duration)},
		{"Complete", fmt.Sprintf("%g%%", t.PercentComplete)},
		{"Resources", text(t.ResourceNames)},
		{"Predecessors", links(t)},
		{"Notes", truncate(strings.ReplaceAll(text(t.Notes), "\n", " "), 60)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-13s %s\n", row.label+":", row.value))
	}
	b.WriteString("\n")
}

// links prefers the resolved links, which carry lag, over the encoded field.
func links(t *export.Task) string {
	if len(t.Links) == 0 {
		return text(t.Predecessors)
	}
	parts := make([]string, len(t.Links))
	for i, l := range t.Links {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString(errorStyle.Render(fmt.Sprintf("%d warning(s)", len(warnings))) + "\n")
	for _, w := range warnings {
		b.WriteString("  " + w + "\n")
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  q, esc       Quit\n")
	b.WriteString("  up/k down/j  Move selection\n")
	b.WriteString("  pgup pgdown  Move one page\n")
	b.WriteString("  g, G         First or last task\n")
	b.WriteString("  r, F5        Reload the file\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  1            Milestones only\n")
	b.WriteString("  2            Summary tasks only\n")
	b.WriteString("  3            Tasks in progress\n")
	b.WriteString("  4            Completed tasks\n")
	b.WriteString("  0            Clear filter\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString(dimStyle.Render("Press h for help | q to quit | r to reload") + "\n")
}

func text(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
