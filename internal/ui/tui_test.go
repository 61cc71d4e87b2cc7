package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/trabalhosfenix/planconv/internal/export"
)

func str(s string) *string { return &s }

func sampleDoc() *export.Document {
	return &export.Document{
		Name: str("Demo"),
		Tasks: []export.Task{
			{ID: 1, Name: str("Design"), PercentComplete: 100, Duration: str("5.0d")},
			{ID: 2, Name: str("Build"), PercentComplete: 40, ResourceNames: str("Carol"), Predecessors: str("1FI")},
			{ID: 3, Name: str("Launch"), Milestone: true},
			{ID: 4, Name: str("Phase"), Summary: true},
		},
		Warnings: []string{"task 5: predecessor 1 has no resolvable target"},
	}
}

func loaded(t *testing.T, doc *export.Document, err error, opts ...BrowseOption) *browserModel {
	t.Helper()
	m := newBrowserModel(context.Background(), func(context.Context) (*export.Document, error) {
		return doc, err
	}, opts...)
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should return a load command")
	}
	m.Update(cmd())
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserView(t *testing.T) {
	m := loaded(t, sampleDoc(), nil)
	view := m.View()

	for _, want := range []string{"planconv - Demo", "Tasks: 4", "Milestones: 1", "Done: 1", "Design", "Task 1", "1 warning(s)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBrowserNavigation(t *testing.T) {
	m := loaded(t, sampleDoc(), nil)

	m.Update(key("down"))
	if got := m.selected(); got == nil || got.ID != 2 {
		t.Fatalf("expected task 2 selected, got %+v", got)
	}
	if !strings.Contains(m.View(), "Carol") {
		t.Error("detail pane should show resources of the selected task")
	}

	m.Update(key("G"))
	if got := m.selected(); got.ID != 4 {
		t.Errorf("expected last task, got %d", got.ID)
	}
	m.Update(key("down"))
	if got := m.selected(); got.ID != 4 {
		t.Errorf("cursor should stop at the end, got %d", got.ID)
	}
	m.Update(key("g"))
	m.Update(key("up"))
	if got := m.selected(); got.ID != 1 {
		t.Errorf("cursor should stop at the start, got %d", got.ID)
	}
}

func TestBrowserDetailLinks(t *testing.T) {
	doc := sampleDoc()
	doc.Tasks[1].Links = []export.Link{{TargetID: 1, Type: "FS", Lag: "+2.0d"}}
	m := loaded(t, doc, nil)
	m.Update(key("down"))

	view := m.View()
	if !strings.Contains(view, "1 FS+2.0d") {
		t.Errorf("detail missing link with lag:\n%s", view)
	}

	t.Run("falls back to encoded predecessors", func(t *testing.T) {
		m := loaded(t, sampleDoc(), nil)
		m.Update(key("down"))
		if view := m.View(); !strings.Contains(view, "1FI") {
			t.Errorf("detail missing predecessors:\n%s", view)
		}
	})
}

func TestBrowserPaging(t *testing.T) {
	m := loaded(t, sampleDoc(), nil, WithPageSize(2))
	m.Update(key("down"))
	m.Update(key("down"))
	if m.offset != 1 {
		t.Errorf("offset = %d, want 1", m.offset)
	}
	if !strings.Contains(m.View(), "2-3 of 4") {
		t.Errorf("expected page indicator:\n%s", m.View())
	}
}

func TestBrowserFilters(t *testing.T) {
	tests := []struct {
		key  string
		want []int
	}{
		{"1", []int{3}},
		{"2", []int{4}},
		{"3", []int{2}},
		{"4", []int{1}},
		{"0", []int{1, 2, 3, 4}},
	}
	m := loaded(t, sampleDoc(), nil)
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m.Update(key(tt.key))
			var got []int
			for _, i := range m.visible {
				got = append(got, m.doc.Tasks[i].ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("visible = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("visible = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestBrowserLoadError(t *testing.T) {
	m := loaded(t, nil, errors.New("corrupt file"))
	view := m.View()
	if !strings.Contains(view, "corrupt file") {
		t.Errorf("expected error in view:\n%s", view)
	}
	if m.selected() != nil {
		t.Error("nothing should be selected")
	}
}

func TestBrowserHelpAndQuit(t *testing.T) {
	m := loaded(t, sampleDoc(), nil)
	m.Update(key("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help screen not shown")
	}
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("buffer is not a TTY")
	}
}
