package ui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todoqueue/internal/config"
	"todoqueue/internal/storage"
)

func newTestModel(t *testing.T) (Model, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg, err := config.LoadOrCreate(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	m, err := NewModel(store, cfg)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m, store
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out
}

func pressKey(t *testing.T, m Model, s string) Model {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func pressEnter(t *testing.T, m Model) Model {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestAddFlow_PersistsItem(t *testing.T) {
	m, store := newTestModel(t)

	m = pressKey(t, m, "a")
	if m.mode != modePrompt {
		t.Fatalf("mode=%v after add key, want modePrompt", m.mode)
	}
	m = typeText(t, m, "groceries")
	m = pressEnter(t, m) // -> category step
	m = typeText(t, m, "home")
	m = pressEnter(t, m) // -> tags step
	m = typeText(t, m, "errand")
	m = pressEnter(t, m) // commit

	if m.mode != modeList {
		t.Fatalf("mode=%v after commit, want modeList", m.mode)
	}
	if len(m.items) != 1 {
		t.Fatalf("visible items=%d, want 1", len(m.items))
	}

	items, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(items) != 1 || items[0].Text != "groceries" || items[0].Category != "home" || items[0].Tags != "errand" {
		t.Fatalf("persisted item wrong: %+v", items)
	}
}

func TestAddFlow_EmptyTextRestartsPrompt(t *testing.T) {
	m, store := newTestModel(t)

	m = pressKey(t, m, "a")
	m = pressEnter(t, m) // empty text -> category
	m = pressEnter(t, m) // empty category -> tags
	m = pressEnter(t, m) // commit rejected

	if m.mode != modePrompt {
		t.Fatalf("empty text should keep the prompt open")
	}
	if items, _ := store.Pending(); len(items) != 0 {
		t.Fatalf("nothing should be persisted, got %+v", items)
	}
}

func TestToggle_CompletesAndReopens(t *testing.T) {
	m, store := newTestModel(t)
	if _, err := store.Add("task", "", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if len(m.items) != 0 {
		t.Fatalf("pending view should be empty after toggle, got %d", len(m.items))
	}

	m = pressKey(t, m, "v") // completed view
	if m.view != viewCompleted || len(m.items) != 1 {
		t.Fatalf("completed view items=%d, want 1", len(m.items))
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace}) // reopen
	if len(m.items) != 0 {
		t.Fatalf("completed view should empty after reopen")
	}
	if items, _ := store.Pending(); len(items) != 1 {
		t.Fatalf("item should be pending again")
	}
}

func TestMoveMode_ReordersAndPersists(t *testing.T) {
	m, store := newTestModel(t)
	a, _ := store.Add("a", "", "")
	b, _ := store.Add("b", "", "")
	c, _ := store.Add("c", "", "")
	if err := m.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	m = pressKey(t, m, "m") // grab "a"
	if m.mode != modeMove || m.moveID != a {
		t.Fatalf("move mode not entered for item %d", a)
	}
	m = pressKey(t, m, "j")
	m = pressKey(t, m, "j")
	m = pressEnter(t, m) // drop at the end
	if m.mode != modeList {
		t.Fatalf("mode=%v after drop, want modeList", m.mode)
	}

	items, _ := store.Pending()
	got := []int{items[0].ID, items[1].ID, items[2].ID}
	want := []int{b, c, a}
	if got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("order=%v, want %v", got, want)
	}
}

func TestDeleteConfirm(t *testing.T) {
	m, store := newTestModel(t)
	store.Add("doomed", "", "")
	m.reload()

	m = pressKey(t, m, "d")
	if !m.confirmDel {
		t.Fatalf("delete confirm not armed")
	}
	m = pressKey(t, m, "n")
	if items, _ := store.Pending(); len(items) != 1 {
		t.Fatalf("'n' must not delete")
	}

	m = pressKey(t, m, "d")
	m = pressKey(t, m, "y")
	if items, _ := store.Pending(); len(items) != 0 {
		t.Fatalf("'y' should delete")
	}
}

func TestClearCompletedConfirm(t *testing.T) {
	m, store := newTestModel(t)
	a, _ := store.Add("a", "", "")
	store.Add("b", "", "")
	store.Complete(a)
	m.reload()

	// Clear is only offered in the completed view.
	m = pressKey(t, m, "C")
	if m.confirmClear {
		t.Fatalf("clear must not arm from pending view")
	}
	m = pressKey(t, m, "v")
	m = pressKey(t, m, "C")
	if !m.confirmClear {
		t.Fatalf("clear confirm not armed")
	}
	m = pressKey(t, m, "y")
	if _, completed, _ := store.Stats(); completed != 0 {
		t.Fatalf("completed not cleared")
	}
	if items, _ := store.Pending(); len(items) != 1 {
		t.Fatalf("pending items must survive clear")
	}
}

func TestFilterFlow(t *testing.T) {
	m, store := newTestModel(t)
	store.Add("report", "work", "urgent")
	store.Add("milk", "home", "errand")
	store.Add("patch", "work", "")
	m.reload()

	m = pressKey(t, m, "/")
	if m.mode != modeFilter {
		t.Fatalf("filter mode not entered")
	}
	m = typeText(t, m, "category:work")
	m = pressEnter(t, m)
	if len(m.items) != 2 {
		t.Fatalf("filtered items=%d, want 2", len(m.items))
	}
	if m.items[0].Text != "report" || m.items[1].Text != "patch" {
		t.Fatalf("filter broke relative order: %+v", m.items)
	}

	// Reopening the prompt starts blank, so a bare enter clears the filter.
	m = pressKey(t, m, "/")
	if m.input.Value() != "" {
		t.Fatalf("filter prompt should open blank, got %q", m.input.Value())
	}
	m = pressEnter(t, m)
	if m.filter.kind != "" {
		t.Fatalf("filter still active: %+v", m.filter)
	}
	if len(m.items) != 3 {
		t.Fatalf("clearing filter should show all, got %d", len(m.items))
	}
}

func TestCategoryColors_LoadedAndRendered(t *testing.T) {
	m, store := newTestModel(t)
	if err := store.AddCategory("work", "#ff0000"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if _, err := store.Add("report", "work", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got := m.catColors["work"]; got != "#ff0000" {
		t.Fatalf("catColors[work]=%q, want %q", got, "#ff0000")
	}

	if got := categoryBadge("#ff0000").GetForeground(); got != lipgloss.Color("#ff0000") {
		t.Fatalf("badge foreground=%v, want #ff0000", got)
	}
	// Unregistered categories keep the default badge color.
	if got := categoryBadge("").GetForeground(); got != badgeStyle.GetForeground() {
		t.Fatalf("empty color should fall back to the default badge style")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in        string
		kind, val string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"category:work", "category", "work"},
		{"cat: work ", "category", "work"},
		{"c:work", "category", "work"},
		{"tag:urgent", "tag", "urgent"},
		{"t:urgent", "tag", "urgent"},
		{"work", "category", "work"},
	}
	for _, tt := range tests {
		got := parseFilter(tt.in)
		if got.kind != tt.kind || got.value != tt.val {
			t.Fatalf("parseFilter(%q)=%+v, want {%s %s}", tt.in, got, tt.kind, tt.val)
		}
	}
}

func TestClampCursor(t *testing.T) {
	tests := []struct{ cur, n, want int }{
		{0, 0, 0},
		{-1, 5, 0},
		{5, 5, 4},
		{2, 5, 2},
		{10, 1, 0},
	}
	for _, tt := range tests {
		if got := clampCursor(tt.cur, tt.n); got != tt.want {
			t.Fatalf("clampCursor(%d,%d)=%d, want %d", tt.cur, tt.n, got, tt.want)
		}
	}
}
