package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoqueue/internal/config"
	"todoqueue/internal/storage"
)

type mode int

const (
	modeList mode = iota
	modePrompt
	modeMove
	modeFilter
)

type view int

const (
	viewPending view = iota
	viewCompleted
)

// promptState backs the add and edit flows; both walk the same
// text -> category -> tags steps.
type promptState struct {
	id       int // 0 while adding
	step     int
	text     string
	category string
	tags     string
}

type filterState struct {
	kind  string // "category" or "tag", "" when inactive
	value string
}

type Model struct {
	store  *storage.Store
	cfg    config.Config
	items  []storage.Item
	cursor int
	mode   mode
	view   view
	input  textinput.Model
	status string
	prompt *promptState
	filter filterState

	confirmDel   bool
	pendingDel   *storage.Item
	confirmClear bool

	catColors map[string]string // lowercase category name -> stored color

	moveID int // grabbed item while in move mode
}

func Run(store *storage.Store, cfg config.Config) error {
	m, err := NewModel(store, cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m)
	_, err = program.Run()
	return err
}

func NewModel(store *storage.Store, cfg config.Config) (Model, error) {
	ti := textinput.New()
	ti.Placeholder = "Todo text"
	ti.CharLimit = 256
	ti.Width = 40

	v := viewPending
	if cfg.DefaultView == "completed" {
		v = viewCompleted
	}

	m := Model{
		store:  store,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		view:   v,
		status: fmt.Sprintf("Press '%s' to add, '%s' to grab and reorder, '%s' for completed.", cfg.Keys.Add, cfg.Keys.Move, cfg.Keys.Completed),
	}
	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.confirmClear {
			return m.updateClearConfirm(msg.String())
		}
		switch m.mode {
		case modePrompt:
			return m.updatePromptMode(msg.String(), msg)
		case modeMove:
			return m.updateMoveMode(msg.String())
		case modeFilter:
			return m.updateFilterMode(msg.String(), msg)
		default:
			return m.updateListMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// reload refreshes the visible slice from the store, reapplying the active
// filter and clamping the cursor.
func (m *Model) reload() error {
	var items []storage.Item
	var err error
	if m.view == viewCompleted {
		items, err = m.store.Completed()
	} else {
		items, err = m.store.Pending()
	}
	if err != nil {
		return err
	}
	switch m.filter.kind {
	case "category":
		items = storage.FilterCategory(items, m.filter.value)
	case "tag":
		items = storage.FilterTag(items, m.filter.value)
	}
	m.items = items
	m.cursor = clampCursor(m.cursor, len(m.items))

	cats, err := m.store.Categories()
	if err != nil {
		return err
	}
	colors := make(map[string]string, len(cats))
	for _, c := range cats {
		colors[strings.ToLower(c.Name)] = c.Color
	}
	m.catColors = colors
	return nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.items) > 0 {
			m.cursor = clampCursor(m.cursor+1, len(m.items))
		}
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.items))
		}
	case m.cfg.Keys.Add:
		m.prompt = &promptState{}
		m.mode = modePrompt
		m.input.SetValue("")
		m.input.Placeholder = promptLabels[0]
		m.input.Focus()
		m.status = "New todo: enter text, then category, then tags"
	case m.cfg.Keys.Toggle:
		return m.toggleCurrent()
	case m.cfg.Keys.Delete:
		if len(m.items) == 0 {
			return m, nil
		}
		it := m.items[m.cursor]
		m.confirmDel = true
		m.pendingDel = &it
		m.status = fmt.Sprintf("Delete %q? y/n", it.Text)
	case m.cfg.Keys.Edit:
		if len(m.items) == 0 {
			m.status = "Nothing to edit"
			return m, nil
		}
		it := m.items[m.cursor]
		m.prompt = &promptState{id: it.ID, text: it.Text, category: it.Category, tags: it.Tags}
		m.mode = modePrompt
		m.input.SetValue(it.Text)
		m.input.Placeholder = promptLabels[0]
		m.input.Focus()
		m.status = fmt.Sprintf("Editing #%d", it.ID)
	case m.cfg.Keys.Move:
		if m.view != viewPending {
			m.status = "Completed items keep their finish order"
			return m, nil
		}
		if m.filter.kind != "" {
			m.status = "Clear the filter before reordering"
			return m, nil
		}
		if len(m.items) == 0 {
			return m, nil
		}
		m.moveID = m.items[m.cursor].ID
		m.mode = modeMove
		m.status = fmt.Sprintf("Moving %q: %s/%s to shift, %s to drop", m.items[m.cursor].Text, m.cfg.Keys.Up, m.cfg.Keys.Down, m.cfg.Keys.Confirm)
	case m.cfg.Keys.Filter:
		// The prompt always starts blank: confirming an empty entry clears
		// the active filter.
		m.mode = modeFilter
		m.input.SetValue("")
		m.input.Placeholder = "category:<name> or tag:<name>, empty clears"
		m.input.Focus()
		m.status = "Filter the list"
	case m.cfg.Keys.Completed:
		if m.view == viewPending {
			m.view = viewCompleted
		} else {
			m.view = viewPending
		}
		m.cursor = 0
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = viewLabel(m.view)
		}
	case m.cfg.Keys.ClearDone:
		if m.view != viewCompleted {
			m.status = fmt.Sprintf("Press '%s' first to open the completed view", m.cfg.Keys.Completed)
			return m, nil
		}
		if len(m.items) == 0 {
			m.status = "No completed todos to clear"
			return m, nil
		}
		m.confirmClear = true
		m.status = fmt.Sprintf("Delete all %d completed todos? y/n", len(m.items))
	}
	return m, nil
}

func (m Model) toggleCurrent() (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		return m, nil
	}
	it := m.items[m.cursor]
	var err error
	if m.view == viewPending {
		err = m.store.Complete(it.ID)
	} else {
		err = m.store.Reopen(it.ID)
	}
	if err != nil {
		m.status = fmt.Sprintf("toggle failed: %v", err)
		return m, nil
	}
	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	if m.view == viewPending {
		m.status = fmt.Sprintf("Completed %q", it.Text)
	} else {
		m.status = fmt.Sprintf("Reopened %q", it.Text)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.confirmDel = false
			return m, nil
		}
		if err := m.store.Delete(m.pendingDel.ID); err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
		} else if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = fmt.Sprintf("Deleted %q", m.pendingDel.Text)
		}
		m.confirmDel = false
		m.pendingDel = nil
	}
	return m, nil
}

func (m Model) updateClearConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Clear cancelled"
		m.confirmClear = false
	case "y", "Y":
		n, err := m.store.ClearCompleted()
		if err != nil {
			m.status = fmt.Sprintf("clear failed: %v", err)
		} else if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = fmt.Sprintf("Cleared %d completed todos", n)
		}
		m.confirmClear = false
	}
	return m, nil
}

var promptLabels = [...]string{"text", "category (optional)", "tags, comma separated (optional)"}

func (m Model) updatePromptMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.prompt = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if m.prompt == nil {
			return m, nil
		}
		m.prompt.setStep(m.input.Value())
		if m.prompt.step < len(promptLabels)-1 {
			m.prompt.step++
			m.input.SetValue(m.prompt.stepValue())
			m.input.Placeholder = promptLabels[m.prompt.step]
			m.status = fmt.Sprintf("Step %d of %d: %s", m.prompt.step+1, len(promptLabels), promptLabels[m.prompt.step])
			return m, nil
		}
		return m.commitPrompt()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) commitPrompt() (tea.Model, tea.Cmd) {
	p := m.prompt
	if strings.TrimSpace(p.text) == "" {
		m.status = "Text cannot be empty"
		p.step = 0
		m.input.SetValue(p.text)
		m.input.Placeholder = promptLabels[0]
		return m, nil
	}

	var targetID int
	if p.id == 0 {
		id, err := m.store.Add(p.text, p.category, p.tags)
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		targetID = id
		m.status = fmt.Sprintf("Added %q", strings.TrimSpace(p.text))
	} else {
		if err := m.store.UpdateText(p.id, p.text); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		if err := m.store.UpdateMeta(p.id, p.category, p.tags); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		targetID = p.id
		m.status = fmt.Sprintf("Updated #%d", p.id)
	}

	m.prompt = nil
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")

	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	for i, it := range m.items {
		if it.ID == targetID {
			m.cursor = clampCursor(i, len(m.items))
			break
		}
	}
	return m, nil
}

func (m Model) updateMoveMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Confirm, "enter", m.cfg.Keys.Cancel, "esc", m.cfg.Keys.Move:
		m.mode = modeList
		m.moveID = 0
		m.status = "Dropped"
		return m, nil
	case m.cfg.Keys.Up, "up":
		return m.shiftCurrent(-1)
	case m.cfg.Keys.Down, "down":
		return m.shiftCurrent(1)
	default:
		return m, nil
	}
}

// shiftCurrent moves the grabbed item one slot and persists immediately, so a
// quit mid-move loses nothing.
func (m Model) shiftCurrent(delta int) (tea.Model, tea.Cmd) {
	target := m.cursor + delta
	if target < 0 || target >= len(m.items) {
		return m, nil
	}
	if err := m.store.Move(m.moveID, target); err != nil {
		m.status = fmt.Sprintf("move failed: %v", err)
		return m, nil
	}
	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	m.cursor = clampCursor(target, len(m.items))
	m.status = fmt.Sprintf("Position %d of %d", m.cursor+1, len(m.items))
	return m, nil
}

func (m Model) updateFilterMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.input.Blur()
		m.status = "Filter unchanged"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.filter = parseFilter(m.input.Value())
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.cursor = 0
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
			return m, nil
		}
		if m.filter.kind == "" {
			m.status = "Filter cleared"
		} else {
			m.status = fmt.Sprintf("Showing %s %q (%d)", m.filter.kind, m.filter.value, len(m.items))
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// parseFilter reads "category:<name>" or "tag:<name>"; a bare value filters
// by category, a blank clears.
func parseFilter(s string) filterState {
	s = strings.TrimSpace(s)
	if s == "" {
		return filterState{}
	}
	if kind, value, ok := strings.Cut(s, ":"); ok {
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "tag", "t":
			return filterState{kind: "tag", value: value}
		case "category", "cat", "c":
			return filterState{kind: "category", value: value}
		}
	}
	return filterState{kind: "category", value: s}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(mutedStyle.Render(m.emptyMessage()))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList())
	}

	if m.mode == modePrompt || m.mode == modeFilter {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys, m.view)))
	return b.String()
}

func (m Model) renderHeader() string {
	pending, completed, err := m.store.Stats()
	title := titleStyle.Render("TodoQueue") + "  " + accentStyle.Render(viewLabel(m.view))
	if err == nil {
		title += fmt.Sprintf("  %s %d  %s %d",
			pendingStyle.Render("•"), pending,
			successStyle.Render("✔"), completed)
	}
	if m.filter.kind != "" {
		title += "  " + mutedStyle.Render(fmt.Sprintf("[%s: %s]", m.filter.kind, m.filter.value))
	}
	return title
}

func (m Model) emptyMessage() string {
	if m.filter.kind != "" {
		return "Nothing matches the filter."
	}
	if m.view == viewCompleted {
		return "Nothing completed yet."
	}
	return fmt.Sprintf("No todos yet. Press '%s' to add one.", m.cfg.Keys.Add)
}

func (m Model) renderList() string {
	var b strings.Builder
	for i, it := range m.items {
		selected := i == m.cursor && m.mode != modePrompt
		grabbed := m.mode == modeMove && it.ID == m.moveID
		color := m.catColors[strings.ToLower(it.Category)]
		b.WriteString(renderItemLine(it, selected, grabbed, m.view, color))
		b.WriteString("\n")
	}
	return b.String()
}

func renderItemLine(it storage.Item, selected, grabbed bool, v view, color string) string {
	cursor := "  "
	if selected {
		cursor = selectedStyle.Render("> ")
	}

	box := boxUnchecked
	text := it.Text
	if v == viewCompleted {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	line := fmt.Sprintf("%s %s", box, text)
	if it.Category != "" {
		line += " " + categoryBadge(color).Render("["+it.Category+"]")
	}
	for _, t := range storage.SplitTags(it.Tags) {
		line += " " + mutedStyle.Render("#"+t)
	}
	if v == viewCompleted && it.CompletedAt.Valid {
		line += " " + mutedStyle.Render(it.CompletedAt.Time.Format("01/02 15:04"))
	}
	if grabbed {
		line = grabbedStyle.Render(line)
	}
	return cursor + line
}

func viewLabel(v view) string {
	if v == viewCompleted {
		return "completed"
	}
	return "pending"
}

func renderHelp(k config.Keymap, v view) string {
	if v == viewCompleted {
		return fmt.Sprintf("%s/%s move • %s reopen • %s delete • %s clear all • %s pending • %s quit",
			k.Up, k.Down, k.Toggle, k.Delete, k.ClearDone, k.Completed, k.Quit)
	}
	return fmt.Sprintf("%s/%s move • %s add • %s done • %s edit • %s grab • %s filter • %s delete • %s completed • %s quit",
		k.Up, k.Down, k.Add, k.Toggle, k.Edit, k.Move, k.Filter, k.Delete, k.Completed, k.Quit)
}

func (p *promptState) setStep(v string) {
	switch p.step {
	case 0:
		p.text = v
	case 1:
		p.category = v
	case 2:
		p.tags = v
	}
}

func (p *promptState) stepValue() string {
	switch p.step {
	case 0:
		return p.text
	case 1:
		return p.category
	case 2:
		return p.tags
	}
	return ""
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
