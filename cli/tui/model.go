package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwantia/snaptree"
	"github.com/mwantia/snaptree/data"
)

// ViewMode selects which of the two browse views is active. Both views
// read through the same ChildrenCache, so switching views never
// re-fetches paths that were already seen.
type ViewMode int

const (
	ModeTree ViewMode = iota
	ModeFolder
)

// KeyMap defines the key bindings for the browser
type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Toggle         key.Binding
	Back           key.Binding
	SwitchView     key.Binding
	ToggleDeleted  key.Binding
	SwitchSnapshot key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:         key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand/open")),
		Back:           key.NewBinding(key.WithKeys("backspace", "left"), key.WithHelp("backspace", "parent folder")),
		SwitchView:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		ToggleDeleted:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "show/hide deleted")),
		SwitchSnapshot: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next snapshot")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.SwitchView, k.SwitchSnapshot, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Back},
		{k.SwitchView, k.ToggleDeleted, k.SwitchSnapshot, k.Quit},
	}
}

// Model is the state of the snapshot browser.
type Model struct {
	ctx   context.Context
	cache *snaptree.ChildrenCache
	tree  *snaptree.VirtualTree

	snapshots []data.BrowseContext
	snapIdx   int

	mode ViewMode

	// Tree view state
	nodes      []data.FlatTreeNode
	treeCursor int
	treeOffset int

	// Folder view state
	folderPath    string
	folderEntries []data.Entry
	folderCursor  int
	folderOffset  int

	showDeleted bool
	status      string

	theme *Theme
	keys  KeyMap
	help  help.Model

	width  int
	height int
}

func NewModel(ctx context.Context, cache *snaptree.ChildrenCache, tree *snaptree.VirtualTree, snapshots []data.BrowseContext) *Model {
	return &Model{
		ctx:         ctx,
		cache:       cache,
		tree:        tree,
		snapshots:   snapshots,
		folderPath:  data.PathSeparator,
		showDeleted: true,
		theme:       DefaultTheme(),
		keys:        DefaultKeyMap(),
		help:        help.New(),
	}
}

type rootsLoadedMsg struct {
	entries []data.Entry
	err     error
}

type toggleDoneMsg struct {
	id  int64
	err error
}

type folderLoadedMsg struct {
	path    string
	entries []data.Entry
	err     error
}

type revealDoneMsg struct {
	id    int64
	found bool
	err   error
}

func (m *Model) Init() tea.Cmd {
	return m.loadRootsCmd()
}

func (m *Model) loadRootsCmd() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.cache.Load(m.ctx, data.PathSeparator)
		return rootsLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) toggleCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		err := m.tree.Toggle(m.ctx, id)
		return toggleDoneMsg{id: id, err: err}
	}
}

func (m *Model) loadFolderCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.cache.Load(m.ctx, path)
		return folderLoadedMsg{path: path, entries: entries, err: err}
	}
}

func (m *Model) revealCmd(target string) tea.Cmd {
	return func() tea.Msg {
		id, found, err := m.tree.Reveal(m.ctx, target, data.PathSeparator)
		return revealDoneMsg{id: id, found: found, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case rootsLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.err)
			return m, nil
		}
		m.tree.Initialize(msg.entries)
		m.nodes = m.tree.Nodes()
		m.treeCursor, m.treeOffset = 0, 0
		m.status = ""
		if m.mode == ModeFolder {
			return m, m.loadFolderCmd(m.folderPath)
		}
		return m, nil

	case toggleDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.err)
		}
		m.nodes = m.tree.Nodes()
		return m, nil

	case folderLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.err)
			return m, nil
		}
		entries := make([]data.Entry, len(msg.entries))
		copy(entries, msg.entries)
		data.SortForDisplay(entries)
		m.folderPath = msg.path
		m.folderEntries = entries
		m.folderCursor, m.folderOffset = 0, 0
		m.status = ""
		return m, nil

	case revealDoneMsg:
		m.nodes = m.tree.Nodes()
		m.mode = ModeTree
		if msg.err != nil {
			m.status = fmt.Sprintf("reveal failed: %v", msg.err)
			return m, nil
		}
		if !msg.found {
			m.status = "item is not visible in the tree"
			return m, nil
		}
		for i, node := range m.visibleNodes() {
			if node.ID == msg.id {
				m.treeCursor = i
				break
			}
		}
		m.status = ""
		return m, nil
	}

	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m.activate()

	case key.Matches(msg, m.keys.Back):
		if m.mode == ModeFolder && m.folderPath != data.PathSeparator {
			return m, m.loadFolderCmd(data.ParentOf(m.folderPath))
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchView):
		return m.switchView()

	case key.Matches(msg, m.keys.ToggleDeleted):
		m.showDeleted = !m.showDeleted
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.SwitchSnapshot):
		if len(m.snapshots) < 2 {
			return m, nil
		}
		m.snapIdx = (m.snapIdx + 1) % len(m.snapshots)
		bctx := m.snapshots[m.snapIdx]

		// Reset strictly before any load under the new context.
		m.cache.Reset(bctx)
		m.status = fmt.Sprintf("switched to %s", bctx)
		return m, m.loadRootsCmd()
	}

	return m, nil
}

// activate handles enter on the current selection.
func (m *Model) activate() (tea.Model, tea.Cmd) {
	if m.mode == ModeTree {
		visible := m.visibleNodes()
		if m.treeCursor >= len(visible) {
			return m, nil
		}
		node := visible[m.treeCursor]
		if !node.HasChildren {
			return m, nil
		}
		return m, m.toggleCmd(node.ID)
	}

	visible := m.visibleEntries()
	if m.folderCursor >= len(visible) {
		return m, nil
	}
	entry := visible[m.folderCursor]
	if entry.Kind != data.KindDirectory {
		return m, nil
	}
	return m, m.loadFolderCmd(entry.Path)
}

// switchView flips between the two views over the same selection. Going
// from folder to tree reveals the selected path so the tree scrolls to
// the same item; going the other way opens the selection's folder.
func (m *Model) switchView() (tea.Model, tea.Cmd) {
	if m.mode == ModeTree {
		m.mode = ModeFolder

		visible := m.visibleNodes()
		path := data.PathSeparator
		if m.treeCursor < len(visible) {
			node := visible[m.treeCursor]
			if node.HasChildren {
				path = node.Path
			} else {
				path = data.ParentOf(node.Path)
			}
		}
		return m, m.loadFolderCmd(path)
	}

	visible := m.visibleEntries()
	if m.folderCursor < len(visible) {
		return m, m.revealCmd(visible[m.folderCursor].Path)
	}
	m.mode = ModeTree
	return m, nil
}

// visibleNodes filters the flat array for display; hiding deleted items
// is purely a view concern.
func (m *Model) visibleNodes() []data.FlatTreeNode {
	if m.showDeleted {
		return m.nodes
	}

	visible := make([]data.FlatTreeNode, 0, len(m.nodes))
	for _, node := range m.nodes {
		if !node.IsDeleted {
			visible = append(visible, node)
		}
	}
	return visible
}

func (m *Model) visibleEntries() []data.Entry {
	if m.showDeleted {
		return m.folderEntries
	}

	visible := make([]data.Entry, 0, len(m.folderEntries))
	for _, entry := range m.folderEntries {
		if !entry.IsDeleted {
			visible = append(visible, entry)
		}
	}
	return visible
}

func (m *Model) moveCursor(delta int) {
	if m.mode == ModeTree {
		m.treeCursor = clamp(m.treeCursor+delta, 0, len(m.visibleNodes())-1)
	} else {
		m.folderCursor = clamp(m.folderCursor+delta, 0, len(m.visibleEntries())-1)
	}
}

func (m *Model) clampCursor() {
	m.treeCursor = clamp(m.treeCursor, 0, len(m.visibleNodes())-1)
	m.folderCursor = clamp(m.folderCursor, 0, len(m.visibleEntries())-1)
}

func clamp(v, low, high int) int {
	if high < low {
		return low
	}
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
