package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwantia/snaptree/data"
)

// View renders the browser
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderList())
	sections = append(sections, m.renderStatus())
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	bctx := m.cache.Context()

	var title string
	if m.mode == ModeTree {
		title = fmt.Sprintf("Snapshot Browser [tree] - %s", bctx)
	} else {
		title = fmt.Sprintf("Snapshot Browser [folder %s] - %s", m.folderPath, bctx)
	}

	return m.theme.TitleStyle.Render(title)
}

// listHeight is the number of rows the scrolled window can show.
func (m *Model) listHeight() int {
	height := m.height - 4
	if height < 1 {
		height = 1
	}
	return height
}

// renderList renders only the window of rows around the cursor; with
// hundreds of thousands of entries this is the part that keeps the
// terminal responsive.
func (m *Model) renderList() string {
	if m.mode == ModeTree {
		return m.renderTreeWindow()
	}
	return m.renderFolderWindow()
}

func (m *Model) renderTreeWindow() string {
	visible := m.visibleNodes()
	m.treeOffset = scrollOffset(m.treeOffset, m.treeCursor, m.listHeight())

	var rows []string
	for i := m.treeOffset; i < len(visible) && i < m.treeOffset+m.listHeight(); i++ {
		rows = append(rows, m.renderTreeRow(visible[i], i == m.treeCursor))
	}
	if len(rows) == 0 {
		rows = append(rows, m.theme.StatusStyle.Render("  (empty)"))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) renderTreeRow(node data.FlatTreeNode, selected bool) string {
	indent := strings.Repeat("  ", node.Depth)

	marker := "  "
	switch {
	case !node.HasChildren:
	case m.tree.IsLoading(node.ID):
		marker = "… "
	case node.IsExpanded:
		marker = "▾ "
	default:
		marker = "▸ "
	}

	name := node.Name
	if node.Kind == data.KindDirectory {
		name += "/"
	}

	row := fmt.Sprintf(" %s%s%s", indent, marker, name)
	if selected {
		return m.theme.CursorStyle.Render(row)
	}

	return m.styleFor(node.Entry).Render(row)
}

func (m *Model) renderFolderWindow() string {
	visible := m.visibleEntries()
	m.folderOffset = scrollOffset(m.folderOffset, m.folderCursor, m.listHeight())

	var rows []string
	for i := m.folderOffset; i < len(visible) && i < m.folderOffset+m.listHeight(); i++ {
		rows = append(rows, m.renderFolderRow(visible[i], i == m.folderCursor))
	}
	if len(rows) == 0 {
		rows = append(rows, m.theme.StatusStyle.Render("  (empty)"))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) renderFolderRow(entry data.Entry, selected bool) string {
	name := entry.Name
	if entry.Kind == data.KindDirectory {
		name += "/"
	}

	row := fmt.Sprintf(" %-40s %10s", name, displaySize(entry))
	if selected {
		return m.theme.CursorStyle.Render(row)
	}

	return m.styleFor(entry).Render(row)
}

func (m *Model) renderStatus() string {
	if m.status != "" {
		return m.theme.StatusStyle.Render(" " + m.status)
	}

	deleted := "shown"
	if !m.showDeleted {
		deleted = "hidden"
	}

	var count int
	if m.mode == ModeTree {
		count = len(m.visibleNodes())
	} else {
		count = len(m.visibleEntries())
	}

	return m.theme.StatusStyle.Render(fmt.Sprintf(" %d items | deleted %s", count, deleted))
}

func (m *Model) styleFor(entry data.Entry) lipgloss.Style {
	switch {
	case entry.IsDeleted || entry.Change == data.ChangeDeleted:
		return m.theme.DeletedStyle
	case entry.Change == data.ChangeAdded:
		return m.theme.AddedStyle
	case entry.Change == data.ChangeModified:
		return m.theme.ModifiedStyle
	case entry.Kind == data.KindDirectory:
		return m.theme.DirStyle
	default:
		return m.theme.FileStyle
	}
}

func displaySize(entry data.Entry) string {
	if entry.Kind == data.KindDirectory {
		return "<DIR>"
	}
	if entry.Size == nil {
		return "-"
	}

	size := *entry.Size
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// scrollOffset keeps the cursor inside the visible window.
func scrollOffset(offset, cursor, height int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+height {
		return cursor - height + 1
	}
	return offset
}
